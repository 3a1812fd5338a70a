// Package contenttest builds in-memory content repositories for tests.
package contenttest

import (
	"encoding/json"
	"fmt"
	"path"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/masmgr/content-gateway/internal/codec"
)

// Epoch is the time of the first fixture commit.
var Epoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// ID returns a deterministic UUID for fixture object n.
func ID(n int) string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", n)
}

// Repo is an in-memory repository with a worktree. Every commit advances a
// fake clock by one minute so ordering by time is deterministic.
type Repo struct {
	tb    testing.TB
	Repo  *gogit.Repository
	fs    billy.Filesystem
	wt    *gogit.Worktree
	clock time.Time
}

// NewRepo creates an empty repository whose initial branch is branch.
func NewRepo(tb testing.TB, branch string) *Repo {
	tb.Helper()

	fs := memfs.New()
	repo, err := gogit.InitWithOptions(memory.NewStorage(), fs, gogit.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		tb.Fatalf("Init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		tb.Fatalf("Worktree: %v", err)
	}

	return &Repo{tb: tb, Repo: repo, fs: fs, wt: wt, clock: Epoch}
}

// Now returns the time the next commit will carry.
func (r *Repo) Now() time.Time {
	return r.clock
}

// Write stores content at rel and stages it.
func (r *Repo) Write(rel string, content []byte) {
	r.tb.Helper()

	if err := r.fs.MkdirAll(path.Dir(rel), 0o755); err != nil {
		r.tb.Fatalf("MkdirAll: %v", err)
	}
	f, err := r.fs.Create(rel)
	if err != nil {
		r.tb.Fatalf("Create: %v", err)
	}
	if _, err := f.Write(content); err != nil {
		r.tb.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		r.tb.Fatalf("Close: %v", err)
	}
	if _, err := r.wt.Add(rel); err != nil {
		r.tb.Fatalf("Add: %v", err)
	}
}

// WriteJSON marshals v to rel and stages it.
func (r *Repo) WriteJSON(rel string, v any) {
	r.tb.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		r.tb.Fatalf("Marshal: %v", err)
	}
	r.Write(rel, data)
}

// Remove deletes rel from the worktree and stages the removal.
func (r *Repo) Remove(rel string) {
	r.tb.Helper()

	if _, err := r.wt.Remove(rel); err != nil {
		r.tb.Fatalf("Remove: %v", err)
	}
}

// Commit records the staged changes with a free-form message.
func (r *Repo) Commit(msg string) plumbing.Hash {
	r.tb.Helper()

	sig := &object.Signature{Name: "Editor", Email: "editor@example.com", When: r.clock}
	hash, err := r.wt.Commit(msg, &gogit.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: true,
	})
	if err != nil {
		r.tb.Fatalf("Commit: %v", err)
	}
	r.clock = r.clock.Add(time.Minute)
	return hash
}

// CommitOp records the staged changes with an encoded operation message.
func (r *Repo) CommitOp(method codec.Method, objectType codec.ObjectType, id string) plumbing.Hash {
	r.tb.Helper()

	msg, err := codec.Encode(codec.Operation{Method: method, ObjectType: objectType, ObjectID: id})
	if err != nil {
		r.tb.Fatalf("Encode: %v", err)
	}
	return r.Commit(msg)
}

// Head returns the commit HEAD points at.
func (r *Repo) Head() plumbing.Hash {
	r.tb.Helper()

	head, err := r.Repo.Head()
	if err != nil {
		r.tb.Fatalf("Head: %v", err)
	}
	return head.Hash()
}

// Branch creates branch at HEAD without switching to it.
func (r *Repo) Branch(name string) {
	r.tb.Helper()

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), r.Head())
	if err := r.Repo.Storer.SetReference(ref); err != nil {
		r.tb.Fatalf("SetReference: %v", err)
	}
}

// Checkout switches the worktree to branch, creating it at HEAD if needed.
func (r *Repo) Checkout(name string) {
	r.tb.Helper()

	refName := plumbing.NewBranchReferenceName(name)
	_, err := r.Repo.Reference(refName, true)
	create := err != nil
	if err := r.wt.Checkout(&gogit.CheckoutOptions{Branch: refName, Create: create}); err != nil {
		r.tb.Fatalf("Checkout(%s): %v", name, err)
	}
}

// Tag tags HEAD. Annotated tags carry a tagger and message.
func (r *Repo) Tag(name string, annotated bool) {
	r.tb.Helper()

	var opts *gogit.CreateTagOptions
	if annotated {
		opts = &gogit.CreateTagOptions{
			Tagger:  &object.Signature{Name: "Editor", Email: "editor@example.com", When: r.clock},
			Message: "release " + name,
		}
	}
	if _, err := r.Repo.CreateTag(name, r.Head(), opts); err != nil {
		r.tb.Fatalf("CreateTag(%s): %v", name, err)
	}
}
