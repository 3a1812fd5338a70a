package git

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/content-gateway/internal/codec"
)

// HistoryReader reads decoded commit history from a Git repository.
type HistoryReader struct {
	repo        *gogit.Repository
	opts        HistoryOptions
	filterCache map[string]bool
}

// NewHistoryReader creates a new history reader for the given repository.
func NewHistoryReader(repo *gogit.Repository, opts HistoryOptions) (*HistoryReader, error) {
	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid path pattern %q", pattern)
		}
	}
	return &HistoryReader{
		repo:        repo,
		opts:        opts,
		filterCache: make(map[string]bool),
	}, nil
}

// History walks the commits reachable from ref, most recent first. The
// sequence is lazy and single-pass; stopping the range loop stops the walk.
// Commit messages that do not decode are yielded with Undecoded set.
func (r *HistoryReader) History(ref Ref) iter.Seq2[AnnotatedCommit, error] {
	return func(yield func(AnnotatedCommit, error) bool) {
		tags, err := r.tagsByCommit()
		if err != nil {
			yield(AnnotatedCommit{}, err)
			return
		}

		cIter, err := r.repo.Log(r.logOptions(ref.Hash))
		if err != nil {
			yield(AnnotatedCommit{}, fmt.Errorf("read history of %q: %w", ref.Branch, err))
			return
		}
		defer cIter.Close()

		for {
			c, err := cIter.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(AnnotatedCommit{}, fmt.Errorf("read history of %q: %w", ref.Branch, err))
				return
			}
			if !yield(annotate(c, tags), nil) {
				return
			}
		}
	}
}

// Changes returns the commits reachable from to that are not reachable from
// from, most recent first. This is what synchronizing from into to's
// environment would carry over.
func (r *HistoryReader) Changes(from, to Ref) ([]AnnotatedCommit, error) {
	if from.Hash == to.Hash {
		return []AnnotatedCommit{}, nil
	}

	base, err := r.repo.Log(&gogit.LogOptions{From: from.Hash})
	if err != nil {
		return nil, fmt.Errorf("read history of %q: %w", from.Branch, err)
	}
	seen := make(map[plumbing.Hash]struct{})
	err = base.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history of %q: %w", from.Branch, err)
	}

	changes := []AnnotatedCommit{}
	for commit, err := range r.History(to) {
		if err != nil {
			return nil, err
		}
		if _, ok := seen[plumbing.NewHash(commit.Commit.SHA)]; ok {
			continue
		}
		changes = append(changes, commit)
	}
	return changes, nil
}

// Take collects at most n commits from seq. more reports whether the
// sequence had further commits.
func Take(seq iter.Seq2[AnnotatedCommit, error], n int) (commits []AnnotatedCommit, more bool, err error) {
	commits = make([]AnnotatedCommit, 0, n)
	for commit, err := range seq {
		if err != nil {
			return nil, false, err
		}
		if len(commits) == n {
			return commits, true, nil
		}
		commits = append(commits, commit)
	}
	return commits, false, nil
}

func (r *HistoryReader) logOptions(from plumbing.Hash) *gogit.LogOptions {
	logOpts := &gogit.LogOptions{
		From:  from,
		Order: gogit.LogOrderCommitterTime,
	}
	if r.opts.filtered() {
		logOpts.PathFilter = func(path string) bool {
			matches, err := r.matchesFilters(path)
			return err == nil && matches
		}
	}
	return logOpts
}

// tagsByCommit maps commits to the name of a tag pointing at them. When
// several tags point at one commit the lexically smallest name wins.
func (r *HistoryReader) tagsByCommit() (map[plumbing.Hash]string, error) {
	refs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	tags := make(map[plumbing.Hash]string)
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		tag, err := r.repo.TagObject(target)
		switch {
		case err == nil:
			commit, err := tag.Commit()
			if err != nil {
				// Tags of trees or blobs do not annotate history.
				return nil
			}
			target = commit.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}

		name := ref.Name().Short()
		if existing, ok := tags[target]; !ok || name < existing {
			tags[target] = name
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func annotate(c *object.Commit, tags map[plumbing.Hash]string) AnnotatedCommit {
	annotated := AnnotatedCommit{
		Commit: CommitInfo{
			SHA:     c.Hash.String(),
			When:    c.Committer.When,
			Author:  AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
			Message: strings.TrimRight(c.Message, "\n"),
		},
		Tag: tags[c.Hash],
	}

	op, err := codec.Decode(c.Message)
	if err != nil {
		var perr *codec.ParseError
		if errors.As(err, &perr) {
			annotated.Undecoded = perr.Reason
		} else {
			annotated.Undecoded = err.Error()
		}
		return annotated
	}
	annotated.Operation = &op
	return annotated
}

// matchesFilters checks if a path matches the include/exclude filters.
func (r *HistoryReader) matchesFilters(path string) (bool, error) {
	// Normalize path separators
	path = strings.ReplaceAll(path, "\\", "/")

	if matched, ok := r.filterCache[path]; ok {
		return matched, nil
	}

	matched, err := r.evaluateFilters(path)
	if err != nil {
		return false, err
	}
	r.filterCache[path] = matched
	return matched, nil
}

func (r *HistoryReader) evaluateFilters(path string) (bool, error) {
	// Check exclude patterns first
	for _, pattern := range r.opts.Exclude {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, err
		}
		if matched {
			return false, nil
		}
	}

	// If no include patterns, accept all
	if len(r.opts.Include) == 0 {
		return true, nil
	}

	for _, pattern := range r.opts.Include {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}

	return false, nil
}
