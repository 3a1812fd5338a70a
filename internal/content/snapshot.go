// Package content reads projects, collections, entries and assets as they
// exist at one reference of the content repository.
package content

import (
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/masmgr/content-gateway/internal/git"
)

var errFileMissing = errors.New("file missing")

type decodeError struct {
	path string
	err  error
}

func (e *decodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.path, e.err)
}

func (e *decodeError) Unwrap() error {
	return e.err
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithMaxLimit overrides the largest page size a list accepts.
func WithMaxLimit(n int) Option {
	return func(s *Snapshot) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the logger reporting skipped list items.
func WithLogger(l *zap.Logger) Option {
	return func(s *Snapshot) {
		if l != nil {
			s.logger = l
		}
	}
}

// Snapshot is a read-only view of the content tree at one commit. It never
// touches the worktree.
type Snapshot struct {
	ref      git.Ref
	tree     *object.Tree
	maxLimit int
	logger   *zap.Logger
}

// NewSnapshot loads the tree of the commit ref points at.
func NewSnapshot(repo *gogit.Repository, ref git.Ref, opts ...Option) (*Snapshot, error) {
	commit, err := repo.CommitObject(ref.Hash)
	if err != nil {
		return nil, fmt.Errorf("read commit of %q: %w", ref.Branch, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %q: %w", ref.Branch, err)
	}

	s := &Snapshot{
		ref:      ref,
		tree:     tree,
		maxLimit: MaxLimit,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ref returns the reference the snapshot was taken at.
func (s *Snapshot) Ref() git.Ref {
	return s.ref
}

// ListProjects returns one page of the projects at the snapshot.
func (s *Snapshot) ListProjects(opts PageOptions) (PaginatedList[ProjectSummary], error) {
	if err := opts.Validate(s.maxLimit); err != nil {
		return PaginatedList[ProjectSummary]{}, err
	}

	projects, err := list(s, listing[Project]{
		kind: "project",
		dir:  projectsDir,
		file: projectFile,
		key:  func(p Project) (string, time.Time) { return p.ID, p.Created },
	})
	if err != nil {
		return PaginatedList[ProjectSummary]{}, err
	}

	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = p.Summary()
	}
	return Paginate(summaries, opts), nil
}

// ReadProject returns a single project.
func (s *Snapshot) ReadProject(projectID string) (Project, error) {
	if err := checkID("project", projectID); err != nil {
		return Project{}, err
	}

	var p Project
	if err := s.readObject("project", projectID, path.Join(projectDir(projectID), projectFile), &p); err != nil {
		return Project{}, err
	}
	return p, nil
}

// ListCollections returns one page of a project's collections.
func (s *Snapshot) ListCollections(projectID string, opts PageOptions) (PaginatedList[Collection], error) {
	if err := opts.Validate(s.maxLimit); err != nil {
		return PaginatedList[Collection]{}, err
	}
	if _, err := s.ReadProject(projectID); err != nil {
		return PaginatedList[Collection]{}, err
	}

	collections, err := list(s, listing[Collection]{
		kind: "collection",
		dir:  collectionsDir(projectID),
		file: collectionFile,
		key:  func(c Collection) (string, time.Time) { return c.ID, c.Created },
	})
	if err != nil {
		return PaginatedList[Collection]{}, err
	}
	return Paginate(collections, opts), nil
}

// ReadCollection returns a single collection.
func (s *Snapshot) ReadCollection(projectID, collectionID string) (Collection, error) {
	if err := checkID("project", projectID); err != nil {
		return Collection{}, err
	}
	if err := checkID("collection", collectionID); err != nil {
		return Collection{}, err
	}
	if _, err := s.ReadProject(projectID); err != nil {
		return Collection{}, err
	}

	var c Collection
	if err := s.readObject("collection", collectionID, path.Join(collectionDir(projectID, collectionID), collectionFile), &c); err != nil {
		return Collection{}, err
	}
	return c, nil
}

// EntryQuery selects a page of entries, optionally of one language.
type EntryQuery struct {
	PageOptions
	Language string
}

// ListEntries returns one page of a collection's entries.
func (s *Snapshot) ListEntries(projectID, collectionID string, q EntryQuery) (PaginatedList[Entry], error) {
	if err := q.Validate(s.maxLimit); err != nil {
		return PaginatedList[Entry]{}, err
	}
	if _, err := s.ReadCollection(projectID, collectionID); err != nil {
		return PaginatedList[Entry]{}, err
	}

	entries, err := list(s, listing[Entry]{
		kind:  "entry",
		dir:   entriesDir(projectID, collectionID),
		files: true,
		key:   func(e Entry) (string, time.Time) { return e.ID, e.Created },
	})
	if err != nil {
		return PaginatedList[Entry]{}, err
	}

	if q.Language != "" {
		entries = slices.DeleteFunc(entries, func(e Entry) bool {
			return e.Language != q.Language
		})
	}
	return Paginate(entries, q.PageOptions), nil
}

// ReadEntry returns a single entry.
func (s *Snapshot) ReadEntry(projectID, collectionID, entryID string) (Entry, error) {
	if err := checkID("entry", entryID); err != nil {
		return Entry{}, err
	}
	if _, err := s.ReadCollection(projectID, collectionID); err != nil {
		return Entry{}, err
	}

	var e Entry
	if err := s.readObject("entry", entryID, path.Join(entriesDir(projectID, collectionID), entryID+".json"), &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ListAssets returns one page of a project's assets.
func (s *Snapshot) ListAssets(projectID string, opts PageOptions) (PaginatedList[Asset], error) {
	if err := opts.Validate(s.maxLimit); err != nil {
		return PaginatedList[Asset]{}, err
	}
	if _, err := s.ReadProject(projectID); err != nil {
		return PaginatedList[Asset]{}, err
	}

	assets, err := list(s, listing[Asset]{
		kind:  "asset",
		dir:   assetsDir(projectID),
		files: true,
		key:   func(a Asset) (string, time.Time) { return a.ID, a.Created },
	})
	if err != nil {
		return PaginatedList[Asset]{}, err
	}
	return Paginate(assets, opts), nil
}

// ReadAsset returns the metadata of a single asset.
func (s *Snapshot) ReadAsset(projectID, assetID string) (Asset, error) {
	if err := checkID("asset", assetID); err != nil {
		return Asset{}, err
	}
	if _, err := s.ReadProject(projectID); err != nil {
		return Asset{}, err
	}

	var a Asset
	if err := s.readObject("asset", assetID, path.Join(assetsDir(projectID), assetID+".json"), &a); err != nil {
		return Asset{}, err
	}
	return a, nil
}

// ReadAssetContent returns an asset together with its payload. A missing
// mime type is detected from the payload.
func (s *Snapshot) ReadAssetContent(projectID, assetID string) (Asset, []byte, error) {
	a, err := s.ReadAsset(projectID, assetID)
	if err != nil {
		return Asset{}, nil, err
	}

	data, err := s.readFile(path.Join(payloadDir(projectID), a.FileName()))
	if errors.Is(err, errFileMissing) {
		return Asset{}, nil, &NotFoundError{Kind: "asset content", ID: assetID}
	}
	if err != nil {
		return Asset{}, nil, err
	}

	if a.MimeType == "" {
		a.MimeType = mimetype.Detect(data).String()
	}
	return a, data, nil
}

type listing[T any] struct {
	kind string
	dir  string
	// files lists "<id>.json" files; otherwise "<id>/<file>" directories.
	files bool
	file  string
	key   func(T) (string, time.Time)
}

// list decodes every object under l.dir in insertion order: by creation
// time, then id. Objects that cannot be decoded are skipped.
func list[T any](s *Snapshot, l listing[T]) ([]T, error) {
	tree, err := s.tree.Tree(l.dir)
	if errors.Is(err, object.ErrDirectoryNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s objects: %w", l.kind, err)
	}

	items := make([]T, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		var id, rel string
		switch {
		case !l.files && e.Mode == filemode.Dir:
			id, rel = e.Name, path.Join(l.dir, e.Name, l.file)
		case l.files && e.Mode.IsFile() && path.Ext(e.Name) == ".json":
			id, rel = strings.TrimSuffix(e.Name, ".json"), path.Join(l.dir, e.Name)
		default:
			continue
		}

		if !ValidID(id) {
			s.skip(l.kind, rel, "invalid identifier")
			continue
		}

		var item T
		err := s.readJSON(rel, &item)
		var derr *decodeError
		switch {
		case errors.Is(err, errFileMissing):
			s.skip(l.kind, rel, "missing document")
			continue
		case errors.As(err, &derr):
			s.skip(l.kind, rel, derr.err.Error())
			continue
		case err != nil:
			return nil, err
		}

		if itemID, _ := l.key(item); itemID != id {
			s.skip(l.kind, rel, "identifier mismatch")
			continue
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b T) int {
		idA, createdA := l.key(a)
		idB, createdB := l.key(b)
		if c := createdA.Compare(createdB); c != 0 {
			return c
		}
		return strings.Compare(idA, idB)
	})
	return items, nil
}

func (s *Snapshot) skip(kind, rel, reason string) {
	s.logger.Warn("skipping unreadable object",
		zap.String("kind", kind),
		zap.String("branch", s.ref.Branch),
		zap.String("path", rel),
		zap.String("reason", reason),
	)
}

func (s *Snapshot) readObject(kind, id, rel string, v any) error {
	err := s.readJSON(rel, v)
	if errors.Is(err, errFileMissing) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}

func (s *Snapshot) readJSON(rel string, v any) error {
	data, err := s.readFile(rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &decodeError{path: rel, err: err}
	}
	return nil
}

func (s *Snapshot) readFile(rel string) ([]byte, error) {
	f, err := s.tree.File(rel)
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
		return nil, errFileMissing
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	r, err := f.Reader()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}
