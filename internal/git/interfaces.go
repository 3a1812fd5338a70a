package git

import (
	"fmt"
	"iter"

	gogit "github.com/go-git/go-git/v5"
)

// RepositorySource opens the content repository. Callers open it once per
// unit of work so that every read observes the current refs.
type RepositorySource interface {
	Open() (*gogit.Repository, error)
}

// HistorySource walks decoded commit history.
type HistorySource interface {
	History(ref Ref) iter.Seq2[AnnotatedCommit, error]
	Changes(from, to Ref) ([]AnnotatedCommit, error)
}

// PathSource opens a repository from the local filesystem.
type PathSource string

// Open opens the repository at the path.
func (p PathSource) Open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(string(p), &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open content repository: %w", err)
	}
	return repo, nil
}

// StaticSource hands out an already opened repository.
type StaticSource struct {
	Repo *gogit.Repository
}

// Open returns the wrapped repository.
func (s StaticSource) Open() (*gogit.Repository, error) {
	return s.Repo, nil
}

// Compile-time interface conformance checks.
var (
	_ RepositorySource = PathSource("")
	_ RepositorySource = StaticSource{}
	_ HistorySource    = (*HistoryReader)(nil)
)
