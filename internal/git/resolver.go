package git

import (
	"errors"
	"fmt"
	"slices"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// BranchNotFoundError is returned when a branch name does not resolve.
// Recognized is false when the name was rejected before the repository was
// consulted.
type BranchNotFoundError struct {
	Branch     string
	Recognized bool
}

func (e *BranchNotFoundError) Error() string {
	if !e.Recognized {
		return fmt.Sprintf("branch %q is not a recognized branch", e.Branch)
	}
	return fmt.Sprintf("branch %q not found", e.Branch)
}

// Resolver maps branch names to references. It keeps no state about the
// repository, so a branch created a moment ago resolves immediately.
type Resolver struct {
	defaultBranch string
	recognized    []string
}

// NewResolver creates a resolver. An empty recognized list accepts any
// valid branch name.
func NewResolver(defaultBranch string, recognized []string) *Resolver {
	return &Resolver{
		defaultBranch: defaultBranch,
		recognized:    slices.Clone(recognized),
	}
}

// Default returns the branch used when none is given.
func (r *Resolver) Default() string {
	return r.defaultBranch
}

// Recognized returns the accepted branch names.
func (r *Resolver) Recognized() []string {
	return slices.Clone(r.recognized)
}

// IsRecognized reports whether name passes the recognized-name check.
func (r *Resolver) IsRecognized(name string) bool {
	if len(r.recognized) == 0 {
		return plumbing.NewBranchReferenceName(name).Validate() == nil
	}
	return slices.Contains(r.recognized, name)
}

// Resolve returns the reference for a branch name.
func (r *Resolver) Resolve(repo *gogit.Repository, name string) (Ref, error) {
	if name == "" {
		name = r.defaultBranch
	}
	if !r.IsRecognized(name) {
		return Ref{}, &BranchNotFoundError{Branch: name}
	}

	refName := plumbing.NewBranchReferenceName(name)
	ref, err := repo.Reference(refName, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Ref{}, &BranchNotFoundError{Branch: name, Recognized: true}
		}
		return Ref{}, fmt.Errorf("resolve branch %q: %w", name, err)
	}

	return Ref{Branch: name, Name: refName, Hash: ref.Hash()}, nil
}

// BranchStatus describes one recognized branch.
type BranchStatus struct {
	Name    string
	Default bool
	Exists  bool
	Hash    plumbing.Hash
}

// Branches resolves every recognized branch. Without a recognized list the
// local branches of the repository are reported.
func (r *Resolver) Branches(repo *gogit.Repository) ([]BranchStatus, error) {
	names := r.Recognized()
	if len(names) == 0 {
		iter, err := repo.Branches()
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		err = iter.ForEach(func(ref *plumbing.Reference) error {
			names = append(names, ref.Name().Short())
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("list branches: %w", err)
		}
		slices.Sort(names)
	}

	statuses := make([]BranchStatus, 0, len(names))
	for _, name := range names {
		status := BranchStatus{Name: name, Default: name == r.defaultBranch}
		ref, err := r.Resolve(repo, name)
		var notFound *BranchNotFoundError
		switch {
		case err == nil:
			status.Exists = true
			status.Hash = ref.Hash
		case errors.As(err, &notFound):
		default:
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
