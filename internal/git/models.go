package git

import (
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/masmgr/content-gateway/internal/codec"
)

// CommitInfo represents minimal information about a Git commit.
type CommitInfo struct {
	SHA     string
	When    time.Time
	Author  AuthorInfo
	Message string
}

// Subject returns the first line of the commit message.
func (c CommitInfo) Subject() string {
	if idx := strings.IndexByte(c.Message, '\n'); idx != -1 {
		return c.Message[:idx]
	}
	return c.Message
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// Ref is a branch name resolved to the commit it points at.
type Ref struct {
	Branch string
	Name   plumbing.ReferenceName
	Hash   plumbing.Hash
}

// AnnotatedCommit is a commit together with the operation its message
// encodes. Operation is nil when the message did not decode, in which case
// Undecoded holds the reason.
type AnnotatedCommit struct {
	Commit    CommitInfo
	Tag       string
	Operation *codec.Operation
	Undecoded string
}

// Decoded reports whether the commit message carried a structured operation.
func (a AnnotatedCommit) Decoded() bool {
	return a.Operation != nil
}

// HistoryOptions scopes a history walk to commits touching matching paths.
type HistoryOptions struct {
	Include []string // Glob patterns to include
	Exclude []string // Glob patterns to exclude
}

func (o HistoryOptions) filtered() bool {
	return len(o.Include) > 0 || len(o.Exclude) > 0
}
