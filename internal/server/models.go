package server

import (
	"time"

	"github.com/masmgr/content-gateway/internal/codec"
	"github.com/masmgr/content-gateway/internal/git"
)

// Commit is one history record as served over HTTP.
type Commit struct {
	Hash      string           `json:"hash"`
	Author    Author           `json:"author"`
	Datetime  time.Time        `json:"datetime"`
	Tag       string           `json:"tag,omitempty"`
	Message   string           `json:"message"`
	Operation *codec.Operation `json:"operation,omitempty"`
	Undecoded bool             `json:"undecoded,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

// Author identifies who made a commit.
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HistoryPage is the newest part of a branch's history.
type HistoryPage struct {
	Branch  string   `json:"branch"`
	Limit   int      `json:"limit"`
	HasMore bool     `json:"hasMore"`
	Items   []Commit `json:"items"`
}

// ChangeSet lists the commits on Branch that Base does not have.
type ChangeSet struct {
	Base   string   `json:"base"`
	Branch string   `json:"branch"`
	Items  []Commit `json:"items"`
}

// newCommit converts an annotated commit to its HTTP form.
func newCommit(c git.AnnotatedCommit) Commit {
	return Commit{
		Hash:      c.Commit.SHA,
		Author:    Author{Name: c.Commit.Author.Name, Email: c.Commit.Author.Email},
		Datetime:  c.Commit.When,
		Tag:       c.Tag,
		Message:   c.Commit.Message,
		Operation: c.Operation,
		Undecoded: !c.Decoded(),
		Reason:    c.Undecoded,
	}
}

func newCommits(commits []git.AnnotatedCommit) []Commit {
	out := make([]Commit, len(commits))
	for i, c := range commits {
		out[i] = newCommit(c)
	}
	return out
}
