package git

import (
	"testing"

	"github.com/masmgr/content-gateway/internal/contenttest"
)

// createBenchRepo builds a development branch with one project holding
// assets assets, each updated revisions times.
func createBenchRepo(b *testing.B, assets, revisions int) (*contenttest.Repo, Ref) {
	b.Helper()

	fixture := contenttest.NewRepo(b, "development")
	project := contenttest.ID(1)
	fixture.AddProject(project, "Bench")
	for rev := 0; rev < revisions; rev++ {
		for a := 0; a < assets; a++ {
			payload := []byte{byte(rev), byte(a)}
			fixture.AddAsset(project, contenttest.ID(100+a), "asset", "bin", "application/octet-stream", payload)
		}
	}

	ref, err := NewResolver("development", environments).Resolve(fixture.Repo, "development")
	if err != nil {
		b.Fatalf("Resolve: %v", err)
	}
	return fixture, ref
}

func drain(b *testing.B, r *HistoryReader, ref Ref, limit int) int {
	b.Helper()
	commits, _, err := Take(r.History(ref), limit)
	if err != nil {
		b.Fatalf("History: %v", err)
	}
	return len(commits)
}

func BenchmarkHistoryReader_History_Full(b *testing.B) {
	fixture, ref := createBenchRepo(b, 10, 20)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reader, err := NewHistoryReader(fixture.Repo, HistoryOptions{})
		if err != nil {
			b.Fatalf("NewHistoryReader: %v", err)
		}
		if n := drain(b, reader, ref, 1<<20); n == 0 {
			b.Fatalf("unexpected empty history")
		}
	}
}

// BenchmarkHistoryReader_History_FirstPage measures the lazy walk: only the
// first page of a long history is materialized.
func BenchmarkHistoryReader_History_FirstPage(b *testing.B) {
	fixture, ref := createBenchRepo(b, 10, 20)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reader, err := NewHistoryReader(fixture.Repo, HistoryOptions{})
		if err != nil {
			b.Fatalf("NewHistoryReader: %v", err)
		}
		if n := drain(b, reader, ref, 20); n != 20 {
			b.Fatalf("page = %d commits, expected 20", n)
		}
	}
}

func BenchmarkHistoryReader_History_ScopedToAsset(b *testing.B) {
	fixture, ref := createBenchRepo(b, 10, 20)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reader, err := NewHistoryReader(fixture.Repo, HistoryOptions{
			Include: []string{"projects/*/{assets,lfs}/" + contenttest.ID(100) + ".*"},
		})
		if err != nil {
			b.Fatalf("NewHistoryReader: %v", err)
		}
		if n := drain(b, reader, ref, 1<<20); n == 0 {
			b.Fatalf("unexpected empty history")
		}
	}
}
