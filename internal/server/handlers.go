package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	gogit "github.com/go-git/go-git/v5"

	"github.com/masmgr/content-gateway/internal/codec"
	"github.com/masmgr/content-gateway/internal/content"
	"github.com/masmgr/content-gateway/internal/git"
)

// request is the state of one routed request once its branch resolved.
type request struct {
	*http.Request
	srv  *Server
	repo *gogit.Repository
	ref  git.Ref
}

// payload is a raw response body.
type payload struct {
	mimeType string
	data     []byte
}

func (s *Server) serveRoute(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branch := chi.URLParam(r, "branch")
		// Unrecognized names are rejected before the repository is opened.
		if !s.resolver.IsRecognized(branch) {
			s.writeError(w, r, &git.BranchNotFoundError{Branch: branch})
			return
		}

		repo, err := s.source.Open()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		ref, err := s.resolver.Resolve(repo, branch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := rt.handle(&request{Request: r, srv: s, repo: repo, ref: ref})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if p, ok := result.(payload); ok {
			w.Header().Set("Content-Type", p.mimeType)
			w.Header().Set("Content-Length", strconv.Itoa(len(p.data)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(p.data)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (q *request) param(name string) string {
	return chi.URLParam(q.Request, name)
}

func (q *request) snapshot() (*content.Snapshot, error) {
	return content.NewSnapshot(q.repo, q.ref,
		content.WithMaxLimit(q.srv.cfg.Paging.MaxLimit),
		content.WithLogger(q.srv.logger),
	)
}

func (q *request) intQuery(name string, def int) (int, error) {
	v := q.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidRequest("query parameter %s must be an integer", name)
	}
	return n, nil
}

// pageOptions reads page and limit. Range checks happen in the snapshot.
func (q *request) pageOptions() (content.PageOptions, error) {
	page, err := q.intQuery("page", 1)
	if err != nil {
		return content.PageOptions{}, err
	}
	limit, err := q.intQuery("limit", q.srv.cfg.Paging.DefaultLimit)
	if err != nil {
		return content.PageOptions{}, err
	}
	return content.PageOptions{Page: page, Limit: limit}, nil
}

func handleListProjects(q *request) (any, error) {
	opts, err := q.pageOptions()
	if err != nil {
		return nil, err
	}
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ListProjects(opts)
}

func handleReadProject(q *request) (any, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ReadProject(q.param("projectId"))
}

func handleListCollections(q *request) (any, error) {
	opts, err := q.pageOptions()
	if err != nil {
		return nil, err
	}
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ListCollections(q.param("projectId"), opts)
}

func handleReadCollection(q *request) (any, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ReadCollection(q.param("projectId"), q.param("collectionId"))
}

func handleListEntries(q *request) (any, error) {
	opts, err := q.pageOptions()
	if err != nil {
		return nil, err
	}
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ListEntries(q.param("projectId"), q.param("collectionId"), content.EntryQuery{
		PageOptions: opts,
		Language:    q.URL.Query().Get("language"),
	})
}

func handleReadEntry(q *request) (any, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ReadEntry(q.param("projectId"), q.param("collectionId"), q.param("entryId"))
}

func handleListAssets(q *request) (any, error) {
	opts, err := q.pageOptions()
	if err != nil {
		return nil, err
	}
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ListAssets(q.param("projectId"), opts)
}

func handleReadAsset(q *request) (any, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.ReadAsset(q.param("projectId"), q.param("assetId"))
}

func handleReadAssetContent(q *request) (any, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	asset, data, err := snap.ReadAssetContent(q.param("projectId"), q.param("assetId"))
	if err != nil {
		return nil, err
	}
	return payload{mimeType: asset.MimeType, data: data}, nil
}

// projectHistory checks the project exists at the request's ref and returns
// a reader scoped to pattern.
func (q *request) projectHistory(pattern string) (*git.HistoryReader, error) {
	snap, err := q.snapshot()
	if err != nil {
		return nil, err
	}
	if _, err := snap.ReadProject(q.param("projectId")); err != nil {
		return nil, err
	}
	return git.NewHistoryReader(q.repo, git.HistoryOptions{Include: []string{pattern}})
}

func handleHistory(q *request) (any, error) {
	cfg := q.srv.cfg.History
	limit, err := q.intQuery("limit", cfg.DefaultLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > cfg.MaxLimit {
		return nil, invalidRequest("limit must be between 1 and %d, got %d", cfg.MaxLimit, limit)
	}

	var objectType codec.ObjectType
	if raw := q.URL.Query().Get("objectType"); raw != "" {
		t, ok := codec.ParseObjectType(raw)
		if !ok {
			return nil, invalidRequest("unknown object type %q", raw)
		}
		objectType = t
	}
	objectID := q.URL.Query().Get("objectId")
	if objectID != "" && objectType == "" {
		return nil, invalidRequest("objectId requires objectType")
	}

	pattern, err := content.ObjectPattern(q.param("projectId"), objectType, objectID)
	if err != nil {
		return nil, err
	}
	reader, err := q.projectHistory(pattern)
	if err != nil {
		return nil, err
	}

	commits, more, err := git.Take(reader.History(q.ref), limit)
	if err != nil {
		return nil, err
	}
	return HistoryPage{
		Branch:  q.ref.Branch,
		Limit:   limit,
		HasMore: more,
		Items:   newCommits(commits),
	}, nil
}

func handleChanges(q *request) (any, error) {
	base := q.URL.Query().Get("base")
	if base == "" {
		return nil, invalidRequest("query parameter base is required")
	}
	baseRef, err := q.srv.resolver.Resolve(q.repo, base)
	if err != nil {
		return nil, err
	}

	pattern, err := content.ObjectPattern(q.param("projectId"), "", "")
	if err != nil {
		return nil, err
	}
	reader, err := q.projectHistory(pattern)
	if err != nil {
		return nil, err
	}

	commits, err := reader.Changes(baseRef, q.ref)
	if err != nil {
		return nil, err
	}
	return ChangeSet{
		Base:   baseRef.Branch,
		Branch: q.ref.Branch,
		Items:  newCommits(commits),
	}, nil
}
