package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masmgr/content-gateway/config"
	"github.com/masmgr/content-gateway/internal/codec"
	"github.com/masmgr/content-gateway/internal/content"
	"github.com/masmgr/content-gateway/internal/contenttest"
	"github.com/masmgr/content-gateway/internal/git"
)

// countingSource counts how often the repository is opened.
type countingSource struct {
	repo  *gogit.Repository
	opens int
}

func (c *countingSource) Open() (*gogit.Repository, error) {
	c.opens++
	return c.repo, nil
}

type failingSource struct{}

func (failingSource) Open() (*gogit.Repository, error) {
	return nil, errors.New("open /srv/secret/content: permission denied")
}

func testConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.Log.Level = "none"
	return cfg
}

func newTestServer(t *testing.T, source git.RepositorySource, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := New(cfg, source, nil)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rec.Code, "body: %s", rec.Body.String())
	body := decode[ErrorBody](t, rec)
	assert.Equal(t, code, body.Error.Code)
}

func TestGateway_ListProjects(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	fixture.AddProject(contenttest.ID(2), "Beta")
	fixture.AddProject(contenttest.ID(3), "Gamma")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/development/projects?page=1&limit=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	page := decode[content.PaginatedList[content.ProjectSummary]](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Items, 3)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"},
		[]string{page.Items[0].Name, page.Items[1].Name, page.Items[2].Name})
}

func TestGateway_DefaultPaging(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	for i := 1; i <= 20; i++ {
		fixture.AddProject(contenttest.ID(i), fmt.Sprintf("Project %02d", i))
	}
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	page := decode[content.PaginatedList[content.ProjectSummary]](t, get(t, s, "/development/projects"))
	assert.Equal(t, 20, page.Total)
	assert.Equal(t, 15, page.Limit)
	assert.Len(t, page.Items, 15)

	page = decode[content.PaginatedList[content.ProjectSummary]](t, get(t, s, "/development/projects?page=2"))
	assert.Len(t, page.Items, 5)
	assert.Equal(t, "Project 16", page.Items[0].Name)
}

func TestGateway_BranchIsolation(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Released")
	fixture.Branch("production")
	draft := contenttest.ID(2)
	fixture.AddProject(draft, "Draft")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/development/projects/"+draft)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Draft", decode[content.Project](t, rec).Name)

	assertError(t, get(t, s, "/production/projects/"+draft), http.StatusNotFound, CodeNotFound)
}

func TestGateway_UnrecognizedBranchSkipsRepository(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	source := &countingSource{repo: fixture.Repo}
	s := newTestServer(t, source)

	rec := get(t, s, "/staging/projects")
	assertError(t, rec, http.StatusNotFound, CodeBranchNotFound)
	assert.Contains(t, decode[ErrorBody](t, rec).Error.Message, "staging")
	assert.Zero(t, source.opens)

	get(t, s, "/development/projects")
	assert.Equal(t, 1, source.opens)
}

func TestGateway_RecognizedBranchMissing(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	assertError(t, get(t, s, "/preview/projects"), http.StatusNotFound, CodeBranchNotFound)
}

func TestGateway_BranchCreatedAfterStartResolves(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	assertError(t, get(t, s, "/preview/projects"), http.StatusNotFound, CodeBranchNotFound)
	fixture.Branch("preview")
	assert.Equal(t, http.StatusOK, get(t, s, "/preview/projects").Code)
}

func TestGateway_PublicDeployment(t *testing.T) {
	fixture := contenttest.NewRepo(t, "production")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	fixture.Branch("development")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo}, func(c *config.Config) {
		c.Server.Deployment = config.DeploymentPublic
	})

	assert.Equal(t, http.StatusOK, get(t, s, "/production/projects").Code)
	assertError(t, get(t, s, "/development/projects"), http.StatusNotFound, CodeBranchNotFound)
}

func TestGateway_InvalidRequests(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	fixture.AddProject(project, "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	tests := []struct {
		name   string
		target string
	}{
		{name: "non-numeric page", target: "/development/projects?page=abc"},
		{name: "page zero", target: "/development/projects?page=0"},
		{name: "limit above max", target: "/development/projects?limit=1000"},
		{name: "malformed project id", target: "/development/projects/not-a-uuid"},
		{name: "malformed collection id", target: "/development/projects/" + project + "/collections/x"},
		{name: "history limit zero", target: "/development/projects/" + project + "/history?limit=0"},
		{name: "unknown object type", target: "/development/projects/" + project + "/history?objectType=Folder"},
		{name: "object id without type", target: "/development/projects/" + project + "/history?objectId=" + contenttest.ID(2)},
		{name: "changes without base", target: "/development/projects/" + project + "/changes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, get(t, s, tt.target), http.StatusBadRequest, CodeInvalidRequest)
		})
	}
}

func TestGateway_CollectionsAndEntries(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	collection := contenttest.ID(10)
	fixture.AddProject(project, "Alpha")
	fixture.AddCollection(project, collection, "Post", "Posts")
	fixture.AddEntry(project, collection, contenttest.ID(100), "en",
		contenttest.Value{FieldDefinitionID: contenttest.ID(9000), ValueType: "string", Content: map[string]string{"en": "Hello"}})
	fixture.AddEntry(project, collection, contenttest.ID(101), "de")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	base := "/development/projects/" + project + "/collections"
	cols := decode[content.PaginatedList[content.Collection]](t, get(t, s, base))
	require.Len(t, cols.Items, 1)
	assert.Equal(t, "Posts", cols.Items[0].Name.Plural)

	entries := decode[content.PaginatedList[content.Entry]](t, get(t, s, base+"/"+collection+"/entries?language=en"))
	require.Len(t, entries.Items, 1)
	assert.Equal(t, contenttest.ID(100), entries.Items[0].ID)
	require.Len(t, entries.Items[0].Values, 1)
	assert.JSONEq(t, `{"en":"Hello"}`, string(entries.Items[0].Values[0].Content))

	rec := get(t, s, base+"/"+collection+"/entries/"+contenttest.ID(101))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "de", decode[content.Entry](t, rec).Language)

	assertError(t, get(t, s, base+"/"+collection+"/entries/"+contenttest.ID(102)), http.StatusNotFound, CodeNotFound)
}

func TestGateway_AssetContent(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	logo := contenttest.ID(2)
	notes := contenttest.ID(3)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	fixture.AddProject(project, "Alpha")
	fixture.AddAsset(project, logo, "logo", "png", "", png)
	fixture.AddAsset(project, notes, "notes", "txt", "text/plain", []byte("release notes"))
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	base := "/development/projects/" + project + "/assets/"
	rec := get(t, s, base+logo+"/content")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	rec = get(t, s, base+notes+"/content")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Equal(t, "release notes", rec.Body.String())

	meta := decode[content.Asset](t, get(t, s, base+notes))
	assert.Equal(t, "notes", meta.Name)
	assert.EqualValues(t, len("release notes"), meta.Size)
}

func TestGateway_HistoryToleratesUndecodedCommits(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	asset := contenttest.ID(2)
	fixture.AddProject(project, "Alpha")
	fixture.AddAsset(project, asset, "logo", "svg", "image/svg+xml", []byte("<svg/>"))
	fixture.Write("projects/"+project+"/notes.txt", []byte("merged"))
	fixture.Commit("Merge branch 'feature' into development")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/development/projects/"+project+"/history")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[HistoryPage](t, rec)

	assert.Equal(t, "development", page.Branch)
	assert.False(t, page.HasMore)
	require.Len(t, page.Items, 3)

	merge := page.Items[0]
	assert.True(t, merge.Undecoded)
	assert.NotEmpty(t, merge.Reason)
	assert.Nil(t, merge.Operation)

	require.NotNil(t, page.Items[1].Operation)
	assert.Equal(t, codec.Operation{Method: codec.MethodCreate, ObjectType: codec.ObjectAsset, ObjectID: asset}, *page.Items[1].Operation)
	assert.False(t, page.Items[1].Undecoded)
	require.NotNil(t, page.Items[2].Operation)
	assert.Equal(t, codec.ObjectProject, page.Items[2].Operation.ObjectType)
	assert.True(t, page.Items[0].Datetime.After(page.Items[1].Datetime))
}

func TestGateway_HistoryLimitAndScope(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	asset := contenttest.ID(2)
	fixture.AddProject(project, "Alpha")
	fixture.AddAsset(project, asset, "logo", "svg", "image/svg+xml", []byte("<svg/>"))
	fixture.AddAsset(project, contenttest.ID(3), "icon", "svg", "image/svg+xml", []byte("<svg/>"))
	fixture.DeleteAsset(project, asset, "svg")
	fixture.Tag("v1", true)
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	base := "/development/projects/" + project + "/history"
	page := decode[HistoryPage](t, get(t, s, base+"?limit=2"))
	assert.Equal(t, 2, page.Limit)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "v1", page.Items[0].Tag)

	page = decode[HistoryPage](t, get(t, s, base+"?objectType=asset&objectId="+asset))
	require.Len(t, page.Items, 2)
	assert.Equal(t, codec.MethodDelete, page.Items[0].Operation.Method)
	assert.Equal(t, codec.MethodCreate, page.Items[1].Operation.Method)
	for _, c := range page.Items {
		assert.Equal(t, asset, c.Operation.ObjectID)
	}

	assertError(t, get(t, s, "/development/projects/"+contenttest.ID(9)+"/history"), http.StatusNotFound, CodeNotFound)
}

func TestGateway_Changes(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	project := contenttest.ID(1)
	fixture.AddProject(project, "Alpha")
	fixture.Branch("production")
	fixture.AddAsset(project, contenttest.ID(2), "logo", "svg", "image/svg+xml", []byte("<svg/>"))
	fixture.AddProject(contenttest.ID(5), "Unrelated")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/development/projects/"+project+"/changes?base=production")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	changes := decode[ChangeSet](t, rec)
	assert.Equal(t, "production", changes.Base)
	assert.Equal(t, "development", changes.Branch)
	require.Len(t, changes.Items, 1)
	assert.Equal(t, codec.ObjectAsset, changes.Items[0].Operation.ObjectType)

	changes = decode[ChangeSet](t, get(t, s, "/production/projects/"+project+"/changes?base=development"))
	assert.Empty(t, changes.Items)
	assert.NotNil(t, changes.Items)

	assertError(t, get(t, s, "/development/projects/"+project+"/changes?base=staging"), http.StatusNotFound, CodeBranchNotFound)
}

func TestGateway_CORS(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/development/projects", "Origin", "https://example.org")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, s, "/staging/projects", "Origin", "https://example.org")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/development/projects", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	pre := httptest.NewRecorder()
	s.Handler().ServeHTTP(pre, req)
	assert.Less(t, pre.Code, 300)
	assert.Equal(t, "*", pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestGateway_InternalErrorHidesDetail(t *testing.T) {
	s := newTestServer(t, failingSource{})

	rec := get(t, s, "/development/projects")
	assertError(t, rec, http.StatusInternalServerError, CodeInternal)
	assert.NotContains(t, rec.Body.String(), "/srv/secret")
}

func TestGateway_UnknownRoute(t *testing.T) {
	s := newTestServer(t, failingSource{})
	assertError(t, get(t, s, "/development/widgets"), http.StatusNotFound, CodeNotFound)
}

func TestGateway_HeadAndMethodNotAllowed(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	head := httptest.NewRecorder()
	s.Handler().ServeHTTP(head, httptest.NewRequest(http.MethodHead, "/development/projects", nil))
	assert.Equal(t, http.StatusOK, head.Code)

	post := httptest.NewRecorder()
	s.Handler().ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/development/projects", strings.NewReader("{}")))
	assertError(t, post, http.StatusMethodNotAllowed, CodeMethodNotAllowed)
	assert.Equal(t, "application/json; charset=utf-8", post.Header().Get("Content-Type"))
	assert.Contains(t, post.Header().Get("Allow"), http.MethodGet)
}

func TestGateway_Document(t *testing.T) {
	tests := []struct {
		name            string
		deployment      config.Deployment
		expectedEnum    []any
		expectedDefault string
	}{
		{
			name:            "local",
			deployment:      config.DeploymentLocal,
			expectedEnum:    []any{"development", "preview", "production"},
			expectedDefault: "development",
		},
		{
			name:            "public",
			deployment:      config.DeploymentPublic,
			expectedEnum:    []any{"preview", "production"},
			expectedDefault: "production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, failingSource{}, func(c *config.Config) {
				c.Server.Deployment = tt.deployment
			})

			rec := get(t, s, "/doc")
			require.Equal(t, http.StatusOK, rec.Code)

			doc, err := openapi3.NewLoader().LoadFromData(rec.Body.Bytes())
			require.NoError(t, err)
			require.NoError(t, doc.Validate(context.Background()))
			assert.Equal(t, "3.0.3", doc.OpenAPI)
			assert.Equal(t, len(routeTable()), doc.Paths.Len())
			assert.Equal(t, s.Document().Paths.Len(), doc.Paths.Len())

			op := doc.Paths.Value("/{branch}/projects").Get
			require.NotNil(t, op)
			branch := op.Parameters.GetByInAndName(openapi3.ParameterInPath, "branch")
			require.NotNil(t, branch)
			assert.Equal(t, tt.expectedEnum, branch.Schema.Value.Enum)
			assert.Equal(t, tt.expectedDefault, branch.Schema.Value.Default)

			for _, rt := range routeTable() {
				item := doc.Paths.Value(rt.pattern)
				require.NotNil(t, item, rt.pattern)
				assert.Equal(t, rt.operationID, item.Get.OperationID)
				assert.NotNil(t, item.Get.Responses.Status(http.StatusOK), rt.pattern)

				badRequest := item.Get.Responses.Status(http.StatusBadRequest)
				require.NotNil(t, badRequest, rt.pattern)
				if len(rt.pathParams()) > 1 {
					assert.Contains(t, *badRequest.Value.Description, "not UUIDs", rt.pattern)
					assert.Contains(t, *badRequest.Value.Description, "404 not_found", rt.pattern)
				}
			}
		})
	}
}

func TestGateway_UI(t *testing.T) {
	s := newTestServer(t, failingSource{})

	rec := get(t, s, "/ui")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "swagger-ui")
	assert.Contains(t, rec.Body.String(), `"/doc"`)
}

func TestGateway_HealthAndMetrics(t *testing.T) {
	fixture := contenttest.NewRepo(t, "development")
	fixture.AddProject(contenttest.ID(1), "Alpha")
	s := newTestServer(t, git.StaticSource{Repo: fixture.Repo})

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	get(t, s, "/development/projects")
	rec = get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `contentgw_http_requests_total{method="GET",route="/{branch}/projects",status="200"} 1`)

	quiet := newTestServer(t, git.StaticSource{Repo: fixture.Repo}, func(c *config.Config) {
		c.Server.Metrics = false
	})
	assert.Equal(t, http.StatusNotFound, get(t, quiet, "/metrics").Code)
}

func TestNew_CopiesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Content.Branches = []string{"development", "preview"}
	cfg.Content.DefaultBranch = "development"
	s, err := New(cfg, failingSource{}, nil)
	require.NoError(t, err)

	cfg.Content.Branches[1] = "staging"
	assert.Equal(t, []string{"development", "preview"}, s.resolver.Recognized())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Deployment = "cloud"
	_, err := New(cfg, failingSource{}, nil)
	assert.Error(t, err)

	_, err = New(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestListenAndServe_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := newTestServer(t, failingSource{}, func(c *config.Config) {
		c.Server.Host = "127.0.0.1"
		c.Server.Port = ln.Addr().(*net.TCPAddr).Port
	})

	err = s.ListenAndServe(context.Background())
	var inUse *PortInUseError
	require.ErrorAs(t, err, &inUse)
	assert.True(t, strings.HasSuffix(inUse.Addr, fmt.Sprintf(":%d", ln.Addr().(*net.TCPAddr).Port)))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(t, failingSource{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
