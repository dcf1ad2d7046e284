package gitlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denchenko/gitar/internal/cache"
	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/provider"
	"github.com/denchenko/gitar/internal/throttle"
	"github.com/denchenko/gitar/internal/transport"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()

	eng := engine.New("gitlab.test", cache.New(""), transport.New("token", transport.SchemeBearer), throttle.NewGovernor(10), "user:1")

	return New(eng, baseURL, func(string) int { return 10 })
}

func TestListMergeRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/group%2Fproject/merge_requests", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"id":1,"title":"first","state":"opened","source_branch":"feature","target_branch":"main","author":{"id":10,"username":"alice"}},
			{"id":2,"title":"second","state":"merged","source_branch":"fix","target_branch":"main","author":{"id":11,"username":"bob"}}
		]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mrs, err := p.ListMergeRequests(context.Background(), "group/project", domain.MrFilter{}, provider.PageRange{})
	require.NoError(t, err)
	require.Len(t, mrs, 2)
	assert.Equal(t, "alice", mrs[0].Author.Username)
	assert.Equal(t, domain.MergeRequestOpen, mrs[0].State)
	assert.Equal(t, domain.MergeRequestMerged, mrs[1].State)
}

func TestGetMergeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42/merge_requests/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":7,"title":"example","state":"opened","web_url":"https://gitlab.test/x/-/merge_requests/7"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mr, err := p.GetMergeRequest(context.Background(), "42", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, mr.ID)
	assert.Equal(t, "https://gitlab.test/x/-/merge_requests/7", mr.WebURL)
}

func TestCreateMergeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":99,"title":"new mr","state":"opened"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mr, err := p.CreateMergeRequest(context.Background(), "group/project", provider.MrCreate{
		Title: "new mr", Source: "feature", Target: "main",
	})
	require.NoError(t, err)
	assert.Equal(t, 99, mr.ID)
}

func TestGetProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":5,"path":"project","path_with_namespace":"group/project","default_branch":"main","web_url":"https://gitlab.test/group/project"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	proj, err := p.GetProject(context.Background(), "group/project")
	require.NoError(t, err)
	assert.Equal(t, 5, proj.ID)
	assert.Equal(t, "group/project", proj.Path)
	assert.Equal(t, "main", proj.DefaultBranch)
}

func TestListReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"tag_name":"v1.0.0","name":"v1.0.0","assets":{"links":[{"name":"binary","url":"https://example.com/binary"}]}}]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	releases, err := p.ListReleases(context.Background(), "group/project", provider.PageRange{})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "v1.0.0", releases[0].Tag)
	require.Len(t, releases[0].Assets, 1)
	assert.Equal(t, "binary", releases[0].Assets[0].Name)
}

func TestTrendingIsUnsupported(t *testing.T) {
	p := newTestProvider(t, "https://gitlab.test")

	_, err := p.Trending(context.Background(), "go")
	require.Error(t, err)
	assert.Equal(t, grerror.Unsupported, grerror.KindOf(err))
}

func TestListApprovals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/projects/42/merge_requests/7/approvals", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"approved_by":[{"user":{"id":1,"username":"alice"}},{"user":{"id":2,"username":"bob"}}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	approvals, err := p.ListApprovals(context.Background(), "42", 7)
	require.NoError(t, err)
	require.Len(t, approvals, 2)
	assert.Equal(t, "alice", approvals[0].Username)
}

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/user", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":1,"username":"alice","name":"Alice"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	u, err := p.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestListUserEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/users/1/events", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":1,"action_name":"pushed to","target_type":"MergeRequest","target_title":"fix bug","project_id":5}]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	events, err := p.ListUserEvents(context.Background(), &domain.User{ID: 1}, time.Now().AddDate(0, 0, -7), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "pushed to", events[0].Action)
}

func TestProjectSegmentEncodesGroupPath(t *testing.T) {
	assert.Equal(t, "group%2Fproject", projectSegment("group/project"))
	assert.Equal(t, "42", projectSegment("42"))
}
