package github

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
	"github.com/denchenko/gitar/internal/provider"
	"github.com/denchenko/gitar/internal/throttle"
	"github.com/denchenko/gitar/internal/transport"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()

	eng := engine.New("github.test", cache.New(""), transport.New("token", transport.SchemeToken), throttle.NewGovernor(10), "user:1")

	return New(eng, baseURL, func(string) int { return 10 })
}

func TestListMergeRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/widgets/pulls", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"number":1,"title":"first","state":"open","user":{"login":"alice"}},
			{"number":2,"title":"second","state":"closed","merged":true,"user":{"login":"bob"}}
		]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mrs, err := p.ListMergeRequests(context.Background(), "octo/widgets", domain.MrFilter{}, provider.PageRange{})
	require.NoError(t, err)
	require.Len(t, mrs, 2)
	assert.Equal(t, "alice", mrs[0].Author.Username)
	assert.Equal(t, domain.MergeRequestMerged, mrs[1].State)
}

func TestListMergeRequestsFiltersByAuthorClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"number":1,"title":"first","state":"open","user":{"login":"alice"}},
			{"number":2,"title":"second","state":"open","user":{"login":"bob"}}
		]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mrs, err := p.ListMergeRequests(context.Background(), "octo/widgets", domain.MrFilter{Author: "bob"}, provider.PageRange{})
	require.NoError(t, err)
	require.Len(t, mrs, 1)
	assert.Equal(t, "bob", mrs[0].Author.Username)
}

func TestGetMergeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/widgets/pulls/7", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"number":7,"title":"example","state":"open","html_url":"https://github.com/octo/widgets/pull/7"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	mr, err := p.GetMergeRequest(context.Background(), "octo/widgets", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, mr.ID)
	assert.Equal(t, "https://github.com/octo/widgets/pull/7", mr.WebURL)
}

func TestListPipelinesUnwrapsWorkflowRunsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/widgets/actions/runs", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"total_count":1,"workflow_runs":[{"id":101,"status":"completed","head_branch":"main"}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	runs, err := p.ListPipelines(context.Background(), "octo/widgets", provider.PageRange{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 101, runs[0].ID)
	assert.Equal(t, "completed", runs[0].Status)
}

func TestListRunnersFiltersByStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"total_count":2,"runners":[{"id":1,"name":"a","status":"online"},{"id":2,"name":"b","status":"offline"}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	runners, err := p.ListRunners(context.Background(), "octo/widgets", domain.RunnerOnline)
	require.NoError(t, err)
	require.Len(t, runners, 1)
	assert.Equal(t, "a", runners[0].Name)
}

func TestTrendingSearchesRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "language%3Ago")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"total_count":1,"items":[{"full_name":"octo/widgets","stargazers_count":42,"language":"Go"}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	repos, err := p.Trending(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "octo/widgets", repos[0].Name)
	assert.Equal(t, 42, repos[0].Stars)
}

func TestListApprovalsUsesLatestReviewStatePerUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/widgets/pulls/7/reviews", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[
			{"user":{"login":"alice"},"state":"CHANGES_REQUESTED"},
			{"user":{"login":"alice"},"state":"APPROVED"},
			{"user":{"login":"bob"},"state":"COMMENTED"}
		]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	approvals, err := p.ListApprovals(context.Background(), "octo/widgets", 7)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, "alice", approvals[0].Username)
}

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":1,"login":"alice","name":"Alice"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	u, err := p.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestListUserEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/events", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"id":"1","type":"PushEvent","created_at":"` + time.Now().Format(time.RFC3339) + `","repo":{"name":"octo/widgets"}}]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	events, err := p.ListUserEvents(context.Background(), &domain.User{Username: "alice"}, time.Now().AddDate(0, 0, -7), nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "PushEvent", events[0].Action)
}

func TestOwnerRepoRejectsInvalidProject(t *testing.T) {
	_, _, err := ownerRepo("not-a-valid-project")
	require.Error(t, err)
}

func TestLintPipelineIsLocalParse(t *testing.T) {
	p := newTestProvider(t, "https://api.github.test")

	result, err := p.LintPipeline(context.Background(), "octo/widgets", "name: ci\non: push\n")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	badResult, err := p.LintPipeline(context.Background(), "octo/widgets", "name: ci\n  bad indent: [oops\n")
	require.NoError(t, err)
	assert.False(t, badResult.Valid)
}
