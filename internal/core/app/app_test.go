package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/provider"
	"github.com/denchenko/gitar/internal/provider/mocks"
)

func TestApp_GetProject(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	expected := &domain.Project{ID: 1, Path: "group/project"}
	p.On("GetProject", ctx, "group/project").Return(expected, nil)

	project, err := app.GetProject(ctx, "group/project")

	require.NoError(t, err)
	assert.Equal(t, expected, project)
	p.AssertExpectations(t)
}

func TestApp_GetMergeRequest(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	expected := &domain.MergeRequest{ID: 2, Title: "Test MR"}
	p.On("GetMergeRequest", ctx, "group/project", 2).Return(expected, nil)

	mr, err := app.GetMergeRequest(ctx, "group/project", 2)

	require.NoError(t, err)
	assert.Equal(t, expected, mr)
	p.AssertExpectations(t)
}

func TestApp_GetMergeRequestByBranch(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	now := time.Now()
	mrs := []*domain.MergeRequest{
		{ID: 1, Source: "other", UpdatedAt: now},
		{ID: 2, Source: "feature", UpdatedAt: now.Add(-1 * time.Hour)},
		{ID: 3, Source: "feature", UpdatedAt: now},
	}
	p.On("ListMergeRequests", ctx, "group/project", domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{}).Return(mrs, nil)

	mr, err := app.GetMergeRequestByBranch(ctx, "group/project", "feature")

	require.NoError(t, err)
	assert.Equal(t, 3, mr.ID)
	p.AssertExpectations(t)
}

func TestApp_GetMergeRequestByBranch_NotFound(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	p.On("ListMergeRequests", ctx, "group/project", domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{}).
		Return([]*domain.MergeRequest{}, nil)

	mr, err := app.GetMergeRequestByBranch(ctx, "group/project", "feature")

	require.Error(t, err)
	assert.Nil(t, mr)
}

func TestApp_ApproveMergeRequest(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	p.On("ApproveMergeRequest", ctx, "group/project", 7).Return(nil)

	err := app.ApproveMergeRequest(ctx, "group/project", 7)

	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestApp_SortMergeRequestsByPriority(t *testing.T) {
	app := New(&mocks.MockProvider{})

	now := time.Now()
	mrs := []*domain.MergeRequestWithStatus{
		{MergeRequest: &domain.MergeRequest{ID: 1, UpdatedAt: now.Add(-1 * time.Hour)}},
		{MergeRequest: &domain.MergeRequest{ID: 2, UpdatedAt: now.Add(-2 * time.Hour)}, IsCurrentBranch: true, IsCurrentProject: true},
		{MergeRequest: &domain.MergeRequest{ID: 3, UpdatedAt: now}, IsCurrentProject: true},
	}

	sorted := app.SortMergeRequestsByPriority(mrs)

	require.Len(t, sorted, 3)
	assert.Equal(t, 2, sorted[0].ID)
	assert.Equal(t, 3, sorted[1].ID)
	assert.Equal(t, 1, sorted[2].ID)
}

func TestApp_GetMergeRequestsWithStatus(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	mrs := []*domain.MergeRequest{
		{ID: 1, ProjectID: 1, Source: "main", UpdatedAt: time.Now().Add(-7 * 24 * time.Hour)},
	}

	p.On("ListMergeRequests", mock.Anything, "group/project", domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{}).Return(mrs, nil)
	p.On("ListApprovals", mock.Anything, "group/project", 1).Return([]*domain.User{}, nil)

	withStatus, err := app.GetMergeRequestsWithStatus(ctx, "group/project")

	require.NoError(t, err)
	require.Len(t, withStatus, 1)
	assert.True(t, withStatus[0].IsStalled)
	p.AssertExpectations(t)
}

func TestApp_GetMyReviewWorkloadWithStatus(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	currentUser := &domain.User{ID: 1, Username: "current"}
	now := time.Now()
	mrs := []*domain.MergeRequest{
		{
			ID: 1, ProjectID: 1, Author: &domain.User{ID: 2},
			Assignees: []*domain.User{currentUser}, UpdatedAt: now.Add(-1 * time.Hour),
		},
		{
			ID: 2, ProjectID: 1, Author: &domain.User{ID: 3},
			Reviewers: []*domain.User{currentUser}, UpdatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID: 3, ProjectID: 1, Author: currentUser,
			Assignees: []*domain.User{currentUser},
		},
		{
			ID: 4, ProjectID: 1, Author: &domain.User{ID: 4},
			Assignees: []*domain.User{currentUser}, Draft: true,
		},
		{
			ID: 5, ProjectID: 1, Author: &domain.User{ID: 5},
			Assignees: []*domain.User{currentUser},
		},
	}

	p.On("CurrentUser", mock.Anything).Return(currentUser, nil)
	p.On("ListMergeRequests", mock.Anything, "group/project", domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{}).Return(mrs, nil)
	p.On("ListApprovals", mock.Anything, "group/project", 1).Return([]*domain.User{}, nil)
	p.On("ListApprovals", mock.Anything, "group/project", 2).Return([]*domain.User{}, nil)
	p.On("ListApprovals", mock.Anything, "group/project", 5).Return([]*domain.User{{ID: 1}}, nil)

	withStatus, err := app.GetMyReviewWorkloadWithStatus(ctx, "group/project")

	require.NoError(t, err)
	require.Len(t, withStatus, 2)
}

func TestApp_GetMyActivity(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	currentUser := &domain.User{ID: 1, Username: "current"}
	since := time.Now().AddDate(0, 0, -7)
	events := []*domain.Event{{ID: 1, Action: "pushed to"}}

	p.On("CurrentUser", mock.Anything).Return(currentUser, nil)
	p.On("ListUserEvents", mock.Anything, currentUser, since, (*time.Time)(nil)).Return(events, nil)

	result, err := app.GetMyActivity(ctx, since, nil)

	require.NoError(t, err)
	assert.Equal(t, events, result)
	p.AssertExpectations(t)
}

func TestApp_GetMyActivity_Error(t *testing.T) {
	ctx := context.Background()
	p := &mocks.MockProvider{}
	app := New(p)

	p.On("CurrentUser", mock.Anything).Return(nil, errors.New("unauthorized"))

	result, err := app.GetMyActivity(ctx, time.Now(), nil)

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestIsMRRelevantForReview(t *testing.T) {
	userID := 1

	tests := []struct {
		name     string
		mr       *domain.MergeRequest
		expected bool
	}{
		{
			name:     "draft MR",
			mr:       &domain.MergeRequest{Draft: true, Assignees: []*domain.User{{ID: userID}}},
			expected: false,
		},
		{
			name:     "user is author",
			mr:       &domain.MergeRequest{Author: &domain.User{ID: userID}},
			expected: false,
		},
		{
			name:     "user is assignee",
			mr:       &domain.MergeRequest{Assignees: []*domain.User{{ID: userID}}, Author: &domain.User{ID: 2}},
			expected: true,
		},
		{
			name:     "user is reviewer",
			mr:       &domain.MergeRequest{Reviewers: []*domain.User{{ID: userID}}, Author: &domain.User{ID: 2}},
			expected: true,
		},
		{
			name:     "user uninvolved",
			mr:       &domain.MergeRequest{Author: &domain.User{ID: 2}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isMRRelevantForReview(tt.mr, &domain.User{ID: userID})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsUserApprover(t *testing.T) {
	approvals := []*domain.User{{ID: 1}, {ID: 2}}

	assert.True(t, isUserApprover(approvals, 1))
	assert.False(t, isUserApprover(approvals, 3))
	assert.False(t, isUserApprover(nil, 1))
}

func TestSubtractWorkingDays(t *testing.T) {
	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	result := subtractWorkingDays(monday, 3)
	expected := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, expected.Weekday(), result.Weekday())
	assert.True(t, result.Before(monday))

	result = subtractWorkingDays(monday, 1)
	assert.Equal(t, time.Friday, result.Weekday())

	saturday := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)
	result = subtractWorkingDays(saturday, 1)
	assert.Equal(t, time.Friday, result.Weekday())
}

func TestProjectPathFromRemote(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		expected string
	}{
		{name: "ssh", remote: "git@github.com:octo/widgets.git", expected: "octo/widgets"},
		{name: "https", remote: "https://github.com/octo/widgets.git", expected: "octo/widgets"},
		{name: "https no suffix", remote: "https://gitlab.example.com/group/sub/project", expected: "sub/project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := projectPathFromRemote(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, path)
		})
	}
}

func TestHttpsRemote(t *testing.T) {
	assert.Equal(t, "https://github.com/octo/widgets", httpsRemote("git@github.com:octo/widgets.git"))
	assert.Equal(t, "https://gitlab.example.com/group/project", httpsRemote("https://gitlab.example.com/group/project.git"))
}
