// Package mocks holds a hand-written testify mock of provider.Provider,
// grounded on the teacher's own mocks.MockRepository.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/provider"
)

// MockProvider is a mock implementation of provider.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() domain.Provider {
	args := m.Called()
	return args.Get(0).(domain.Provider)
}

func (m *MockProvider) CurrentUser(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockProvider) ListUserEvents(ctx context.Context, user *domain.User, since time.Time, till *time.Time) ([]*domain.Event, error) {
	args := m.Called(ctx, user, since, till)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockProvider) ListMergeRequests(ctx context.Context, project string, filter domain.MrFilter, pageRange provider.PageRange) ([]*domain.MergeRequest, error) {
	args := m.Called(ctx, project, filter, pageRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) CreateMergeRequest(ctx context.Context, project string, req provider.MrCreate) (*domain.MergeRequest, error) {
	args := m.Called(ctx, project, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) GetMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) UpdateMergeRequest(ctx context.Context, project string, id int, patch provider.MrPatch) (*domain.MergeRequest, error) {
	args := m.Called(ctx, project, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) CloseMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) MergeMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MergeRequest), args.Error(1)
}

func (m *MockProvider) ApproveMergeRequest(ctx context.Context, project string, id int) error {
	args := m.Called(ctx, project, id)
	return args.Error(0)
}

func (m *MockProvider) ListApprovals(ctx context.Context, project string, id int) ([]*domain.User, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockProvider) ListComments(ctx context.Context, project string, mrID int) ([]*domain.Comment, error) {
	args := m.Called(ctx, project, mrID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Comment), args.Error(1)
}

func (m *MockProvider) CreateComment(ctx context.Context, project string, mrID int, body string) (*domain.Comment, error) {
	args := m.Called(ctx, project, mrID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Comment), args.Error(1)
}

func (m *MockProvider) ListPipelines(ctx context.Context, project string, pageRange provider.PageRange) ([]*domain.Pipeline, error) {
	args := m.Called(ctx, project, pageRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Pipeline), args.Error(1)
}

func (m *MockProvider) GetPipeline(ctx context.Context, project string, id int) (*domain.Pipeline, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pipeline), args.Error(1)
}

func (m *MockProvider) LintPipeline(ctx context.Context, project string, yaml string) (*provider.LintResult, error) {
	args := m.Called(ctx, project, yaml)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.LintResult), args.Error(1)
}

func (m *MockProvider) ListRunners(ctx context.Context, project string, status domain.RunnerStatus) ([]*domain.Runner, error) {
	args := m.Called(ctx, project, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Runner), args.Error(1)
}

func (m *MockProvider) GetRunner(ctx context.Context, project string, id int) (*domain.Runner, error) {
	args := m.Called(ctx, project, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Runner), args.Error(1)
}

func (m *MockProvider) MergedCI(ctx context.Context, project string) ([]byte, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProvider) GetProject(ctx context.Context, path string) (*domain.Project, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProvider) ListMembers(ctx context.Context, project string) ([]*domain.User, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockProvider) ListReleases(ctx context.Context, project string, pageRange provider.PageRange) ([]*domain.Release, error) {
	args := m.Called(ctx, project, pageRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Release), args.Error(1)
}

func (m *MockProvider) ListReleaseAssets(ctx context.Context, project string, tag string) ([]domain.ReleaseAsset, error) {
	args := m.Called(ctx, project, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReleaseAsset), args.Error(1)
}

func (m *MockProvider) ListContainerRepos(ctx context.Context, project string) ([]*domain.ContainerRepo, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContainerRepo), args.Error(1)
}

func (m *MockProvider) ListContainerTags(ctx context.Context, project string, repoID int) ([]*domain.ContainerTag, error) {
	args := m.Called(ctx, project, repoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ContainerTag), args.Error(1)
}

func (m *MockProvider) ImageMetadata(ctx context.Context, project string, repoID int, tagName string) (*domain.ContainerTag, error) {
	args := m.Called(ctx, project, repoID, tagName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContainerTag), args.Error(1)
}

func (m *MockProvider) Trending(ctx context.Context, language string) ([]*domain.TrendingRepo, error) {
	args := m.Called(ctx, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TrendingRepo), args.Error(1)
}
