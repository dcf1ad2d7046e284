// Package provider defines gitar's provider-abstraction layer (spec.md
// §4.7, C7): one polymorphic capability set implemented once per
// code-hosting service. It is grounded on the teacher's
// adapters/secondary/repository Repository interface, generalized from a
// single GitLab implementation to the {GitLab, GitHub} variant set named in
// api_traits.rs (MergeRequest/RemoteProject/Cicd traits) in the original
// gitar.
package provider

import (
	"context"
	"time"

	"github.com/denchenko/gitar/internal/core/domain"
)

// MrPatch is a partial update to a merge request (spec.md §4.7 `update`).
type MrPatch struct {
	Title       *string
	Description *string
	AssigneeID  *int
	ReviewerIDs []int
	Target      *string
}

// MrCreate is the input to creating a merge/pull request.
type MrCreate struct {
	Title       string
	Description string
	Source      string
	Target      string
	AssigneeID  int
	ReviewerIDs []int
	Draft       bool
}

// LintResult is the outcome of client-side pipeline YAML validation.
type LintResult struct {
	Valid  bool
	Errors []LintError
}

// LintError is one syntax error found while linting pipeline YAML.
type LintError struct {
	Line    int
	Message string
}

// Provider is the capability set a code-hosting service must implement
// (spec.md §4.7). Every method issues its requests through
// internal/engine, never through a vendor SDK's own HTTP client, so that
// cache/throttle/retry policy always applies.
type Provider interface {
	Name() domain.Provider

	// CurrentUser resolves the identity behind the configured token.
	CurrentUser(ctx context.Context) (*domain.User, error)
	// ListUserEvents backs the `my activity` verb. user carries both ID and
	// Username since GitLab keys its events endpoint by numeric ID and
	// GitHub by username.
	ListUserEvents(ctx context.Context, user *domain.User, since time.Time, till *time.Time) ([]*domain.Event, error)

	// Merge/pull requests.
	ListMergeRequests(ctx context.Context, project string, filter domain.MrFilter, pageRange PageRange) ([]*domain.MergeRequest, error)
	CreateMergeRequest(ctx context.Context, project string, req MrCreate) (*domain.MergeRequest, error)
	GetMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error)
	UpdateMergeRequest(ctx context.Context, project string, id int, patch MrPatch) (*domain.MergeRequest, error)
	CloseMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error)
	MergeMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error)
	ApproveMergeRequest(ctx context.Context, project string, id int) error
	// ListApprovals reports who currently approves the merge/pull request
	// (GitLab approvals, GitHub latest review state per user).
	ListApprovals(ctx context.Context, project string, id int) ([]*domain.User, error)
	ListComments(ctx context.Context, project string, mrID int) ([]*domain.Comment, error)
	CreateComment(ctx context.Context, project string, mrID int, body string) (*domain.Comment, error)

	// Pipelines/actions.
	ListPipelines(ctx context.Context, project string, pageRange PageRange) ([]*domain.Pipeline, error)
	GetPipeline(ctx context.Context, project string, id int) (*domain.Pipeline, error)
	LintPipeline(ctx context.Context, project string, yaml string) (*LintResult, error)
	ListRunners(ctx context.Context, project string, status domain.RunnerStatus) ([]*domain.Runner, error)
	GetRunner(ctx context.Context, project string, id int) (*domain.Runner, error)
	MergedCI(ctx context.Context, project string) ([]byte, error)

	// Projects.
	GetProject(ctx context.Context, path string) (*domain.Project, error)
	ListMembers(ctx context.Context, project string) ([]*domain.User, error)

	// Releases.
	ListReleases(ctx context.Context, project string, pageRange PageRange) ([]*domain.Release, error)
	ListReleaseAssets(ctx context.Context, project string, tag string) ([]domain.ReleaseAsset, error)

	// Container registry.
	ListContainerRepos(ctx context.Context, project string) ([]*domain.ContainerRepo, error)
	ListContainerTags(ctx context.Context, project string, repoID int) ([]*domain.ContainerTag, error)
	ImageMetadata(ctx context.Context, project string, repoID int, tagName string) (*domain.ContainerTag, error)

	// Trending is GitHub-only; GitLab returns grerror.Unsupported (spec.md §4.7).
	Trending(ctx context.Context, language string) ([]*domain.TrendingRepo, error)
}

// PageRange mirrors paginator.Range at the provider boundary, avoiding an
// import cycle between internal/provider and internal/paginator (the CLI
// layer wires them together).
type PageRange struct {
	From int
	To   int
	// NumPagesOnly short-circuits to a page count per spec.md §4.6.
	NumPagesOnly bool
}
