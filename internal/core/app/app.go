// Package app composes business logic over internal/provider.Provider,
// generalized from the teacher's GitLab-only Repository port to the
// provider-neutral capability set (spec.md's "capability set keyed by
// provider tag", §9). cmd/gr resolves which Provider a given invocation
// needs (by project domain) and hands it to App; App itself never knows
// which provider it is talking to beyond what Provider.Name() reports.
package app

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/provider"
)

const workingDaysThreshold = 3

// App wraps a single resolved Provider with the cross-cutting logic CLI
// verbs need on top of it: git discovery, review-priority sorting, and
// the `my` queries.
type App struct {
	provider provider.Provider
}

// New builds an App over provider p.
func New(p provider.Provider) *App {
	return &App{provider: p}
}

// Provider exposes the underlying capability set for callers (e.g. cmd/gr)
// that need direct pass-through access.
func (a *App) Provider() provider.Provider {
	return a.provider
}

func (a *App) GetProject(ctx context.Context, path string) (*domain.Project, error) {
	project, err := a.provider.GetProject(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (a *App) ListMergeRequests(ctx context.Context, project string, filter domain.MrFilter, pr provider.PageRange) ([]*domain.MergeRequest, error) {
	mrs, err := a.provider.ListMergeRequests(ctx, project, filter, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge requests: %w", err)
	}

	return mrs, nil
}

func (a *App) GetMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	mr, err := a.provider.GetMergeRequest(ctx, project, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get merge request: %w", err)
	}

	return mr, nil
}

// GetMergeRequestByBranch finds the open merge request whose source branch
// matches branch, picking the most recently updated one if several match.
func (a *App) GetMergeRequestByBranch(ctx context.Context, project, branch string) (*domain.MergeRequest, error) {
	mrs, err := a.provider.ListMergeRequests(ctx, project, domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to list merge requests: %w", err)
	}

	var matching []*domain.MergeRequest
	for _, mr := range mrs {
		if mr.Source == branch {
			matching = append(matching, mr)
		}
	}

	if len(matching) == 0 {
		return nil, fmt.Errorf("no merge request found for branch %s", branch)
	}

	sort.Slice(matching, func(i, j int) bool {
		return matching[i].UpdatedAt.After(matching[j].UpdatedAt)
	})

	return matching[0], nil
}

func (a *App) CreateMergeRequest(ctx context.Context, project string, req provider.MrCreate) (*domain.MergeRequest, error) {
	mr, err := a.provider.CreateMergeRequest(ctx, project, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}

	return mr, nil
}

func (a *App) UpdateMergeRequest(ctx context.Context, project string, id int, patch provider.MrPatch) (*domain.MergeRequest, error) {
	mr, err := a.provider.UpdateMergeRequest(ctx, project, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update merge request: %w", err)
	}

	return mr, nil
}

func (a *App) CloseMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	mr, err := a.provider.CloseMergeRequest(ctx, project, id)
	if err != nil {
		return nil, fmt.Errorf("failed to close merge request: %w", err)
	}

	return mr, nil
}

func (a *App) MergeMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	mr, err := a.provider.MergeMergeRequest(ctx, project, id)
	if err != nil {
		return nil, fmt.Errorf("failed to merge merge request: %w", err)
	}

	return mr, nil
}

func (a *App) ApproveMergeRequest(ctx context.Context, project string, id int) error {
	if err := a.provider.ApproveMergeRequest(ctx, project, id); err != nil {
		return fmt.Errorf("failed to approve merge request: %w", err)
	}

	return nil
}

func (a *App) ListComments(ctx context.Context, project string, mrID int) ([]*domain.Comment, error) {
	comments, err := a.provider.ListComments(ctx, project, mrID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (a *App) CreateComment(ctx context.Context, project string, mrID int, body string) (*domain.Comment, error) {
	comment, err := a.provider.CreateComment(ctx, project, mrID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return comment, nil
}

func (a *App) ListPipelines(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Pipeline, error) {
	pipelines, err := a.provider.ListPipelines(ctx, project, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}

	return pipelines, nil
}

func (a *App) GetPipeline(ctx context.Context, project string, id int) (*domain.Pipeline, error) {
	pipeline, err := a.provider.GetPipeline(ctx, project, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}

	return pipeline, nil
}

func (a *App) LintPipeline(ctx context.Context, project, yaml string) (*provider.LintResult, error) {
	result, err := a.provider.LintPipeline(ctx, project, yaml)
	if err != nil {
		return nil, fmt.Errorf("failed to lint pipeline: %w", err)
	}

	return result, nil
}

func (a *App) ListRunners(ctx context.Context, project string, status domain.RunnerStatus) ([]*domain.Runner, error) {
	runners, err := a.provider.ListRunners(ctx, project, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list runners: %w", err)
	}

	return runners, nil
}

func (a *App) GetRunner(ctx context.Context, project string, id int) (*domain.Runner, error) {
	runner, err := a.provider.GetRunner(ctx, project, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get runner: %w", err)
	}

	return runner, nil
}

func (a *App) MergedCI(ctx context.Context, project string) ([]byte, error) {
	yaml, err := a.provider.MergedCI(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve merged CI config: %w", err)
	}

	return yaml, nil
}

func (a *App) ListMembers(ctx context.Context, project string) ([]*domain.User, error) {
	members, err := a.provider.ListMembers(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

func (a *App) ListReleases(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Release, error) {
	releases, err := a.provider.ListReleases(ctx, project, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}

	return releases, nil
}

func (a *App) ListReleaseAssets(ctx context.Context, project, tag string) ([]domain.ReleaseAsset, error) {
	assets, err := a.provider.ListReleaseAssets(ctx, project, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list release assets: %w", err)
	}

	return assets, nil
}

func (a *App) ListContainerRepos(ctx context.Context, project string) ([]*domain.ContainerRepo, error) {
	repos, err := a.provider.ListContainerRepos(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to list container repositories: %w", err)
	}

	return repos, nil
}

func (a *App) ListContainerTags(ctx context.Context, project string, repoID int) ([]*domain.ContainerTag, error) {
	tags, err := a.provider.ListContainerTags(ctx, project, repoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list container tags: %w", err)
	}

	return tags, nil
}

func (a *App) ImageMetadata(ctx context.Context, project string, repoID int, tag string) (*domain.ContainerTag, error) {
	meta, err := a.provider.ImageMetadata(ctx, project, repoID, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to get image metadata: %w", err)
	}

	return meta, nil
}

func (a *App) Trending(ctx context.Context, language string) ([]*domain.TrendingRepo, error) {
	repos, err := a.provider.Trending(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending repositories: %w", err)
	}

	return repos, nil
}

// GetCurrentProjectInfo reads the current directory's git remote and
// branch, then resolves the project through the provider (kept from the
// teacher's identically named method, host-agnostic already since it only
// parses the remote URL's trailing path segment).
func (a *App) GetCurrentProjectInfo(ctx context.Context) (*domain.Project, string, error) {
	remoteURL, err := gitOutput(ctx, "remote", "get-url", "origin")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get remote URL: %w", err)
	}

	branch, err := gitOutput(ctx, "branch", "--show-current")
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if branch == "" {
		return nil, "", errors.New("failed to get current branch")
	}

	projectPath, err := projectPathFromRemote(remoteURL)
	if err != nil {
		return nil, "", err
	}

	project, err := a.provider.GetProject(ctx, projectPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get project: %w", err)
	}

	return project, branch, nil
}

func gitOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(output)), nil
}

const urlPartsCount = 2

func projectPathFromRemote(remoteURL string) (string, error) {
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(strings.TrimSuffix(remoteURL, ".git"), ":")
		if len(parts) != urlPartsCount {
			return "", errors.New("invalid SSH remote URL format")
		}

		return parts[1], nil
	}

	parts := strings.Split(strings.TrimSuffix(remoteURL, ".git"), "/")
	if len(parts) < urlPartsCount {
		return "", errors.New("invalid HTTPS remote URL format")
	}

	return strings.Join(parts[len(parts)-2:], "/"), nil
}

// GetCurrentMRURL builds the URL to open a new merge/pull request for the
// current branch, using each provider's own compose-URL convention.
func (a *App) GetCurrentMRURL(ctx context.Context) (string, error) {
	remoteURL, err := gitOutput(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("failed to get remote URL: %w", err)
	}

	branch, err := gitOutput(ctx, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if branch == "" {
		return "", errors.New("failed to get current branch")
	}

	webURL := httpsRemote(remoteURL)

	switch a.provider.Name() {
	case domain.GitHub:
		return fmt.Sprintf("%s/compare/%s?expand=1", webURL, branch), nil
	default:
		return fmt.Sprintf("%s/-/merge_requests/new?merge_request[source_branch]=%s", webURL, branch), nil
	}
}

func httpsRemote(remoteURL string) string {
	if !strings.HasPrefix(remoteURL, "git@") {
		return strings.TrimSuffix(remoteURL, ".git")
	}

	remoteURL = strings.Replace(remoteURL, ":", "/", 1)
	remoteURL = strings.Replace(remoteURL, "git@", "https://", 1)

	return strings.TrimSuffix(remoteURL, ".git")
}

// SortMergeRequestsByPriority orders merge requests so the current
// branch's MR sorts first, then the current project's, then most
// recently updated (kept from the teacher's identically named method).
func (a *App) SortMergeRequestsByPriority(mrs []*domain.MergeRequestWithStatus) []*domain.MergeRequestWithStatus {
	sorted := make([]*domain.MergeRequestWithStatus, len(mrs))
	copy(sorted, mrs)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].IsCurrentBranch != sorted[j].IsCurrentBranch {
			return sorted[i].IsCurrentBranch
		}
		if sorted[i].IsCurrentProject != sorted[j].IsCurrentProject {
			return sorted[i].IsCurrentProject
		}

		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})

	return sorted
}

func (a *App) enrichWithStatus(ctx context.Context, project string, mrs []*domain.MergeRequest, currentProjectID int, currentBranch string) []*domain.MergeRequestWithStatus {
	threshold := subtractWorkingDays(time.Now(), workingDaysThreshold)

	out := make([]*domain.MergeRequestWithStatus, 0, len(mrs))
	for _, mr := range mrs {
		approvals, err := a.provider.ListApprovals(ctx, project, mr.ID)
		if err != nil {
			approvals = nil
		}

		out = append(out, &domain.MergeRequestWithStatus{
			MergeRequest:     mr,
			ApprovalCount:    len(approvals),
			IsStalled:        mr.UpdatedAt.Before(threshold),
			IsCurrentBranch:  currentBranch != "" && mr.Source == currentBranch,
			IsCurrentProject: currentProjectID != 0 && mr.ProjectID == currentProjectID,
		})
	}

	return out
}

// GetMergeRequestsWithStatus lists a project's open merge requests
// enriched with review-priority signals.
func (a *App) GetMergeRequestsWithStatus(ctx context.Context, project string) ([]*domain.MergeRequestWithStatus, error) {
	mrs, err := a.provider.ListMergeRequests(ctx, project, domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to get merge requests: %w", err)
	}

	var currentProjectID int
	var currentBranch string
	if currentProject, branch, err := a.GetCurrentProjectInfo(ctx); err == nil {
		currentProjectID = currentProject.ID
		currentBranch = branch
	}

	withStatus := a.enrichWithStatus(ctx, project, mrs, currentProjectID, currentBranch)

	return a.SortMergeRequestsByPriority(withStatus), nil
}

func isUserApprover(approvals []*domain.User, userID int) bool {
	for _, u := range approvals {
		if u.ID == userID {
			return true
		}
	}

	return false
}

func isMRRelevantForReview(mr *domain.MergeRequest, currentUser *domain.User) bool {
	if mr.Draft {
		return false
	}
	if mr.Author != nil && mr.Author.ID == currentUser.ID {
		return false
	}

	for _, a := range mr.Assignees {
		if a.ID == currentUser.ID {
			return true
		}
	}
	for _, r := range mr.Reviewers {
		if r.ID == currentUser.ID {
			return true
		}
	}

	return false
}

// GetMyReviewWorkloadWithStatus lists the merge requests awaiting the
// authenticated user's review across project, enriched and sorted the
// same way GetMergeRequestsWithStatus is (kept from the teacher's
// identically named method, generalized off the domain-wide MR list to a
// single project since provider.Provider scopes listing by project).
func (a *App) GetMyReviewWorkloadWithStatus(ctx context.Context, project string) ([]*domain.MergeRequestWithStatus, error) {
	currentUser, err := a.provider.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	mrs, err := a.provider.ListMergeRequests(ctx, project, domain.MrFilter{State: domain.MergeRequestOpen}, provider.PageRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to get merge requests: %w", err)
	}

	var currentProjectID int
	var currentBranch string
	if currentProject, branch, err := a.GetCurrentProjectInfo(ctx); err == nil {
		currentProjectID = currentProject.ID
		currentBranch = branch
	}

	threshold := subtractWorkingDays(time.Now(), workingDaysThreshold)

	var withStatus []*domain.MergeRequestWithStatus
	for _, mr := range mrs {
		if !isMRRelevantForReview(mr, currentUser) {
			continue
		}

		approvals, err := a.provider.ListApprovals(ctx, project, mr.ID)
		if err != nil {
			approvals = nil
		}
		if isUserApprover(approvals, currentUser.ID) {
			continue
		}

		withStatus = append(withStatus, &domain.MergeRequestWithStatus{
			MergeRequest:     mr,
			ApprovalCount:    len(approvals),
			IsStalled:        mr.UpdatedAt.Before(threshold),
			IsCurrentBranch:  currentBranch != "" && mr.Source == currentBranch,
			IsCurrentProject: currentProjectID != 0 && mr.ProjectID == currentProjectID,
		})
	}

	return a.SortMergeRequestsByPriority(withStatus), nil
}

// GetMyActivity retrieves the current user's activity events within the
// given time range (kept from the teacher's identically named method).
func (a *App) GetMyActivity(ctx context.Context, since time.Time, till *time.Time) ([]*domain.Event, error) {
	currentUser, err := a.provider.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	events, err := a.provider.ListUserEvents(ctx, currentUser, since, till)
	if err != nil {
		return nil, fmt.Errorf("failed to get user events: %w", err)
	}

	return events, nil
}

func subtractWorkingDays(date time.Time, days int) time.Time {
	result := date
	subtracted := 0

	for subtracted < days {
		result = result.AddDate(0, 0, -1)
		if result.Weekday() != time.Saturday && result.Weekday() != time.Sunday {
			subtracted++
		}
	}

	return result
}
