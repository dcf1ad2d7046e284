// Package gitlab implements internal/provider.Provider against the GitLab
// REST v4 API, grounded on the teacher's
// adapters/secondary/repository/gitlab Repository (same method set,
// generalized to the provider interface) and on
// gitlab.com/gitlab-org/api/client-go's response structs, reused purely as
// JSON unmarshal targets because every request must flow through
// internal/engine's cache/throttle/retry pipeline rather than the SDK's own
// HTTP client (spec.md §4.7).
package gitlab

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/provider"
)

const apiPrefix = "/api/v4"

// Provider implements provider.Provider for GitLab.
type Provider struct {
	eng      *engine.Engine
	baseURL  string
	maxPages func(category string) int
}

// New builds a GitLab Provider. baseURL is the instance root, e.g.
// "https://gitlab.com". maxPages resolves a category's configured
// max_pages_api (spec.md §3).
func New(eng *engine.Engine, baseURL string, maxPages func(category string) int) *Provider {
	return &Provider{eng: eng, baseURL: strings.TrimRight(baseURL, "/"), maxPages: maxPages}
}

func (p *Provider) Name() domain.Provider { return domain.GitLab }

func (p *Provider) CurrentUser(ctx context.Context) (*domain.User, error) {
	u, err := provider.FetchJSON[gitlab.User](ctx, p.eng, "GET", p.apiURL("/user", nil), string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainUser(u), nil
}

func (p *Provider) ListUserEvents(ctx context.Context, user *domain.User, since time.Time, till *time.Time) ([]*domain.Event, error) {
	q := url.Values{"after": {since.Format("2006-01-02")}}
	if till != nil {
		q.Set("before", till.Format("2006-01-02"))
	}

	first := p.apiURL(fmt.Sprintf("/users/%d/events", user.ID), q)

	raw, err := provider.FetchPages[gitlab.ContributionEvent](ctx, p.eng, first, string(domain.CategorySinglePage), provider.PageRange{}, p.maxPages(string(domain.CategorySinglePage)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Event, 0, len(raw))
	for i := range raw {
		e := &raw[i]
		out = append(out, &domain.Event{
			ID:          e.ID,
			Action:      e.ActionName,
			TargetType:  e.TargetType,
			TargetTitle: e.TargetTitle,
			ProjectPath: strconv.Itoa(e.ProjectID),
			CreatedAt:   zeroTimeIfNil(e.CreatedAt),
		})
	}

	return out, nil
}

func (p *Provider) apiURL(path string, query url.Values) string {
	u := p.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// projectSegment URL-encodes a "group/project" path the way GitLab expects
// it embedded in a URL path segment (%2F-encoded), or passes a numeric ID
// through unchanged.
func projectSegment(project string) string {
	if _, err := strconv.Atoi(project); err == nil {
		return project
	}

	return url.QueryEscape(project)
}

func toDomainUser(u *gitlab.User) *domain.User {
	if u == nil {
		return nil
	}

	return &domain.User{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email}
}

func toDomainUserFromBasic(u *gitlab.BasicUser) *domain.User {
	if u == nil {
		return nil
	}

	return &domain.User{ID: u.ID, Username: u.Username, Name: u.Name}
}

func toDomainMergeRequest(mr *gitlab.MergeRequest) *domain.MergeRequest {
	state := domain.MergeRequestOpen
	switch mr.State {
	case "closed":
		state = domain.MergeRequestClosed
	case "merged":
		state = domain.MergeRequestMerged
	}

	var assignees []*domain.User
	for _, a := range mr.Assignees {
		assignees = append(assignees, &domain.User{ID: a.ID, Username: a.Username, Name: a.Name})
	}

	var reviewers []*domain.User
	for _, r := range mr.Reviewers {
		reviewers = append(reviewers, &domain.User{ID: r.ID, Username: r.Username, Name: r.Name})
	}

	var createdAt, updatedAt = zeroTimeIfNil(mr.CreatedAt), zeroTimeIfNil(mr.UpdatedAt)

	return &domain.MergeRequest{
		ID:          mr.ID,
		Title:       mr.Title,
		Description: mr.Description,
		Source:      mr.SourceBranch,
		Target:      mr.TargetBranch,
		Author:      toDomainUserFromBasic(mr.Author),
		Assignees:   assignees,
		Reviewers:   reviewers,
		State:       state,
		Draft:       mr.Draft,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		WebURL:      mr.WebURL,
		ProjectID:   mr.ProjectID,
		Provider:    domain.GitLab,
	}
}

func (p *Provider) ListMergeRequests(ctx context.Context, project string, filter domain.MrFilter, pr provider.PageRange) ([]*domain.MergeRequest, error) {
	q := url.Values{}
	if filter.State != "" {
		q.Set("state", mrStateToGitLab(filter.State))
	}
	if filter.Author != "" {
		q.Set("author_username", filter.Author)
	}
	if filter.Assignee != "" {
		q.Set("assignee_username", filter.Assignee)
	}

	first := p.apiURL(fmt.Sprintf("/projects/%s/merge_requests", projectSegment(project)), q)

	raw, err := provider.FetchPages[gitlab.MergeRequest](ctx, p.eng, first, string(domain.CategoryMergeRequest), pr, p.maxPages(string(domain.CategoryMergeRequest)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.MergeRequest, 0, len(raw))
	for i := range raw {
		out = append(out, toDomainMergeRequest(&raw[i]))
	}

	domain.SortMergeRequests(out, filter.SortAsc)

	return out, nil
}

func mrStateToGitLab(state domain.MergeRequestState) string {
	switch state {
	case domain.MergeRequestOpen:
		return "opened"
	case domain.MergeRequestClosed:
		return "closed"
	case domain.MergeRequestMerged:
		return "merged"
	default:
		return ""
	}
}

func (p *Provider) CreateMergeRequest(ctx context.Context, project string, req provider.MrCreate) (*domain.MergeRequest, error) {
	body, err := json.Marshal(map[string]any{
		"title":            req.Title,
		"description":      req.Description,
		"source_branch":    req.Source,
		"target_branch":    req.Target,
		"assignee_id":      nonZeroOrNil(req.AssigneeID),
		"reviewer_ids":     req.ReviewerIDs,
	})
	if err != nil {
		return nil, grerror.Wrap(grerror.Parse, "encoding merge request create body", err)
	}

	mr, err := provider.FetchJSON[gitlab.MergeRequest](ctx, p.eng, "POST",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests", projectSegment(project)), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(mr), nil
}

func (p *Provider) GetMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	mr, err := provider.FetchJSON[gitlab.MergeRequest](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d", projectSegment(project), id), nil),
		string(domain.CategoryMergeRequest), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(mr), nil
}

func (p *Provider) UpdateMergeRequest(ctx context.Context, project string, id int, patch provider.MrPatch) (*domain.MergeRequest, error) {
	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.AssigneeID != nil {
		fields["assignee_id"] = *patch.AssigneeID
	}
	if patch.Target != nil {
		fields["target_branch"] = *patch.Target
	}
	if len(patch.ReviewerIDs) > 0 {
		fields["reviewer_ids"] = patch.ReviewerIDs
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, grerror.Wrap(grerror.Parse, "encoding merge request update body", err)
	}

	mr, err := provider.FetchJSON[gitlab.MergeRequest](ctx, p.eng, "PUT",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d", projectSegment(project), id), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(mr), nil
}

func (p *Provider) CloseMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	body, _ := json.Marshal(map[string]any{"state_event": "close"})

	mr, err := provider.FetchJSON[gitlab.MergeRequest](ctx, p.eng, "PUT",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d", projectSegment(project), id), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(mr), nil
}

func (p *Provider) MergeMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	mr, err := provider.FetchJSON[gitlab.MergeRequest](ctx, p.eng, "PUT",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d/merge", projectSegment(project), id), nil),
		string(domain.CategoryMergeRequest), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(mr), nil
}

func (p *Provider) ApproveMergeRequest(ctx context.Context, project string, id int) error {
	_, err := p.eng.Fetch(ctx, engine.Request{
		Method: "POST",
		URL:    p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d/approve", projectSegment(project), id), nil),
	}, string(domain.CategoryMergeRequest), 0)

	return err
}

// approvalState mirrors GitLab's merge request approvals response shape.
type approvalState struct {
	ApprovedBy []struct {
		User gitlab.User `json:"user"`
	} `json:"approved_by"`
}

func (p *Provider) ListApprovals(ctx context.Context, project string, id int) ([]*domain.User, error) {
	state, err := provider.FetchJSON[approvalState](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d/approvals", projectSegment(project), id), nil),
		string(domain.CategoryMergeRequest), nil, 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(state.ApprovedBy))
	for _, a := range state.ApprovedBy {
		out = append(out, &domain.User{ID: a.User.ID, Username: a.User.Username, Name: a.User.Name})
	}

	return out, nil
}

func (p *Provider) ListComments(ctx context.Context, project string, mrID int) ([]*domain.Comment, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d/notes", projectSegment(project), mrID), nil)

	raw, err := provider.FetchPages[gitlab.Note](ctx, p.eng, first, string(domain.CategoryMergeRequest), provider.PageRange{}, p.maxPages(string(domain.CategoryMergeRequest)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Comment, 0, len(raw))
	for i := range raw {
		n := &raw[i]
		out = append(out, &domain.Comment{
			ID:        n.ID,
			Body:      n.Body,
			Author:    &domain.User{ID: n.Author.ID, Username: n.Author.Username, Name: n.Author.Name},
			CreatedAt: zeroTimeIfNil(n.CreatedAt),
		})
	}

	return out, nil
}

func (p *Provider) CreateComment(ctx context.Context, project string, mrID int, body string) (*domain.Comment, error) {
	reqBody, _ := json.Marshal(map[string]any{"body": body})

	note, err := provider.FetchJSON[gitlab.Note](ctx, p.eng, "POST",
		p.apiURL(fmt.Sprintf("/projects/%s/merge_requests/%d/notes", projectSegment(project), mrID), nil),
		string(domain.CategoryMergeRequest), reqBody, 0)
	if err != nil {
		return nil, err
	}

	return &domain.Comment{
		ID:        note.ID,
		Body:      note.Body,
		Author:    &domain.User{ID: note.Author.ID, Username: note.Author.Username, Name: note.Author.Name},
		CreatedAt: zeroTimeIfNil(note.CreatedAt),
	}, nil
}

func (p *Provider) ListPipelines(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Pipeline, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/pipelines", projectSegment(project)), nil)

	raw, err := provider.FetchPages[gitlab.PipelineInfo](ctx, p.eng, first, string(domain.CategoryPipeline), pr, p.maxPages(string(domain.CategoryPipeline)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Pipeline, 0, len(raw))
	for i := range raw {
		pl := &raw[i]
		out = append(out, &domain.Pipeline{
			ID:       pl.ID,
			Status:   pl.Status,
			Ref:      pl.Ref,
			SHA:      pl.SHA,
			WebURL:   pl.WebURL,
			Provider: domain.GitLab,
		})
	}

	return out, nil
}

func (p *Provider) GetPipeline(ctx context.Context, project string, id int) (*domain.Pipeline, error) {
	pl, err := provider.FetchJSON[gitlab.Pipeline](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/pipelines/%d", projectSegment(project), id), nil),
		string(domain.CategoryPipeline), nil, 0)
	if err != nil {
		return nil, err
	}

	return &domain.Pipeline{
		ID:        pl.ID,
		Status:    pl.Status,
		Ref:       pl.Ref,
		SHA:       pl.SHA,
		CreatedAt: zeroTimeIfNil(pl.CreatedAt),
		UpdatedAt: zeroTimeIfNil(pl.UpdatedAt),
		WebURL:    pl.WebURL,
		Provider:  domain.GitLab,
	}, nil
}

// lintResponse mirrors the GitLab CI lint endpoint response shape; it is
// not part of client-go's public types, so it is defined locally.
type lintResponse struct {
	Valid      bool     `json:"valid"`
	Errors     []string `json:"errors"`
	MergedYAML string   `json:"merged_yaml"`
}

// LintPipeline parses yamlContent locally; no provider in this spec
// validates pipeline YAML over HTTP (spec.md §4.7).
func (p *Provider) LintPipeline(ctx context.Context, project string, yamlContent string) (*provider.LintResult, error) {
	return provider.LintYAML(yamlContent)
}

func (p *Provider) ListRunners(ctx context.Context, project string, status domain.RunnerStatus) ([]*domain.Runner, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}

	first := p.apiURL(fmt.Sprintf("/projects/%s/runners", projectSegment(project)), q)

	raw, err := provider.FetchPages[gitlab.Runner](ctx, p.eng, first, string(domain.CategorySinglePage), provider.PageRange{}, p.maxPages(string(domain.CategorySinglePage)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Runner, 0, len(raw))
	for i := range raw {
		r := &raw[i]
		out = append(out, &domain.Runner{
			ID:       r.ID,
			Name:     r.Name,
			Status:   domain.RunnerStatus(r.Status),
			Provider: domain.GitLab,
		})
	}

	return out, nil
}

func (p *Provider) GetRunner(ctx context.Context, project string, id int) (*domain.Runner, error) {
	r, err := provider.FetchJSON[gitlab.RunnerDetails](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/runners/%d", id), nil),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	return &domain.Runner{
		ID:       r.ID,
		Name:     r.Name,
		Status:   domain.RunnerStatus(r.Status),
		Tags:     r.TagList,
		Provider: domain.GitLab,
	}, nil
}

func (p *Provider) MergedCI(ctx context.Context, project string) ([]byte, error) {
	fileResp, err := provider.FetchJSON[gitlab.File](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/repository/files/.gitlab-ci.yml", projectSegment(project)), url.Values{"ref": {"HEAD"}}),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	decoded, decodeErr := decodeBase64(fileResp.Content)
	if decodeErr != nil {
		return nil, grerror.Wrap(grerror.Parse, "decoding .gitlab-ci.yml content", decodeErr)
	}

	body, _ := json.Marshal(map[string]any{"content": string(decoded), "include_merged_yaml": true})

	result, err := provider.FetchJSON[lintResponse](ctx, p.eng, "POST",
		p.apiURL(fmt.Sprintf("/projects/%s/ci/lint", projectSegment(project)), nil),
		string(domain.CategorySinglePage), body, 0)
	if err != nil {
		return nil, err
	}

	return []byte(result.MergedYAML), nil
}

func (p *Provider) GetProject(ctx context.Context, path string) (*domain.Project, error) {
	proj, err := provider.FetchJSON[gitlab.Project](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s", projectSegment(path)), nil),
		string(domain.CategoryProject), nil, 0)
	if err != nil {
		return nil, err
	}

	projPath := proj.PathWithNamespace
	if projPath == "" {
		projPath = proj.Path
	}

	return &domain.Project{
		ID:            proj.ID,
		Namespace:     strings.TrimSuffix(projPath, "/"+proj.Path),
		Name:          proj.Name,
		Path:          projPath,
		DefaultBranch: proj.DefaultBranch,
		WebURL:        proj.WebURL,
		Provider:      domain.GitLab,
	}, nil
}

func (p *Provider) ListMembers(ctx context.Context, project string) ([]*domain.User, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/members/all", projectSegment(project)), nil)

	raw, err := provider.FetchPages[gitlab.ProjectMember](ctx, p.eng, first, string(domain.CategoryProject), provider.PageRange{}, p.maxPages(string(domain.CategoryProject)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(raw))
	for i := range raw {
		m := &raw[i]
		out = append(out, &domain.User{ID: m.ID, Username: m.Username, Name: m.Name})
	}

	return out, nil
}

func (p *Provider) ListReleases(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Release, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/releases", projectSegment(project)), nil)

	raw, err := provider.FetchPages[gitlab.Release](ctx, p.eng, first, string(domain.CategoryRelease), pr, p.maxPages(string(domain.CategoryRelease)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Release, 0, len(raw))
	for i := range raw {
		rel := &raw[i]
		out = append(out, toDomainRelease(rel))
	}

	return out, nil
}

func toDomainRelease(rel *gitlab.Release) *domain.Release {
	var assets []domain.ReleaseAsset
	for _, l := range rel.Assets.Links {
		assets = append(assets, domain.ReleaseAsset{Name: l.Name, URL: l.URL})
	}

	return &domain.Release{
		ID:        0,
		Tag:       rel.TagName,
		Name:      rel.Name,
		CreatedAt: zeroTimeIfNil(rel.CreatedAt),
		Assets:    assets,
		Provider:  domain.GitLab,
	}
}

func (p *Provider) ListReleaseAssets(ctx context.Context, project string, tag string) ([]domain.ReleaseAsset, error) {
	rel, err := provider.FetchJSON[gitlab.Release](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/releases/%s", projectSegment(project), url.PathEscape(tag)), nil),
		string(domain.CategoryRelease), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainRelease(rel).Assets, nil
}

func (p *Provider) ListContainerRepos(ctx context.Context, project string) ([]*domain.ContainerRepo, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/registry/repositories", projectSegment(project)), nil)

	raw, err := provider.FetchPages[gitlab.RegistryRepository](ctx, p.eng, first, string(domain.CategoryContainerRegistry), provider.PageRange{}, p.maxPages(string(domain.CategoryContainerRegistry)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ContainerRepo, 0, len(raw))
	for i := range raw {
		r := &raw[i]
		out = append(out, &domain.ContainerRepo{ID: r.ID, Path: r.Path, Location: r.Location})
	}

	return out, nil
}

func (p *Provider) ListContainerTags(ctx context.Context, project string, repoID int) ([]*domain.ContainerTag, error) {
	first := p.apiURL(fmt.Sprintf("/projects/%s/registry/repositories/%d/tags", projectSegment(project), repoID), nil)

	raw, err := provider.FetchPages[gitlab.RegistryRepositoryTag](ctx, p.eng, first, string(domain.CategoryRepositoryTags), provider.PageRange{}, p.maxPages(string(domain.CategoryRepositoryTags)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ContainerTag, 0, len(raw))
	for i := range raw {
		t := &raw[i]
		out = append(out, &domain.ContainerTag{Name: t.Name, Location: t.Location})
	}

	return out, nil
}

func (p *Provider) ImageMetadata(ctx context.Context, project string, repoID int, tagName string) (*domain.ContainerTag, error) {
	t, err := provider.FetchJSON[gitlab.RegistryRepositoryTag](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/projects/%s/registry/repositories/%d/tags/%s", projectSegment(project), repoID, url.PathEscape(tagName)), nil),
		string(domain.CategoryRepositoryTags), nil, 0)
	if err != nil {
		return nil, err
	}

	return &domain.ContainerTag{
		Name:     t.Name,
		Digest:   t.Digest,
		Location: t.Location,
		SizeByte: int64(t.TotalSize),
	}, nil
}

// Trending is GitHub-only (spec.md §4.7).
func (p *Provider) Trending(ctx context.Context, language string) ([]*domain.TrendingRepo, error) {
	return nil, grerror.Unsupportedf(string(domain.GitLab), "trending")
}

func zeroTimeIfNil(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

func nonZeroOrNil(v int) *int {
	if v == 0 {
		return nil
	}

	return &v
}

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
