// Package github implements internal/provider.Provider against the GitHub
// REST API, mirroring internal/provider/gitlab's structure (spec.md §4.7).
// It unmarshals into github.com/google/go-github/v57/github response
// structs purely as JSON schemas: every request flows through
// internal/engine, never through go-github's own *http.Client, so the
// cache/throttle/retry pipeline always applies.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/denchenko/gitar/internal/core/domain"
	"github.com/denchenko/gitar/internal/engine"
	"github.com/denchenko/gitar/internal/grerror"
	"github.com/denchenko/gitar/internal/paginator"
	"github.com/denchenko/gitar/internal/provider"
)

// Provider implements provider.Provider for GitHub.
type Provider struct {
	eng      *engine.Engine
	baseURL  string
	maxPages func(category string) int
}

// New builds a GitHub Provider. baseURL is the REST API root, e.g.
// "https://api.github.com".
func New(eng *engine.Engine, baseURL string, maxPages func(category string) int) *Provider {
	return &Provider{eng: eng, baseURL: strings.TrimRight(baseURL, "/"), maxPages: maxPages}
}

func (p *Provider) Name() domain.Provider { return domain.GitHub }

func (p *Provider) CurrentUser(ctx context.Context) (*domain.User, error) {
	u, err := provider.FetchJSON[gh.User](ctx, p.eng, "GET", p.apiURL("/user", nil), string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainUser(u), nil
}

func (p *Provider) ListUserEvents(ctx context.Context, user *domain.User, since time.Time, till *time.Time) ([]*domain.Event, error) {
	first := p.apiURL(fmt.Sprintf("/users/%s/events", user.Username), nil)

	raw, err := provider.FetchPages[gh.Event](ctx, p.eng, first, string(domain.CategorySinglePage), provider.PageRange{}, p.maxPages(string(domain.CategorySinglePage)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Event, 0, len(raw))
	for i := range raw {
		e := &raw[i]
		createdAt := e.GetCreatedAt().Time
		if createdAt.Before(since) {
			continue
		}
		if till != nil && createdAt.After(*till) {
			continue
		}

		repo := e.GetRepo()

		out = append(out, &domain.Event{
			ID:          int(mustParseInt64(e.GetID())),
			Action:      e.GetType(),
			TargetType:  e.GetType(),
			ProjectPath: repo.GetName(),
			CreatedAt:   createdAt,
		})
	}

	return out, nil
}

// mustParseInt64 parses go-github's string event IDs, defaulting to 0 on a
// malformed ID rather than failing the whole activity listing.
func mustParseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

func (p *Provider) apiURL(path string, query url.Values) string {
	u := p.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	return u
}

// ownerRepo splits GitHub's "owner/repo" project convention. Unlike GitLab,
// GitHub has no numeric project ID path form.
func ownerRepo(project string) (owner, repo string, err error) {
	parts := strings.SplitN(project, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", grerror.New(grerror.Config, fmt.Sprintf("invalid GitHub project %q, want owner/repo", project))
	}

	return parts[0], parts[1], nil
}

func toDomainUser(u *gh.User) *domain.User {
	if u == nil {
		return nil
	}

	return &domain.User{ID: int(u.GetID()), Username: u.GetLogin(), Name: u.GetName(), Email: u.GetEmail()}
}

func toDomainMergeRequest(pr *gh.PullRequest) *domain.MergeRequest {
	state := domain.MergeRequestOpen
	switch {
	case pr.GetMerged():
		state = domain.MergeRequestMerged
	case pr.GetState() == "closed":
		state = domain.MergeRequestClosed
	}

	var assignees []*domain.User
	for _, a := range pr.Assignees {
		assignees = append(assignees, toDomainUser(a))
	}

	var reviewers []*domain.User
	for _, r := range pr.RequestedReviewers {
		reviewers = append(reviewers, toDomainUser(r))
	}

	return &domain.MergeRequest{
		ID:          pr.GetNumber(),
		Title:       pr.GetTitle(),
		Description: pr.GetBody(),
		Source:      pr.GetHead().GetRef(),
		Target:      pr.GetBase().GetRef(),
		Author:      toDomainUser(pr.GetUser()),
		Assignees:   assignees,
		Reviewers:   reviewers,
		State:       state,
		Draft:       pr.GetDraft(),
		CreatedAt:   pr.GetCreatedAt().Time,
		UpdatedAt:   pr.GetUpdatedAt().Time,
		WebURL:      pr.GetHTMLURL(),
		Provider:    domain.GitHub,
	}
}

func (p *Provider) ListMergeRequests(ctx context.Context, project string, filter domain.MrFilter, pr provider.PageRange) ([]*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if filter.State != "" {
		q.Set("state", mrStateToGitHub(filter.State))
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), q)

	raw, err := provider.FetchPages[gh.PullRequest](ctx, p.eng, first, string(domain.CategoryMergeRequest), pr, p.maxPages(string(domain.CategoryMergeRequest)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.MergeRequest, 0, len(raw))
	for i := range raw {
		mr := toDomainMergeRequest(&raw[i])
		// GitHub's pulls endpoint has no author/assignee query filter;
		// apply it client-side.
		if filter.Matches(mr) {
			out = append(out, mr)
		}
	}

	domain.SortMergeRequests(out, filter.SortAsc)

	return out, nil
}

func mrStateToGitHub(state domain.MergeRequestState) string {
	switch state {
	case domain.MergeRequestOpen:
		return "open"
	case domain.MergeRequestClosed, domain.MergeRequestMerged:
		return "closed"
	default:
		return "all"
	}
}

func (p *Provider) CreateMergeRequest(ctx context.Context, project string, req provider.MrCreate) (*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	body, marshalErr := json.Marshal(map[string]any{
		"title": req.Title,
		"body":  req.Description,
		"head":  req.Source,
		"base":  req.Target,
		"draft": req.Draft,
	})
	if marshalErr != nil {
		return nil, grerror.Wrap(grerror.Parse, "encoding pull request create body", marshalErr)
	}

	pr, err := provider.FetchJSON[gh.PullRequest](ctx, p.eng, "POST",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(pr), nil
}

func (p *Provider) GetMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	pr, err := provider.FetchJSON[gh.PullRequest](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, id), nil),
		string(domain.CategoryMergeRequest), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(pr), nil
}

func (p *Provider) UpdateMergeRequest(ctx context.Context, project string, id int, patch provider.MrPatch) (*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["body"] = *patch.Description
	}
	if patch.Target != nil {
		fields["base"] = *patch.Target
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, grerror.Wrap(grerror.Parse, "encoding pull request update body", err)
	}

	pr, err := provider.FetchJSON[gh.PullRequest](ctx, p.eng, "PATCH",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, id), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	mr := toDomainMergeRequest(pr)

	if len(patch.ReviewerIDs) > 0 {
		if err := p.requestReviewers(ctx, owner, repo, id, patch.ReviewerIDs); err != nil {
			return mr, err
		}
	}

	return mr, nil
}

func (p *Provider) requestReviewers(ctx context.Context, owner, repo string, id int, reviewerIDs []int) error {
	logins := make([]string, 0, len(reviewerIDs))
	for _, rid := range reviewerIDs {
		logins = append(logins, strconv.Itoa(rid))
	}

	body, _ := json.Marshal(map[string]any{"reviewers": logins})

	_, err := p.eng.Fetch(ctx, engine.Request{
		Method: "POST",
		URL:    p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d/requested_reviewers", owner, repo, id), nil),
		Body:   body,
	}, string(domain.CategoryMergeRequest), 0)

	return err
}

func (p *Provider) CloseMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]any{"state": "closed"})

	pr, err := provider.FetchJSON[gh.PullRequest](ctx, p.eng, "PATCH",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, id), nil),
		string(domain.CategoryMergeRequest), body, 0)
	if err != nil {
		return nil, err
	}

	return toDomainMergeRequest(pr), nil
}

func (p *Provider) MergeMergeRequest(ctx context.Context, project string, id int) (*domain.MergeRequest, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	_, err = p.eng.Fetch(ctx, engine.Request{
		Method: "PUT",
		URL:    p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", owner, repo, id), nil),
	}, string(domain.CategoryMergeRequest), 0)
	if err != nil {
		return nil, err
	}

	return p.GetMergeRequest(ctx, project, id)
}

func (p *Provider) ApproveMergeRequest(ctx context.Context, project string, id int) error {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]any{"event": "APPROVE"})

	_, err = p.eng.Fetch(ctx, engine.Request{
		Method: "POST",
		URL:    p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, id), nil),
		Body:   body,
	}, string(domain.CategoryMergeRequest), 0)

	return err
}

// ListApprovals reports reviewers whose latest, non-dismissed review state
// is APPROVED, since GitHub has no single approvals endpoint the way
// GitLab does (grounded on the teacher pack's spiffcs-triage
// getPRReviewState, which collapses the same review list to one state per
// user).
func (p *Provider) ListApprovals(ctx context.Context, project string, id int) ([]*domain.User, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/pulls/%d/reviews", owner, repo, id), nil)

	reviews, err := provider.FetchPages[gh.PullRequestReview](ctx, p.eng, first, string(domain.CategoryMergeRequest), provider.PageRange{}, p.maxPages(string(domain.CategoryMergeRequest)), 0)
	if err != nil {
		return nil, err
	}

	latestUser := make(map[string]*gh.User, len(reviews))
	latestState := make(map[string]string, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		state := r.GetState()
		if state == "" || state == "COMMENTED" || state == "PENDING" {
			continue
		}
		login := r.GetUser().GetLogin()
		latestUser[login] = r.GetUser()
		latestState[login] = state
	}

	var out []*domain.User
	for login, state := range latestState {
		if state == "APPROVED" {
			out = append(out, toDomainUser(latestUser[login]))
		}
	}

	return out, nil
}

func (p *Provider) ListComments(ctx context.Context, project string, mrID int) ([]*domain.Comment, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, mrID), nil)

	raw, err := provider.FetchPages[gh.IssueComment](ctx, p.eng, first, string(domain.CategoryMergeRequest), provider.PageRange{}, p.maxPages(string(domain.CategoryMergeRequest)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Comment, 0, len(raw))
	for i := range raw {
		c := &raw[i]
		out = append(out, &domain.Comment{
			ID:        int(c.GetID()),
			Body:      c.GetBody(),
			Author:    toDomainUser(c.GetUser()),
			CreatedAt: c.GetCreatedAt().Time,
			WebURL:    c.GetHTMLURL(),
		})
	}

	return out, nil
}

func (p *Provider) CreateComment(ctx context.Context, project string, mrID int, body string) (*domain.Comment, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	reqBody, _ := json.Marshal(map[string]any{"body": body})

	c, err := provider.FetchJSON[gh.IssueComment](ctx, p.eng, "POST",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/issues/%d/comments", owner, repo, mrID), nil),
		string(domain.CategoryMergeRequest), reqBody, 0)
	if err != nil {
		return nil, err
	}

	return &domain.Comment{
		ID:        int(c.GetID()),
		Body:      c.GetBody(),
		Author:    toDomainUser(c.GetUser()),
		CreatedAt: c.GetCreatedAt().Time,
		WebURL:    c.GetHTMLURL(),
	}, nil
}

// workflowRunsResponse mirrors GitHub Actions' list-runs envelope, which
// wraps the array in an object rather than returning it bare.
type workflowRunsResponse struct {
	WorkflowRuns []*gh.WorkflowRun `json:"workflow_runs"`
}

func (p *Provider) ListPipelines(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Pipeline, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/actions/runs", owner, repo), nil)

	pages, err := paginator.Fetch(ctx, p.eng, first, string(domain.CategoryPipeline), paginator.Range{From: pr.From, To: pr.To}, p.maxPages(string(domain.CategoryPipeline)), 0)
	if err != nil {
		return nil, err
	}

	var out []*domain.Pipeline
	for _, page := range pages {
		if len(page.Body) == 0 {
			continue
		}

		var resp workflowRunsResponse
		if err := json.Unmarshal(page.Body, &resp); err != nil {
			return nil, grerror.Wrap(grerror.Parse, "decoding workflow runs page", err)
		}

		for _, run := range resp.WorkflowRuns {
			out = append(out, toDomainPipeline(run))
		}
	}

	return out, nil
}

func toDomainPipeline(run *gh.WorkflowRun) *domain.Pipeline {
	return &domain.Pipeline{
		ID:        int(run.GetID()),
		Status:    run.GetStatus(),
		Ref:       run.GetHeadBranch(),
		SHA:       run.GetHeadSHA(),
		CreatedAt: run.GetCreatedAt().Time,
		UpdatedAt: run.GetUpdatedAt().Time,
		WebURL:    run.GetHTMLURL(),
		Provider:  domain.GitHub,
	}
}

func (p *Provider) GetPipeline(ctx context.Context, project string, id int) (*domain.Pipeline, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	run, err := provider.FetchJSON[gh.WorkflowRun](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/actions/runs/%d", owner, repo, id), nil),
		string(domain.CategoryPipeline), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainPipeline(run), nil
}

// LintPipeline parses yamlContent locally; GitHub Actions exposes no
// server-side YAML validation endpoint either (spec.md §4.7).
func (p *Provider) LintPipeline(ctx context.Context, project string, yamlContent string) (*provider.LintResult, error) {
	return provider.LintYAML(yamlContent)
}

// runnersResponse mirrors GitHub Actions' list-runners envelope.
type runnersResponse struct {
	Runners []*gh.Runner `json:"runners"`
}

func (p *Provider) ListRunners(ctx context.Context, project string, status domain.RunnerStatus) ([]*domain.Runner, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	resp, err := provider.FetchJSON[runnersResponse](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/actions/runners", owner, repo), nil),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Runner, 0, len(resp.Runners))
	for _, r := range resp.Runners {
		runner := toDomainRunner(r)
		if status == "" || runner.Status == status {
			out = append(out, runner)
		}
	}

	return out, nil
}

func toDomainRunner(r *gh.Runner) *domain.Runner {
	status := domain.RunnerOffline
	if r.GetStatus() == "online" {
		status = domain.RunnerOnline
	}

	var tags []string
	for _, l := range r.Labels {
		tags = append(tags, l.GetName())
	}

	return &domain.Runner{
		ID:       int(r.GetID()),
		Name:     r.GetName(),
		Status:   status,
		Tags:     tags,
		Provider: domain.GitHub,
	}
}

func (p *Provider) GetRunner(ctx context.Context, project string, id int) (*domain.Runner, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	r, err := provider.FetchJSON[gh.Runner](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/actions/runners/%d", owner, repo, id), nil),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainRunner(r), nil
}

func (p *Provider) MergedCI(ctx context.Context, project string) ([]byte, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	listing, err := provider.FetchJSON[[]gh.RepositoryContent](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/contents/.github/workflows", owner, repo), nil),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}
	if len(*listing) == 0 {
		return nil, grerror.New(grerror.NotFound, "no workflow files found")
	}

	first := (*listing)[0]

	content, err := provider.FetchJSON[gh.RepositoryContent](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, first.GetPath()), nil),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	raw, decodeErr := content.GetContent()
	if decodeErr != nil {
		return nil, grerror.Wrap(grerror.Parse, "decoding workflow content", decodeErr)
	}

	return []byte(raw), nil
}

func (p *Provider) GetProject(ctx context.Context, path string) (*domain.Project, error) {
	owner, repo, err := ownerRepo(path)
	if err != nil {
		return nil, err
	}

	repository, err := provider.FetchJSON[gh.Repository](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s", owner, repo), nil),
		string(domain.CategoryProject), nil, 0)
	if err != nil {
		return nil, err
	}

	return &domain.Project{
		ID:            int(repository.GetID()),
		Namespace:     owner,
		Name:          repository.GetName(),
		Path:          repository.GetFullName(),
		DefaultBranch: repository.GetDefaultBranch(),
		WebURL:        repository.GetHTMLURL(),
		Provider:      domain.GitHub,
	}, nil
}

func (p *Provider) ListMembers(ctx context.Context, project string) ([]*domain.User, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/collaborators", owner, repo), nil)

	raw, err := provider.FetchPages[gh.User](ctx, p.eng, first, string(domain.CategoryProject), provider.PageRange{}, p.maxPages(string(domain.CategoryProject)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.User, 0, len(raw))
	for i := range raw {
		out = append(out, toDomainUser(&raw[i]))
	}

	return out, nil
}

func (p *Provider) ListReleases(ctx context.Context, project string, pr provider.PageRange) ([]*domain.Release, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/repos/%s/%s/releases", owner, repo), nil)

	raw, err := provider.FetchPages[gh.RepositoryRelease](ctx, p.eng, first, string(domain.CategoryRelease), pr, p.maxPages(string(domain.CategoryRelease)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Release, 0, len(raw))
	for i := range raw {
		out = append(out, toDomainRelease(&raw[i]))
	}

	return out, nil
}

func toDomainRelease(rel *gh.RepositoryRelease) *domain.Release {
	var assets []domain.ReleaseAsset
	for _, a := range rel.Assets {
		assets = append(assets, domain.ReleaseAsset{Name: a.GetName(), URL: a.GetBrowserDownloadURL()})
	}

	return &domain.Release{
		ID:        int(rel.GetID()),
		Tag:       rel.GetTagName(),
		Name:      rel.GetName(),
		CreatedAt: rel.GetCreatedAt().Time,
		Assets:    assets,
		Provider:  domain.GitHub,
	}
}

func (p *Provider) ListReleaseAssets(ctx context.Context, project string, tag string) ([]domain.ReleaseAsset, error) {
	owner, repo, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	rel, err := provider.FetchJSON[gh.RepositoryRelease](ctx, p.eng, "GET",
		p.apiURL(fmt.Sprintf("/repos/%s/%s/releases/tags/%s", owner, repo, url.PathEscape(tag)), nil),
		string(domain.CategoryRelease), nil, 0)
	if err != nil {
		return nil, err
	}

	return toDomainRelease(rel).Assets, nil
}

// GitHub scopes container packages to the owning organization or user, not
// to a single repository, so container operations key off project's owner
// segment only.
func (p *Provider) ListContainerRepos(ctx context.Context, project string) ([]*domain.ContainerRepo, error) {
	owner, _, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	q := url.Values{"package_type": {"container"}}

	first := p.apiURL(fmt.Sprintf("/orgs/%s/packages", owner), q)

	raw, err := provider.FetchPages[gh.Package](ctx, p.eng, first, string(domain.CategoryContainerRegistry), provider.PageRange{}, p.maxPages(string(domain.CategoryContainerRegistry)), 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ContainerRepo, 0, len(raw))
	for i := range raw {
		pkg := &raw[i]
		out = append(out, &domain.ContainerRepo{ID: int(pkg.GetID()), Path: pkg.GetName(), Location: pkg.GetHTMLURL()})
	}

	return out, nil
}

func (p *Provider) findContainerPackageName(ctx context.Context, owner string, repoID int) (string, error) {
	repos, err := p.ListContainerRepos(ctx, owner+"/_")
	if err != nil {
		return "", err
	}

	for _, r := range repos {
		if r.ID == repoID {
			return r.Path, nil
		}
	}

	return "", grerror.New(grerror.NotFound, fmt.Sprintf("container package %d not found for %s", repoID, owner))
}

func (p *Provider) ListContainerTags(ctx context.Context, project string, repoID int) ([]*domain.ContainerTag, error) {
	owner, _, err := ownerRepo(project)
	if err != nil {
		return nil, err
	}

	name, err := p.findContainerPackageName(ctx, owner, repoID)
	if err != nil {
		return nil, err
	}

	first := p.apiURL(fmt.Sprintf("/orgs/%s/packages/container/%s/versions", owner, url.PathEscape(name)), nil)

	raw, err := provider.FetchPages[gh.PackageVersion](ctx, p.eng, first, string(domain.CategoryRepositoryTags), provider.PageRange{}, p.maxPages(string(domain.CategoryRepositoryTags)), 0)
	if err != nil {
		return nil, err
	}

	var out []*domain.ContainerTag
	for i := range raw {
		out = append(out, toDomainContainerTags(&raw[i])...)
	}

	return out, nil
}

func toDomainContainerTags(v *gh.PackageVersion) []*domain.ContainerTag {
	metadata := v.GetMetadata()
	if metadata == nil || metadata.Container == nil || len(metadata.Container.Tags) == 0 {
		return []*domain.ContainerTag{{Name: v.GetName(), Digest: v.GetName()}}
	}

	out := make([]*domain.ContainerTag, 0, len(metadata.Container.Tags))
	for _, tag := range metadata.Container.Tags {
		out = append(out, &domain.ContainerTag{Name: tag, Digest: v.GetName()})
	}

	return out
}

func (p *Provider) ImageMetadata(ctx context.Context, project string, repoID int, tagName string) (*domain.ContainerTag, error) {
	tags, err := p.ListContainerTags(ctx, project, repoID)
	if err != nil {
		return nil, err
	}

	for _, t := range tags {
		if t.Name == tagName {
			return t, nil
		}
	}

	return nil, grerror.New(grerror.NotFound, fmt.Sprintf("tag %q not found", tagName))
}

// searchRepositoriesResponse mirrors GitHub's search envelope.
type searchRepositoriesResponse struct {
	Items []*gh.Repository `json:"items"`
}

func (p *Provider) Trending(ctx context.Context, language string) ([]*domain.TrendingRepo, error) {
	q := url.Values{
		"q":        {fmt.Sprintf("language:%s", language)},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {"25"},
	}

	resp, err := provider.FetchJSON[searchRepositoriesResponse](ctx, p.eng, "GET",
		p.apiURL("/search/repositories", q),
		string(domain.CategorySinglePage), nil, 0)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.TrendingRepo, 0, len(resp.Items))
	for _, repo := range resp.Items {
		out = append(out, &domain.TrendingRepo{
			Name:        repo.GetFullName(),
			Description: repo.GetDescription(),
			Language:    repo.GetLanguage(),
			Stars:       repo.GetStargazersCount(),
			WebURL:      repo.GetHTMLURL(),
		})
	}

	return out, nil
}
