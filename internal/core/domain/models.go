// Package domain holds provider-neutral entities and filters. Pure data, no
// I/O: values flow unchanged between callers and provider adapters.
package domain

import "time"

// Provider names the code-hosting service an entity came from. Recorded for
// display only; it never participates in comparisons.
type Provider string

const (
	GitLab Provider = "gitlab"
	GitHub Provider = "github"
)

// MergeRequestState is the provider-neutral lifecycle of a merge/pull request.
type MergeRequestState string

const (
	MergeRequestOpen   MergeRequestState = "open"
	MergeRequestClosed MergeRequestState = "closed"
	MergeRequestMerged MergeRequestState = "merged"
)

type User struct {
	ID       int
	Username string
	Name     string
	Email    string
}

type MergeRequest struct {
	ID          int
	Title       string
	Description string
	Source      string
	Target      string
	Author      *User
	Assignees   []*User
	Reviewers   []*User
	State       MergeRequestState
	Draft       bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	WebURL      string
	ProjectID   int
	Provider    Provider
}

// MergeRequestWithStatus enriches a MergeRequest with the review-priority
// signals the `my` verb sorts on, grounded on the teacher's
// MergeRequestWithStatus.
type MergeRequestWithStatus struct {
	*MergeRequest
	ApprovalCount    int
	IsStalled        bool
	IsCurrentBranch  bool
	IsCurrentProject bool
}

type Comment struct {
	ID        int
	Body      string
	Author    *User
	CreatedAt time.Time
	WebURL    string
}

type Pipeline struct {
	ID        int
	Status    string
	Ref       string
	SHA       string
	CreatedAt time.Time
	UpdatedAt time.Time
	WebURL    string
	Provider  Provider
}

type Project struct {
	ID            int
	Namespace     string
	Name          string
	Path          string
	DefaultBranch string
	Members       []*User
	WebURL        string
	Provider      Provider
}

type ReleaseAsset struct {
	Name string
	URL  string
}

type Release struct {
	ID        int
	Tag       string
	Name      string
	CreatedAt time.Time
	Assets    []ReleaseAsset
	Provider  Provider
}

type ContainerRepo struct {
	ID       int
	Path     string
	Location string
}

type ContainerTag struct {
	Name     string
	Digest   string
	Location string
	SizeByte int64
}

// RunnerStatus is the provider-neutral status of a CI runner.
type RunnerStatus string

const (
	RunnerOnline  RunnerStatus = "online"
	RunnerOffline RunnerStatus = "offline"
	RunnerStale   RunnerStatus = "stale"
)

type Runner struct {
	ID       int
	Name     string
	Status   RunnerStatus
	Tags     []string
	Provider Provider
}

// Event is an activity-feed entry for a user, used by the `my activity` verb.
type Event struct {
	ID          int
	Action      string
	TargetType  string
	TargetTitle string
	ProjectPath string
	CreatedAt   time.Time
	WebURL      string
}

// TrendingRepo is a GitHub-only trending-repository entry (§4.7: GitLab
// returns unsupported for this operation).
type TrendingRepo struct {
	Name        string
	Description string
	Language    string
	Stars       int
	WebURL      string
}
