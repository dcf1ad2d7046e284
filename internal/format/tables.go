package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/denchenko/gitar/internal/core/domain"
)

const (
	descriptionMaxLen = 100
	descriptionTrunc  = 97
	minApprovalCount  = 2
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format("2006-01-02 15:04:05")
}

func joinUsernames(users []*domain.User) string {
	if len(users) == 0 {
		return "none"
	}

	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}

	return strings.Join(names, ", ")
}

func username(u *domain.User) string {
	if u == nil {
		return ""
	}

	return u.Username
}

func truncateDescription(desc string) string {
	desc = strings.ReplaceAll(desc, "\n", "; ")
	if len(desc) > descriptionMaxLen {
		return desc[:descriptionTrunc] + "..."
	}

	return desc
}

func statusBadge(mr *domain.MergeRequestWithStatus) string {
	switch {
	case mr.IsStalled:
		return "stalled"
	case mr.ApprovalCount >= minApprovalCount:
		return "ready-to-merge"
	default:
		return ""
	}
}

// MergeRequestsTable renders a plain merge-request list (mr list, mr get).
func MergeRequestsTable(mrs []*domain.MergeRequest) Table {
	headers := []string{"ID", "Title", "State", "Author", "Source", "Target", "Updated", "URL"}
	rows := make([][]string, 0, len(mrs))

	for _, mr := range mrs {
		rows = append(rows, []string{
			strconv.Itoa(mr.ID),
			mr.Title,
			string(mr.State),
			username(mr.Author),
			mr.Source,
			mr.Target,
			formatTime(mr.UpdatedAt),
			mr.WebURL,
		})
	}

	return Table{Title: "Merge Requests", Headers: headers, Rows: rows}
}

// MergeRequestsWithStatusTable renders the `my` verb's review-priority view.
func MergeRequestsWithStatusTable(mrs []*domain.MergeRequestWithStatus) Table {
	headers := []string{"ID", "Title", "Author", "Reviewers", "Approvals", "Status", "Updated", "URL"}
	rows := make([][]string, 0, len(mrs))

	for _, mr := range mrs {
		rows = append(rows, []string{
			strconv.Itoa(mr.ID),
			truncateDescription(mr.Title),
			username(mr.Author),
			joinUsernames(mr.Reviewers),
			strconv.Itoa(mr.ApprovalCount),
			statusBadge(mr),
			formatTime(mr.UpdatedAt),
			mr.WebURL,
		})
	}

	return Table{Title: "My Merge Requests", Headers: headers, Rows: rows}
}

// CommentsTable renders a merge/pull request's comment thread.
func CommentsTable(comments []*domain.Comment) Table {
	headers := []string{"ID", "Author", "Created", "Body"}
	rows := make([][]string, 0, len(comments))

	for _, c := range comments {
		rows = append(rows, []string{
			strconv.Itoa(c.ID),
			username(c.Author),
			formatTime(c.CreatedAt),
			truncateDescription(c.Body),
		})
	}

	return Table{Title: "Comments", Headers: headers, Rows: rows}
}

// PipelinesTable renders pp list / pp get.
func PipelinesTable(pipelines []*domain.Pipeline) Table {
	headers := []string{"ID", "Status", "Ref", "SHA", "Updated", "URL"}
	rows := make([][]string, 0, len(pipelines))

	for _, p := range pipelines {
		rows = append(rows, []string{
			strconv.Itoa(p.ID),
			p.Status,
			p.Ref,
			p.SHA,
			formatTime(p.UpdatedAt),
			p.WebURL,
		})
	}

	return Table{Title: "Pipelines", Headers: headers, Rows: rows}
}

// RunnersTable renders pp rn runner listings.
func RunnersTable(runners []*domain.Runner) Table {
	headers := []string{"ID", "Name", "Status", "Tags"}
	rows := make([][]string, 0, len(runners))

	for _, r := range runners {
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Name,
			string(r.Status),
			strings.Join(r.Tags, ", "),
		})
	}

	return Table{Title: "Runners", Headers: headers, Rows: rows}
}

// ProjectsTable renders pj get (a single-row table keeps one output path
// for both the single-project and list forms).
func ProjectsTable(projects []*domain.Project) Table {
	headers := []string{"ID", "Path", "Default Branch", "URL"}
	rows := make([][]string, 0, len(projects))

	for _, p := range projects {
		rows = append(rows, []string{
			strconv.Itoa(p.ID),
			p.Path,
			p.DefaultBranch,
			p.WebURL,
		})
	}

	return Table{Title: "Projects", Headers: headers, Rows: rows}
}

// MembersTable renders pj members.
func MembersTable(members []*domain.User) Table {
	headers := []string{"ID", "Username", "Name", "Email"}
	rows := make([][]string, 0, len(members))

	for _, u := range members {
		rows = append(rows, []string{strconv.Itoa(u.ID), u.Username, u.Name, u.Email})
	}

	return Table{Title: "Members", Headers: headers, Rows: rows}
}

// ReleasesTable renders rl list.
func ReleasesTable(releases []*domain.Release) Table {
	headers := []string{"Tag", "Name", "Created", "Assets"}
	rows := make([][]string, 0, len(releases))

	for _, r := range releases {
		assetNames := make([]string, len(r.Assets))
		for i, a := range r.Assets {
			assetNames[i] = a.Name
		}

		rows = append(rows, []string{
			r.Tag,
			r.Name,
			formatTime(r.CreatedAt),
			strings.Join(assetNames, ", "),
		})
	}

	return Table{Title: "Releases", Headers: headers, Rows: rows}
}

// ReleaseAssetsTable renders rl assets.
func ReleaseAssetsTable(tag string, assets []domain.ReleaseAsset) Table {
	headers := []string{"Name", "URL"}
	rows := make([][]string, 0, len(assets))

	for _, a := range assets {
		rows = append(rows, []string{a.Name, a.URL})
	}

	return Table{Title: "Release Assets " + tag, Headers: headers, Rows: rows}
}

// ContainerReposTable renders dk list.
func ContainerReposTable(repos []*domain.ContainerRepo) Table {
	headers := []string{"ID", "Path", "Location"}
	rows := make([][]string, 0, len(repos))

	for _, r := range repos {
		rows = append(rows, []string{strconv.Itoa(r.ID), r.Path, r.Location})
	}

	return Table{Title: "Container Repositories", Headers: headers, Rows: rows}
}

// ContainerTagsTable renders dk tags.
func ContainerTagsTable(tags []*domain.ContainerTag) Table {
	headers := []string{"Name", "Digest", "Size", "Location"}
	rows := make([][]string, 0, len(tags))

	for _, t := range tags {
		rows = append(rows, []string{
			t.Name,
			t.Digest,
			strconv.FormatInt(t.SizeByte, 10),
			t.Location,
		})
	}

	return Table{Title: "Container Tags", Headers: headers, Rows: rows}
}

// TrendingTable renders tr.
func TrendingTable(repos []*domain.TrendingRepo) Table {
	headers := []string{"Name", "Language", "Stars", "Description", "URL"}
	rows := make([][]string, 0, len(repos))

	for _, r := range repos {
		rows = append(rows, []string{
			r.Name,
			r.Language,
			strconv.Itoa(r.Stars),
			truncateDescription(r.Description),
			r.WebURL,
		})
	}

	return Table{Title: "Trending", Headers: headers, Rows: rows}
}

// EventsTable renders my activity.
func EventsTable(events []*domain.Event) Table {
	headers := []string{"Project", "Action", "Target", "Title", "Created"}
	rows := make([][]string, 0, len(events))

	for _, e := range events {
		rows = append(rows, []string{
			e.ProjectPath,
			e.Action,
			e.TargetType,
			e.TargetTitle,
			formatTime(e.CreatedAt),
		})
	}

	return Table{Title: "Activity", Headers: headers, Rows: rows}
}
