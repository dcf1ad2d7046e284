package domain

import (
	"sort"
	"time"
)

// MrFilter is a value object describing which merge requests a caller wants.
// Zero value matches everything.
type MrFilter struct {
	State         MergeRequestState
	Author        string
	Assignee      string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortAsc       bool
}

// ApiCategory determines a request's TTL, max-pages and cache subdirectory
// (spec.md §3).
type ApiCategory string

const (
	CategoryMergeRequest     ApiCategory = "merge_request"
	CategoryProject          ApiCategory = "project"
	CategoryPipeline         ApiCategory = "pipeline"
	CategoryRelease          ApiCategory = "release"
	CategoryContainerRegistry ApiCategory = "container_registry"
	CategoryRepositoryTags   ApiCategory = "repository_tags"
	CategorySinglePage       ApiCategory = "single_page"
)

// SortMergeRequests orders merge requests by CreatedAt with id as the
// tiebreaker, ascending or descending per the filter (spec.md §4.8).
func SortMergeRequests(mrs []*MergeRequest, sortAsc bool) {
	sort.SliceStable(mrs, func(i, j int) bool {
		if mrs[i].CreatedAt.Equal(mrs[j].CreatedAt) {
			if sortAsc {
				return mrs[i].ID < mrs[j].ID
			}
			return mrs[i].ID > mrs[j].ID
		}
		if sortAsc {
			return mrs[i].CreatedAt.Before(mrs[j].CreatedAt)
		}
		return mrs[i].CreatedAt.After(mrs[j].CreatedAt)
	})
}

// Matches reports whether mr satisfies the filter.
func (f MrFilter) Matches(mr *MergeRequest) bool {
	if f.State != "" && mr.State != f.State {
		return false
	}
	if f.Author != "" && (mr.Author == nil || mr.Author.Username != f.Author) {
		return false
	}
	if f.Assignee != "" && !hasAssignee(mr.Assignees, f.Assignee) {
		return false
	}
	if f.CreatedAfter != nil && mr.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && mr.CreatedAt.After(*f.CreatedBefore) {
		return false
	}

	return true
}

func hasAssignee(assignees []*User, username string) bool {
	for _, a := range assignees {
		if a != nil && a.Username == username {
			return true
		}
	}

	return false
}
