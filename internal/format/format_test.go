package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denchenko/gitar/internal/core/domain"
)

func sampleTable() Table {
	return Table{
		Title:   "Merge Requests",
		Headers: []string{"ID", "Title"},
		Rows: [][]string{
			{"1", "first"},
			{"2", "second"},
		},
	}
}

func TestRenderPlain(t *testing.T) {
	out, err := Render(Plain, sampleTable())

	require.NoError(t, err)
	assert.Contains(t, out, "Merge Requests")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "┌─")
	assert.Contains(t, out, "└")
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(CSV, sampleTable())

	require.NoError(t, err)
	assert.Equal(t, "ID,Title\n1,first\n2,second\n", out)
}

func TestRenderPipe(t *testing.T) {
	out, err := Render(Pipe, sampleTable())

	require.NoError(t, err)
	assert.Equal(t, "ID|Title\n1|first\n2|second", out)
}

func TestRenderTOML(t *testing.T) {
	out, err := Render(TOML, sampleTable())

	require.NoError(t, err)
	assert.Contains(t, out, "[[entry]]")
	assert.Contains(t, out, `ID = "1"`)
	assert.Contains(t, out, `Title = "first"`)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(Kind("xml"), sampleTable())
	require.Error(t, err)
}

func TestMergeRequestsTable(t *testing.T) {
	mrs := []*domain.MergeRequest{
		{ID: 1, Title: "fix bug", State: domain.MergeRequestOpen, Author: &domain.User{Username: "alice"}},
	}

	tbl := MergeRequestsTable(mrs)

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "1", tbl.Rows[0][0])
	assert.Equal(t, "alice", tbl.Rows[0][3])
}

func TestMergeRequestsWithStatusTable_StatusBadge(t *testing.T) {
	mrs := []*domain.MergeRequestWithStatus{
		{MergeRequest: &domain.MergeRequest{ID: 1, Title: "a"}, IsStalled: true},
		{MergeRequest: &domain.MergeRequest{ID: 2, Title: "b"}, ApprovalCount: 2},
		{MergeRequest: &domain.MergeRequest{ID: 3, Title: "c"}},
	}

	tbl := MergeRequestsWithStatusTable(mrs)

	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "stalled", tbl.Rows[0][5])
	assert.Equal(t, "ready-to-merge", tbl.Rows[1][5])
	assert.Equal(t, "", tbl.Rows[2][5])
}

func TestEventsTable(t *testing.T) {
	events := []*domain.Event{
		{ProjectPath: "group/project", Action: "pushed to", TargetType: "branch", CreatedAt: time.Now()},
	}

	tbl := EventsTable(events)

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "group/project", tbl.Rows[0][0])
	assert.Equal(t, "pushed to", tbl.Rows[0][1])
}

func TestJoinUsernames(t *testing.T) {
	assert.Equal(t, "none", joinUsernames(nil))
	assert.Equal(t, "alice, bob", joinUsernames([]*domain.User{{Username: "alice"}, {Username: "bob"}}))
}

func TestTruncateDescription(t *testing.T) {
	short := "a short description"
	assert.Equal(t, short, truncateDescription(short))

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	result := truncateDescription(string(long))
	assert.True(t, len(result) < len(long))
	assert.Contains(t, result, "...")
}
