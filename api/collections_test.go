package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func sampleTimesheets() []Timesheet {
	return []Timesheet{
		{ID: "t1", SupportWorkerID: "w1", WorkerName: "Ana Silva", ParticipantName: "Joe", Status: "approved", Hours: 4, Date: day(1)},
		{ID: "t2", SupportWorkerID: "w2", WorkerName: "Ben Ng", ParticipantName: "Kim", Status: "pending", Hours: 8, Date: day(3)},
		{ID: "t3", SupportWorkerID: "w1", WorkerName: "Ana Silva", ParticipantName: "Kim", Status: "pending", Hours: 6, Date: day(2)},
		{ID: "t4", SupportWorkerID: "w3", WorkerName: "Cleo Park", ParticipantName: "Joe", Status: "rejected", Hours: 2, Date: day(5)},
	}
}

func ids(items []Timesheet) []string {
	out := make([]string, 0, len(items))
	for _, t := range items {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterTimesheetsDefaultsToNewestFirst(t *testing.T) {
	page := FilterTimesheets(sampleTimesheets(), TimesheetFilter{})
	assert.Equal(t, []string{"t4", "t2", "t3", "t1"}, ids(page.Items))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestFilterTimesheetsCombinesFilters(t *testing.T) {
	page := FilterTimesheets(sampleTimesheets(), TimesheetFilter{
		Status:   "PENDING",
		WorkerID: "w1",
	})
	assert.Equal(t, []string{"t3"}, ids(page.Items))

	page = FilterTimesheets(sampleTimesheets(), TimesheetFilter{From: day(2), To: day(3), SortBy: "date"})
	assert.Equal(t, []string{"t3", "t2"}, ids(page.Items))
}

func TestFilterTimesheetsSearchAndSort(t *testing.T) {
	page := FilterTimesheets(sampleTimesheets(), TimesheetFilter{Search: "kim", SortBy: "-hours"})
	assert.Equal(t, []string{"t2", "t3"}, ids(page.Items))

	page = FilterTimesheets(sampleTimesheets(), TimesheetFilter{SortBy: "worker,-date"})
	assert.Equal(t, []string{"t3", "t1", "t2", "t4"}, ids(page.Items))
}

func TestFilterTimesheetsPaginates(t *testing.T) {
	page := FilterTimesheets(sampleTimesheets(), TimesheetFilter{SortBy: "date", Page: 2, PageSize: 3})
	assert.Equal(t, []string{"t4"}, ids(page.Items))
	assert.Equal(t, 2, page.Pages)

	page = FilterTimesheets(sampleTimesheets(), TimesheetFilter{Page: 9, PageSize: 3})
	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Total)
}

func TestFilterAdmins(t *testing.T) {
	admins := []Admin{
		{ID: "a1", FirstName: "zoe", LastName: "Quinn", Email: "zoe@example.org", Role: "owner", Active: true},
		{ID: "a2", FirstName: "Adam", LastName: "Baker", Email: "adam@example.org", Role: "admin", Active: false},
		{ID: "a3", FirstName: "Mia", LastName: "Chen", Email: "mia@example.org", Role: "admin", Active: true},
	}

	page := FilterAdmins(admins, AdminFilter{})
	require.Len(t, page.Items, 3)
	assert.Equal(t, "a2", page.Items[0].ID)
	assert.Equal(t, "a1", page.Items[2].ID)

	page = FilterAdmins(admins, AdminFilter{Role: "admin", ActiveOnly: true})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a3", page.Items[0].ID)

	page = FilterAdmins(admins, AdminFilter{Search: "EXAMPLE.org zoe"})
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a1", page.Items[0].ID)
}
