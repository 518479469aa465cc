package api

import (
	"strings"
	"time"

	"github.com/goliatone/go-wizard/query"
)

// TimesheetFilter is the client side view over fetched timesheets.
type TimesheetFilter struct {
	Status   string
	WorkerID string
	From     time.Time
	To       time.Time
	Search   string
	SortBy   string // date, hours, worker, status; prefix with - for descending
	Page     int
	PageSize int
}

// FilterTimesheets filters, sorts and paginates timesheets. The default
// order is newest first.
func FilterTimesheets(items []Timesheet, f TimesheetFilter) query.Page[Timesheet] {
	opts := query.Options[Timesheet]{
		Search: f.Search,
		Haystack: func(t Timesheet) string {
			return strings.Join([]string{t.WorkerName, t.ParticipantName, t.Status, t.Notes}, " ")
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	}
	opts.Filters = append(opts.Filters,
		query.Equal(func(t Timesheet) string { return strings.ToLower(t.Status) }, strings.ToLower(strings.TrimSpace(f.Status))),
		query.Equal(func(t Timesheet) string { return t.SupportWorkerID }, strings.TrimSpace(f.WorkerID)),
		query.Between(func(t Timesheet) time.Time { return t.Date }, f.From, f.To),
	)

	keys := map[string]query.SortKey[Timesheet]{
		"date":   query.ByTime("date", func(t Timesheet) time.Time { return t.Date }),
		"hours":  query.By("hours", func(t Timesheet) float64 { return t.Hours }),
		"worker": query.ByText("worker", func(t Timesheet) string { return t.WorkerName }),
		"status": query.ByText("status", func(t Timesheet) string { return t.Status }),
	}
	opts.Sort = sortKeys(keys, f.SortBy, "-date")
	return query.Apply(items, opts)
}

// AdminFilter is the client side view over fetched admins.
type AdminFilter struct {
	Role       string
	ActiveOnly bool
	Search     string
	SortBy     string // name, email, role, created; prefix with - for descending
	Page       int
	PageSize   int
}

// FilterAdmins filters, sorts and paginates admins. The default order is
// by name.
func FilterAdmins(items []Admin, f AdminFilter) query.Page[Admin] {
	opts := query.Options[Admin]{
		Search: f.Search,
		Haystack: func(a Admin) string {
			return strings.Join([]string{a.FirstName, a.LastName, a.Email, a.Role}, " ")
		},
		Page:     f.Page,
		PageSize: f.PageSize,
	}
	opts.Filters = append(opts.Filters,
		query.Equal(func(a Admin) string { return strings.ToLower(a.Role) }, strings.ToLower(strings.TrimSpace(f.Role))),
	)
	if f.ActiveOnly {
		opts.Filters = append(opts.Filters, func(a Admin) bool { return a.Active })
	}

	keys := map[string]query.SortKey[Admin]{
		"name":    query.ByText("name", Admin.Name),
		"email":   query.ByText("email", func(a Admin) string { return a.Email }),
		"role":    query.ByText("role", func(a Admin) string { return a.Role }),
		"created": query.ByTime("created", func(a Admin) time.Time { return a.CreatedAt }),
	}
	opts.Sort = sortKeys(keys, f.SortBy, "name")
	return query.Apply(items, opts)
}

// sortKeys resolves a comma separated list like "-date,worker". Unknown
// names are ignored; an empty result falls back to def.
func sortKeys[T any](known map[string]query.SortKey[T], order, def string) []query.SortKey[T] {
	var out []query.SortKey[T]
	for _, part := range strings.Split(order, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		desc := strings.HasPrefix(part, "-")
		key, ok := known[strings.TrimPrefix(part, "-")]
		if !ok {
			continue
		}
		if desc {
			key = key.Reverse()
		}
		out = append(out, key)
	}
	if len(out) == 0 && def != "" {
		return sortKeys(known, def, "")
	}
	return out
}
