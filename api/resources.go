package api

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Analytics is the organisation dashboard summary.
type Analytics struct {
	OrganizationID     string         `json:"organizationId"`
	ActiveWorkers      int            `json:"activeWorkers"`
	ActiveParticipants int            `json:"activeParticipants"`
	ShiftsThisWeek     int            `json:"shiftsThisWeek"`
	HoursThisWeek      float64        `json:"hoursThisWeek"`
	OpenIncidents      int            `json:"openIncidents"`
	ShiftsByStatus     map[string]int `json:"shiftsByStatus,omitempty"`
}

// Shift is one scheduled support shift.
type Shift struct {
	ID              string    `json:"id"`
	ParticipantID   string    `json:"participantId"`
	SupportWorkerID string    `json:"supportWorkerId,omitempty"`
	Status          string    `json:"status"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Location        string    `json:"location,omitempty"`
}

// ShiftQuery filters GET /shifts.
type ShiftQuery struct {
	OrganizationID  string
	SupportWorkerID string
	Status          string
	From            time.Time
	To              time.Time
}

func (q ShiftQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "organizationId", q.OrganizationID)
	setIf(v, "supportWorkerId", q.SupportWorkerID)
	setIf(v, "status", q.Status)
	setTime(v, "from", q.From)
	setTime(v, "to", q.To)
	return v
}

// Timesheet is a worker's claim for a shift.
type Timesheet struct {
	ID              string    `json:"id"`
	ShiftID         string    `json:"shiftId"`
	SupportWorkerID string    `json:"supportWorkerId"`
	WorkerName      string    `json:"workerName"`
	ParticipantName string    `json:"participantName"`
	Status          string    `json:"status"`
	Hours           float64   `json:"hours"`
	Date            time.Time `json:"date"`
	SubmittedAt     time.Time `json:"submittedAt,omitempty"`
	Notes           string    `json:"notes,omitempty"`
}

// TimesheetQuery filters GET /timesheets server side.
type TimesheetQuery struct {
	OrganizationID  string
	SupportWorkerID string
	Status          string
}

func (q TimesheetQuery) values() url.Values {
	v := url.Values{}
	setIf(v, "organizationId", q.OrganizationID)
	setIf(v, "supportWorkerId", q.SupportWorkerID)
	setIf(v, "status", q.Status)
	return v
}

// Admin is an organisation administrator.
type Admin struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Name joins first and last name.
func (a Admin) Name() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// FlattenedInvite is an invitation joined with its organisation and inviter.
type FlattenedInvite struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organizationId"`
	OrganizationName string    `json:"organizationName"`
	InvitedByID      string    `json:"invitedById"`
	InvitedByName    string    `json:"invitedByName"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// Invite actions accepted by POST /invites/process.
const (
	InviteAccept  = "accept"
	InviteDecline = "decline"
)

// ProcessInviteRequest is the narrow body sent to process an invite.
type ProcessInviteRequest struct {
	InviteID       string `json:"inviteId"`
	OrganizationID string `json:"organizationId"`
	Action         string `json:"action"`
}

// NewProcessInviteRequest reshapes a FlattenedInvite into a request.
func NewProcessInviteRequest(inv FlattenedInvite, action string) (ProcessInviteRequest, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	if action != InviteAccept && action != InviteDecline {
		return ProcessInviteRequest{}, requestError("invite action must be accept or decline, got " + strconv.Quote(action))
	}
	if strings.TrimSpace(inv.ID) == "" {
		return ProcessInviteRequest{}, requestError("invite id required")
	}
	return ProcessInviteRequest{
		InviteID:       inv.ID,
		OrganizationID: inv.OrganizationID,
		Action:         action,
	}, nil
}

// ProcessInviteResult is the backend reply to an invite action.
type ProcessInviteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Analytics fetches GET /analytics, wrapped as {"analytics": {...}}.
func (c *Client) Analytics(ctx context.Context, organizationID string) (*Analytics, error) {
	q := url.Values{}
	setIf(q, "organizationId", organizationID)
	var out struct {
		Analytics *Analytics `json:"analytics"`
	}
	if err := c.getJSON(ctx, "/analytics", q, &out); err != nil {
		return nil, err
	}
	if out.Analytics == nil {
		return nil, decodeError("/analytics", errMissingWrapper("analytics"))
	}
	return out.Analytics, nil
}

// Shifts fetches GET /shifts, which returns a bare array.
func (c *Client) Shifts(ctx context.Context, q ShiftQuery) ([]Shift, error) {
	var out []Shift
	if err := c.getJSON(ctx, "/shifts", q.values(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Shift{}
	}
	return out, nil
}

// Timesheets fetches GET /timesheets, wrapped as {"timesheets": [...]}.
func (c *Client) Timesheets(ctx context.Context, q TimesheetQuery) ([]Timesheet, error) {
	var out struct {
		Timesheets []Timesheet `json:"timesheets"`
	}
	if err := c.getJSON(ctx, "/timesheets", q.values(), &out); err != nil {
		return nil, err
	}
	if out.Timesheets == nil {
		out.Timesheets = []Timesheet{}
	}
	return out.Timesheets, nil
}

// Admins fetches GET /admins, wrapped as {"admins": [...]}.
func (c *Client) Admins(ctx context.Context) ([]Admin, error) {
	var out struct {
		Admins []Admin `json:"admins"`
	}
	if err := c.getJSON(ctx, "/admins", nil, &out); err != nil {
		return nil, err
	}
	if out.Admins == nil {
		out.Admins = []Admin{}
	}
	return out.Admins, nil
}

// Invites fetches GET /invites, wrapped as {"invites": [...]}.
func (c *Client) Invites(ctx context.Context) ([]FlattenedInvite, error) {
	var out struct {
		Invites []FlattenedInvite `json:"invites"`
	}
	if err := c.getJSON(ctx, "/invites", nil, &out); err != nil {
		return nil, err
	}
	if out.Invites == nil {
		out.Invites = []FlattenedInvite{}
	}
	return out.Invites, nil
}

// ProcessInvite posts an accept or decline for inv.
func (c *Client) ProcessInvite(ctx context.Context, inv FlattenedInvite, action string) (*ProcessInviteResult, error) {
	req, err := NewProcessInviteRequest(inv, action)
	if err != nil {
		return nil, err
	}
	out := &ProcessInviteResult{}
	if err := c.postJSON(ctx, "/invites/process", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

type errMissingWrapper string

func (e errMissingWrapper) Error() string {
	return "response has no " + strconv.Quote(string(e)) + " field"
}

func setIf(v url.Values, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		v.Set(key, val)
	}
}

func setTime(v url.Values, key string, t time.Time) {
	if !t.IsZero() {
		v.Set(key, t.UTC().Format(time.RFC3339))
	}
}
