package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wizard/draft"
)

const feedbackDefinitions = "../../config/testdata/feedback.yaml"

type backend struct {
	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

func (b *backend) last() recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return recordedRequest{}
	}
	return b.requests[len(b.requests)-1]
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Auth: r.Header.Get("Authorization")}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
	}
	b.mu.Lock()
	b.requests = append(b.requests, rec)
	b.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/timesheets":
		writeBody(w, `{"timesheets":[
			{"id":"t1","supportWorkerId":"w1","workerName":"Ada","participantName":"Sam","status":"approved","hours":3.5,"date":"2026-03-02T00:00:00Z"},
			{"id":"t2","supportWorkerId":"w2","workerName":"Bo","participantName":"Kim","status":"pending","hours":2,"date":"2026-03-04T00:00:00Z"},
			{"id":"t3","supportWorkerId":"w1","workerName":"Ada","participantName":"Kim","status":"pending","hours":6,"date":"2026-03-09T00:00:00Z"}
		]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/admins":
		writeBody(w, `{"admins":[
			{"id":"a1","firstName":"Zoe","lastName":"Hart","email":"zoe@example.com","role":"owner","active":true},
			{"id":"a2","firstName":"Ann","lastName":"Lee","email":"ann@example.com","role":"admin","active":false}
		]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/invites":
		writeBody(w, `{"invites":[{"id":"inv-1","organizationId":"org-9","organizationName":"North Care","role":"coordinator","invitedByName":"Zoe Hart","expiresAt":"2026-12-01T00:00:00Z"}]}`)
	case r.Method == http.MethodPost && r.URL.Path == "/invites/process":
		writeBody(w, `{"success":true}`)
	case r.Method == http.MethodGet && r.URL.Path == "/export":
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "id,hours\nt1,3.5\n")
	case r.Method == http.MethodGet && r.URL.Path == "/analytics":
		writeBody(w, `{"analytics":{"activeWorkers":4,"activeParticipants":7,"shiftsThisWeek":12,"hoursThisWeek":41.5,"openIncidents":1,"shiftsByStatus":{"completed":9,"in_progress":3}}}`)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/feedback/"):
		w.WriteHeader(http.StatusCreated)
		writeBody(w, `{"id":"fb-1"}`)
	default:
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}
}

func writeBody(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

type cliHarness struct {
	t       *testing.T
	dir     string
	config  string
	dbPath  string
	backend *backend
	server  *httptest.Server
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	h := &cliHarness{t: t, dir: t.TempDir(), backend: &backend{}}
	h.server = httptest.NewServer(h.backend)
	t.Cleanup(h.server.Close)

	h.dbPath = filepath.Join(h.dir, "drafts.db")
	defs, err := filepath.Abs(feedbackDefinitions)
	require.NoError(t, err)

	cfg := fmt.Sprintf(`api:
  base_url: %s
  token: secret-token
  max_retries: 0
  timeout: 5s
drafts:
  driver: sqlite
  path: %s
  table: wizard_drafts
  retention: 72h
logging:
  level: error
actor:
  id: user-1
  role: coordinator
  organization_id: org-1
definitions:
  - %s
`, h.server.URL, h.dbPath, defs)
	h.config = filepath.Join(h.dir, "wizard.yaml")
	require.NoError(t, os.WriteFile(h.config, []byte(cfg), 0o644))
	return h
}

func (h *cliHarness) run(args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{"-c", h.config}, args...), &stdout, &stderr, kong.Exit(func(int) {}))
	return code, stdout.String(), stderr.String()
}

func (h *cliHarness) writeFile(name, content string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (h *cliHarness) seedDrafts(t *testing.T, now time.Time) {
	t.Helper()
	clock := now
	store, err := draft.Open(h.dbPath, draft.WithTable("wizard_drafts"), draft.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	clock = now.Add(-10 * 24 * time.Hour)
	_, _, err = store.Put(ctx, "service_feedback", "old-1", map[string]any{"shiftId": "s-0"})
	require.NoError(t, err)
	clock = now.Add(-time.Hour)
	_, _, err = store.Put(ctx, "service_feedback", "fresh-1", map[string]any{"shiftId": "s-1", "rating": 4})
	require.NoError(t, err)
	_, _, err = store.Put(ctx, "incident", "inc-1", map[string]any{"severity": "low"})
	require.NoError(t, err)
}

const feedbackAnswers = `defaults:
  visitDate: "2026-03-01"
steps:
  rating:
    shiftId: s-42
    rating: 4
  comments:
    comments: Great shift
    nextVisit: "2026-03-08"
`

func TestListAndDescribe(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "incident")
	assert.Contains(t, out, "service_feedback")
	assert.Contains(t, out, "tender")

	code, out, errOut = h.run("list", "--json")
	require.Equal(t, 0, code, errOut)
	var rows []definitionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.NotEmpty(t, rows)
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].ID, rows[i].ID)
	}

	code, out, errOut = h.run("describe", "service_feedback")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Service feedback (service_feedback)")
	assert.Contains(t, out, "Roles: participant, coordinator")
	assert.Contains(t, out, "Drafts: yes")
	assert.Contains(t, out, "3. Comments [comments] (submit)")
	assert.Contains(t, out, "   - rating: Rating (1-5) (Number)")

	code, _, errOut = h.run("describe", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown wizard "nope"`)
}

func TestValidateDefinitions(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("validate", feedbackDefinitions)
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, "ok  "), out)
	assert.Contains(t, out, "feedback.yaml  service_feedback (3 steps)")

	bad := h.writeFile("bad.yaml", "version: 1\nwizards:\n  - id: broken\n    steps: []\n")
	code, _, errOut = h.run("validate", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "wizardctl:")
}

func TestRunDryRunPrintsRequest(t *testing.T) {
	h := newCLIHarness(t)
	answers := h.writeFile("answers.yaml", feedbackAnswers)

	code, out, errOut := h.run("run", "service_feedback", "-a", answers, "--dry-run", "--endpoint", "/feedback/{shiftId}")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "POST /feedback/s-42")
	assert.Contains(t, out, `"comments": "Great shift"`)
	assert.NotContains(t, out, "submitted")
	assert.Empty(t, h.backend.requests)
}

func TestRunSubmitsToBackend(t *testing.T) {
	h := newCLIHarness(t)
	answers := h.writeFile("answers.yaml", feedbackAnswers)

	code, out, errOut := h.run("run", "service_feedback", "-a", answers, "--endpoint", "/feedback/{shiftId}")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "submitted service_feedback")

	req := h.backend.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/feedback/s-42", req.Path)
	assert.Equal(t, "Bearer secret-token", req.Auth)
	assert.Equal(t, "Great shift", req.Body["comments"])
	assert.Equal(t, "s-42", req.Body["shiftId"])
}

func TestRunReportsFieldErrors(t *testing.T) {
	h := newCLIHarness(t)
	answers := h.writeFile("answers.yaml", "steps:\n  rating:\n    shiftId: s-1\n    rating: 9\n")

	code, out, errOut := h.run("run", "service_feedback", "-a", answers, "--dry-run", "--endpoint", "/feedback/{shiftId}")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "  rating: ")
	assert.Contains(t, errOut, "step rating")
}

func TestRunNeedsEndpointOutsideCatalog(t *testing.T) {
	h := newCLIHarness(t)
	answers := h.writeFile("answers.yaml", feedbackAnswers)

	code, _, errOut := h.run("run", "service_feedback", "-a", answers)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "pass --endpoint")
}

func TestDraftsCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.seedDrafts(t, time.Now())

	code, out, errOut := h.run("drafts", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "ENTITY")
	assert.Contains(t, out, "old-1")
	assert.Contains(t, out, "inc-1")

	code, out, errOut = h.run("drafts", "list", "--wizard", "incident", "--json")
	require.Equal(t, 0, code, errOut)
	var recs []draft.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "inc-1", recs[0].EntityID)

	code, out, errOut = h.run("drafts", "show", "fresh-1")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `"shiftId": "s-1"`)

	code, _, errOut = h.run("drafts", "show", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "draft missing not found")

	code, out, errOut = h.run("drafts", "purge")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "purged 1 drafts")

	code, out, errOut = h.run("drafts", "delete", "inc-1")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "deleted inc-1")

	code, out, errOut = h.run("drafts", "list", "--json")
	require.Equal(t, 0, code, errOut)
	recs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "fresh-1", recs[0].EntityID)
}

func TestSweepOnce(t *testing.T) {
	h := newCLIHarness(t)
	h.seedDrafts(t, time.Now())

	code, out, errOut := h.run("sweep")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "purged 1 drafts")
}

func TestTimesheets(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("timesheets", "--status", "pending", "--sort", "hours")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "page 1/1, 2 timesheets")
	assert.Less(t, strings.Index(out, "2026-03-04"), strings.Index(out, "2026-03-09"))
	assert.NotContains(t, out, "approved")
	assert.Contains(t, h.backend.last().Query, "organizationId=org-1")

	code, out, errOut = h.run("timesheets", "--from", "2026-03-03", "--to", "2026-03-04", "--json")
	require.Equal(t, 0, code, errOut)
	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "t2", page.Items[0].ID)

	code, out, errOut = h.run("timesheets", "--search", "ada", "--page-size", "1", "--page", "2")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "page 2/2, 2 timesheets")
}

func TestAdmins(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("admins")
	require.Equal(t, 0, code, errOut)
	assert.Less(t, strings.Index(out, "Ann Lee"), strings.Index(out, "Zoe Hart"))

	code, out, errOut = h.run("admins", "--active")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Zoe Hart")
	assert.NotContains(t, out, "Ann Lee")
	assert.Contains(t, out, "page 1/1, 1 admins")
}

func TestInvites(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("invites", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "North Care")

	code, out, errOut = h.run("invites", "process", "inv-1", "decline")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "invite declined")
	req := h.backend.last()
	assert.Equal(t, "/invites/process", req.Path)
	assert.Equal(t, map[string]any{"inviteId": "inv-1", "organizationId": "org-9", "action": "decline"}, req.Body)

	code, _, errOut = h.run("invites", "process", "inv-404", "accept")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invite inv-404 not found")

	code, _, _ = h.run("invites", "process", "inv-1", "maybe")
	assert.Equal(t, 2, code)
}

func TestExport(t *testing.T) {
	h := newCLIHarness(t)
	outDir := filepath.Join(h.dir, "exports")

	code, out, errOut := h.run("export", "csv", "--out", outDir)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "text/csv")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasPrefix(name, "export_"), name)
	assert.True(t, strings.HasSuffix(name, ".csv"), name)
	data, err := os.ReadFile(filepath.Join(outDir, name))
	require.NoError(t, err)
	assert.Equal(t, "id,hours\nt1,3.5\n", string(data))
}

func TestAnalytics(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("analytics")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Hours this week")
	assert.Contains(t, out, "41.50")
	assert.Contains(t, out, "Shifts in progress")
	assert.Contains(t, h.backend.last().Query, "organizationId=org-1")

	code, _, errOut = h.run("--org", "org-2", "analytics")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, h.backend.last().Query, "organizationId=org-2")
}

func TestConfigRedactsToken(t *testing.T) {
	h := newCLIHarness(t)

	code, out, errOut := h.run("config")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "token: '********'")
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, "table: wizard_drafts")
}

func TestUsageErrors(t *testing.T) {
	h := newCLIHarness(t)

	code, _, errOut := h.run("bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "wizardctl:")

	code, _, _ = h.run("run", "service_feedback")
	assert.Equal(t, 2, code)
}

func TestBadConfig(t *testing.T) {
	h := newCLIHarness(t)
	h.config = h.writeFile("broken.yaml", "drafts:\n  driver: postgres\n")

	code, _, errOut := h.run("list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unsupported drafts.driver")
}
