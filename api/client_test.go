package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/goliatone/go-errors"
	wizard "github.com/goliatone/go-wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithToken("secret"), WithRetry(NoDelay{}, 2)}, opts...)
	c, err := New(srv.URL+"/v1", opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("not a url")
	require.Error(t, err)
	var ge *apperrors.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, ErrCodeRequest, ge.TextCode)
}

func TestAnalyticsUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analytics", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organizationId"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, 200, `{"analytics":{"organizationId":"org-1","activeWorkers":4,"hoursThisWeek":12.5}}`)
	})

	got, err := c.Analytics(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 4, got.ActiveWorkers)
	assert.Equal(t, 12.5, got.HoursThisWeek)
}

func TestAnalyticsMissingWrapperIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"organizationId":"org-1"}`)
	})

	_, err := c.Analytics(context.Background(), "org-1")
	require.Error(t, err)
	var ge *apperrors.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, ErrCodeDecode, ge.TextCode)
}

func TestShiftsAreABareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/shifts", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "2024-05-01T00:00:00Z", r.URL.Query().Get("from"))
		writeJSON(w, 200, `[{"id":"s1","status":"open"},{"id":"s2","status":"open"}]`)
	})

	got, err := c.Shifts(context.Background(), ShiftQuery{
		Status: "open",
		From:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[1].ID)
}

func TestWrappedListsDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/timesheets":
			writeJSON(w, 200, `{"timesheets":[{"id":"t1","hours":7.5}]}`)
		case "/v1/admins":
			writeJSON(w, 200, `{"admins":[{"id":"a1","firstName":"Ada","lastName":"Lovelace"}]}`)
		case "/v1/invites":
			writeJSON(w, 200, `{"invites":[]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	ts, err := c.Timesheets(ctx, TimesheetQuery{})
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, 7.5, ts[0].Hours)

	admins, err := c.Admins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "Ada Lovelace", admins[0].Name())

	invites, err := c.Invites(ctx)
	require.NoError(t, err)
	assert.NotNil(t, invites)
	assert.Empty(t, invites)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, 503, `{"message":"warming up"}`)
			return
		}
		writeJSON(w, 200, `{"admins":[]}`)
	})

	_, err := c.Admins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 404, `{"error":"no such organisation"}`)
	})

	_, err := c.Admins(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 404, StatusCode(err))
	assert.Contains(t, err.Error(), "no such organisation")

	var ge *apperrors.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, apperrors.CategoryNotFound, ge.Category)
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 500, `{}`)
	}, WithRetry(NoDelay{}, 1))

	_, err := c.Timesheets(context.Background(), TimesheetQuery{})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 500, StatusCode(err))
}

func TestValidationDetailsBecomeFieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 422, `{"message":"invalid invite","details":[{"field":"inviteId","message":"unknown"}]}`)
	})

	_, err := c.ProcessInvite(context.Background(), FlattenedInvite{ID: "i1"}, InviteAccept)
	require.Error(t, err)
	var ge *apperrors.Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, apperrors.CategoryValidation, ge.Category)
	require.Len(t, ge.ValidationErrors, 1)
	assert.Equal(t, "inviteId", ge.ValidationErrors[0].Field)
}

func TestPostIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, 503, `{"message":"down"}`)
	})

	_, err := c.ProcessInvite(context.Background(), FlattenedInvite{ID: "i1"}, InviteDecline)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProcessInviteSendsNarrowBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/invites/process", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"inviteId":       "i1",
			"organizationId": "org-1",
			"action":         "accept",
		}, body)
		writeJSON(w, 200, `{"success":true}`)
	})

	res, err := c.ProcessInvite(context.Background(), FlattenedInvite{
		ID:               "i1",
		OrganizationID:   "org-1",
		OrganizationName: "Northside Care",
		Email:            "sam@example.org",
	}, " Accept ")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestNewProcessInviteRequestRejectsUnknownAction(t *testing.T) {
	if _, err := NewProcessInviteRequest(FlattenedInvite{ID: "i1"}, "maybe"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
	if _, err := NewProcessInviteRequest(FlattenedInvite{}, InviteAccept); err == nil {
		t.Fatalf("expected error for missing invite id")
	}
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 20, 30, 123_000_000, time.FixedZone("AEST", 10*3600))
	assert.Equal(t, "export_2024-05-01T00-20-30-123Z.csv", ExportFilename("csv", at))
}

func TestExportReturnsBlob(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xlsx", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x50, 0x4b, 0x03, 0x04})
	}, WithClock(func() time.Time { return at }))

	got, err := c.Export(context.Background(), "XLSX")
	require.NoError(t, err)
	assert.Equal(t, "export_2024-01-02T03-04-05-000Z.xlsx", got.Filename)
	assert.Equal(t, "application/octet-stream", got.ContentType)
	assert.Equal(t, []byte{0x50, 0x4b, 0x03, 0x04}, got.Data)

	_, err = c.Export(context.Background(), "../etc")
	assert.Error(t, err)
}

func TestContextCancelStopsRetries(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		cancel()
		writeJSON(w, 503, `{}`)
	}, WithRetry(ExponentialBackoff{Base: time.Second, Factor: 2}, 5))

	_, err := c.Admins(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubmitterPostsReshapedBody(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/jobs/job%2F7/applications", r.URL.EscapedPath())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	sub := NewSubmitter(c, ParamPath("/jobs/{jobId}/applications"), func(s wizard.Submission) (any, error) {
		return map[string]any{"coverLetter": s.Data["coverLetter"], "applicantId": s.Actor.ID}, nil
	})
	err := sub.Submit(context.Background(), wizard.Submission{
		WizardID: "apply_job",
		Data:     map[string]any{"jobId": "job/7", "coverLetter": "hello", "ignored": true},
		Actor:    wizard.Actor{ID: "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"coverLetter": "hello", "applicantId": "u1"}, got)
}

func TestParamPathMissingValue(t *testing.T) {
	_, err := ParamPath("/jobs/{jobId}/applications")(wizard.Submission{Data: map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobId")
}

func TestSubmitterFailureReachesController(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, `{"message":"database unavailable"}`)
	})
	def := wizard.MustDefinition(wizard.NewDefinition("ping", "Ping", wizard.Step{ID: "confirm", Terminal: true}))
	ctrl, err := wizard.NewController(def, wizard.WithSubmitter(NewSubmitter(c, StaticPath("/pings"), nil)))
	require.NoError(t, err)
	require.NoError(t, ctrl.Start(context.Background(), nil))

	_, err = ctrl.Submit(context.Background(), map[string]any{"ok": true})
	require.Error(t, err)
	assert.True(t, wizard.IsCode(err, wizard.ErrCodeSubmission))

	st := ctrl.State()
	assert.Equal(t, wizard.StatusInProgress, st.Status)
	assert.Equal(t, "confirm", st.CurrentStepID)
	assert.Contains(t, st.LastError, "database unavailable")
}
