// Package draft persists in-progress wizard form data.
package draft

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	apperrors "github.com/goliatone/go-errors"
)

const (
	ErrCodeInvalidRecord = "DRAFT_INVALID_RECORD"
	ErrCodeWizardChanged = "DRAFT_WIZARD_MISMATCH"
	ErrCodeStorage       = "DRAFT_STORAGE"
)

var (
	ErrInvalidRecord = apperrors.New("invalid draft record", apperrors.CategoryBadInput).
				WithTextCode(ErrCodeInvalidRecord)
	ErrWizardMismatch = apperrors.New("draft belongs to another wizard", apperrors.CategoryConflict).
				WithTextCode(ErrCodeWizardChanged)
	ErrStorage = apperrors.New("draft storage failure", apperrors.CategoryInternal).
			WithTextCode(ErrCodeStorage)
)

// Record is one stored draft.
type Record struct {
	EntityID    string         `json:"entityId"`
	WizardID    string         `json:"wizardId"`
	FormData    map[string]any `json:"formData"`
	Checksum    string         `json:"checksum"`
	CreatedAt   time.Time      `json:"createdAt"`
	LastSavedAt time.Time      `json:"lastSavedAt"`
}

// Repository stores drafts keyed by entity id.
type Repository interface {
	// Get returns nil, nil when the draft does not exist.
	Get(ctx context.Context, entityID string) (*Record, error)
	// Put stores data and reports whether anything changed. Saving data
	// identical to the stored copy leaves the record untouched.
	Put(ctx context.Context, wizardID, entityID string, data map[string]any) (*Record, bool, error)
	// List returns drafts of one wizard, or all drafts when wizardID is
	// empty, most recently saved first.
	List(ctx context.Context, wizardID string) ([]Record, error)
	Delete(ctx context.Context, entityID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Option configures the stores.
type Option func(*options)

type options struct {
	now   func() time.Time
	table string
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithTable sets the SQLite table name. Ignored by the memory store.
func WithTable(name string) Option {
	return func(o *options) {
		o.table = strings.TrimSpace(name)
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Canonical encodes data as compact JSON with sorted keys and no HTML
// escaping, the form used for checksums and storage.
func Canonical(data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Checksum is the sha256 of the canonical encoding.
func Checksum(data map[string]any) (string, error) {
	raw, err := Canonical(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// normalize round-trips data through its canonical encoding so every
// store hands back the same shapes (float64 numbers, []any lists).
func normalize(data map[string]any) (map[string]any, []byte, string, error) {
	raw, err := Canonical(data)
	if err != nil {
		return nil, nil, "", apperrors.Wrap(err, apperrors.CategoryBadInput, "draft data is not serializable").
			WithTextCode(ErrCodeInvalidRecord)
	}
	out, err := decode(raw)
	if err != nil {
		return nil, nil, "", err
	}
	sum := sha256.Sum256(raw)
	return out, raw, hex.EncodeToString(sum[:]), nil
}

func decode(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CategoryInternal, "decode draft data").
			WithTextCode(ErrCodeStorage)
	}
	return out, nil
}

func checkIDs(wizardID, entityID string) error {
	if strings.TrimSpace(entityID) == "" {
		return ErrInvalidRecord.Clone().WithMetadata(map[string]any{"reason": "entity id required"})
	}
	if strings.TrimSpace(wizardID) == "" {
		return ErrInvalidRecord.Clone().WithMetadata(map[string]any{"reason": "wizard id required", "entity_id": entityID})
	}
	return nil
}

func cloneRecord(rec *Record) *Record {
	if rec == nil {
		return nil
	}
	cp := *rec
	raw, err := Canonical(rec.FormData)
	if err == nil {
		if data, err := decode(raw); err == nil {
			cp.FormData = data
		}
	}
	return &cp
}

// Scope binds a repository to one wizard. It satisfies the engine's
// draft store contract.
type Scope struct {
	repo     Repository
	wizardID string
}

// ForWizard returns a Scope for wizardID.
func ForWizard(repo Repository, wizardID string) *Scope {
	return &Scope{repo: repo, wizardID: wizardID}
}

// Load returns the stored form data or nil when there is no draft. A
// draft saved by another wizard is reported as a conflict.
func (s *Scope) Load(ctx context.Context, entityID string) (map[string]any, error) {
	rec, err := s.repo.Get(ctx, entityID)
	if err != nil || rec == nil {
		return nil, err
	}
	if rec.WizardID != s.wizardID {
		return nil, ErrWizardMismatch.Clone().WithMetadata(map[string]any{
			"entity_id": entityID,
			"expected":  s.wizardID,
			"found":     rec.WizardID,
		})
	}
	return rec.FormData, nil
}

// Save stores data for entityID.
func (s *Scope) Save(ctx context.Context, entityID string, data map[string]any) error {
	_, _, err := s.repo.Put(ctx, s.wizardID, entityID, data)
	return err
}
