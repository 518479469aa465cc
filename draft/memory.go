package draft

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps drafts in a map. Useful for tests and short-lived CLIs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{records: make(map[string]*Record), now: o.now}
}

func (s *MemoryStore) Get(_ context.Context, entityID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[strings.TrimSpace(entityID)]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Put(_ context.Context, wizardID, entityID string, data map[string]any) (*Record, bool, error) {
	entityID = strings.TrimSpace(entityID)
	if err := checkIDs(wizardID, entityID); err != nil {
		return nil, false, err
	}
	formData, _, sum, err := normalize(data)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	existing, ok := s.records[entityID]
	if ok {
		if existing.WizardID != wizardID {
			return nil, false, ErrWizardMismatch.Clone().WithMetadata(map[string]any{
				"entity_id": entityID,
				"expected":  wizardID,
				"found":     existing.WizardID,
			})
		}
		if existing.Checksum == sum {
			return cloneRecord(existing), false, nil
		}
		existing.FormData = formData
		existing.Checksum = sum
		existing.LastSavedAt = now
		return cloneRecord(existing), true, nil
	}

	rec := &Record{
		EntityID:    entityID,
		WizardID:    wizardID,
		FormData:    formData,
		Checksum:    sum,
		CreatedAt:   now,
		LastSavedAt: now,
	}
	s.records[entityID] = rec
	return cloneRecord(rec), true, nil
}

func (s *MemoryStore) List(_ context.Context, wizardID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if wizardID != "" && rec.WizardID != wizardID {
			continue
		}
		out = append(out, *cloneRecord(rec))
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, strings.TrimSpace(entityID))
	return nil
}

func (s *MemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.records {
		if rec.LastSavedAt.Before(cutoff) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func sortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].LastSavedAt.Equal(recs[j].LastSavedAt) {
			return recs[i].LastSavedAt.After(recs[j].LastSavedAt)
		}
		return recs[i].EntityID < recs[j].EntityID
	})
}
