package wizard

import (
	"sort"
	"sync"
	"time"
)

// EventKind names what happened in a session.
type EventKind string

const (
	EventStateChanged     EventKind = "state_changed"
	EventDraftSaved       EventKind = "draft_saved"
	EventDraftFailed      EventKind = "draft_failed"
	EventSubmitted        EventKind = "submitted"
	EventSubmissionFailed EventKind = "submission_failed"
)

// Event is delivered to listeners. State is a private copy.
type Event struct {
	Kind     EventKind
	WizardID string
	EntityID string
	StepID   string
	State    State
	Err      error
	At       time.Time
}

// Listener receives events synchronously, in the goroutine that caused
// them. Draft results arrive from the save goroutine. Listeners may read
// state but must not drive the controller.
type Listener func(Event)

// Subscription cancels a listener.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	store *Store
	id    uint64
	once  sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.store.mu.Lock()
		defer s.store.mu.Unlock()
		delete(s.store.listeners, s.id)
	})
}

// Store owns the State of one session. Every mutation notifies
// subscribers with a state_changed event.
type Store struct {
	mu        sync.Mutex
	def       *Definition
	state     State
	listeners map[uint64]Listener
	nextID    uint64
	now       func() time.Time
}

// NewStore creates a store positioned on the first step, not started.
func NewStore(def *Definition, entityID string) *Store {
	s := &Store{
		def:       def,
		listeners: make(map[uint64]Listener),
		now:       time.Now,
	}
	s.state = s.initial(entityID)
	return s
}

func (s *Store) initial(entityID string) State {
	return State{
		WizardID:      s.def.ID(),
		EntityID:      entityID,
		CurrentStepID: s.def.First().ID,
		FormData:      map[string]any{},
		Status:        StatusNotStarted,
		UpdatedAt:     s.now().UTC(),
	}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers a listener until Unsubscribe is called.
func (s *Store) Subscribe(l Listener) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.listeners[s.nextID] = l
	return &subscription{store: s, id: s.nextID}
}

// SetFormData merges partial into the form data.
func (s *Store) SetFormData(partial map[string]any) {
	_ = s.apply(func(st *State) error {
		st.FormData = MergeData(st.FormData, partial)
		return nil
	})
}

// MarkCompleted records a step as completed. Completion is never undone
// except by Reset.
func (s *Store) MarkCompleted(stepID string) error {
	return s.apply(func(st *State) error {
		return s.markCompleted(st, stepID)
	})
}

// SetCurrentStep moves the cursor to a step of the definition.
func (s *Store) SetCurrentStep(stepID string) error {
	return s.apply(func(st *State) error {
		if s.def.Index(stepID) < 0 {
			return cloneError(ErrUnknownStep, "unknown step "+stepID, nil, map[string]any{"step": stepID})
		}
		st.CurrentStepID = stepID
		return nil
	})
}

// SetStatus changes the lifecycle status.
func (s *Store) SetStatus(status Status) {
	_ = s.apply(func(st *State) error {
		st.Status = status
		return nil
	})
}

// Reset returns the session to not_started with empty data. Ids are kept.
func (s *Store) Reset() {
	_ = s.apply(func(st *State) error {
		*st = s.initial(st.EntityID)
		return nil
	})
}

func (s *Store) markCompleted(st *State, stepID string) error {
	if s.def.Index(stepID) < 0 {
		return cloneError(ErrUnknownStep, "unknown step "+stepID, nil, map[string]any{"step": stepID})
	}
	if st.IsCompleted(stepID) {
		return nil
	}
	st.CompletedStepIDs = append(st.CompletedStepIDs, stepID)
	sort.SliceStable(st.CompletedStepIDs, func(i, j int) bool {
		return s.def.Index(st.CompletedStepIDs[i]) < s.def.Index(st.CompletedStepIDs[j])
	})
	return nil
}

// apply runs fn on a working copy and commits it atomically. One
// state_changed event is sent per successful apply.
func (s *Store) apply(fn func(st *State) error) error {
	s.mu.Lock()
	work := s.state.Clone()
	if err := fn(&work); err != nil {
		s.mu.Unlock()
		return err
	}
	work.UpdatedAt = s.now().UTC()
	s.state = work
	evt := Event{
		Kind:     EventStateChanged,
		WizardID: work.WizardID,
		EntityID: work.EntityID,
		StepID:   work.CurrentStepID,
		At:       work.UpdatedAt,
	}
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	deliver(listeners, evt, work)
	return nil
}

// publish sends a non-mutating event, like draft_saved.
func (s *Store) publish(kind EventKind, err error) {
	s.mu.Lock()
	st := s.state.Clone()
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	deliver(listeners, Event{
		Kind:     kind,
		WizardID: st.WizardID,
		EntityID: st.EntityID,
		StepID:   st.CurrentStepID,
		Err:      err,
		At:       s.now().UTC(),
	}, st)
}

func (s *Store) snapshotListeners() []Listener {
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

func deliver(listeners []Listener, evt Event, st State) {
	for _, l := range listeners {
		if l == nil {
			continue
		}
		evt.State = st.Clone()
		l(evt)
	}
}
