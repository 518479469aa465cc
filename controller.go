package wizard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-wizard/validation"
)

// Option configures a Controller.
type Option func(*Controller)

// WithSubmitter sets the adapter called from the terminal step.
func WithSubmitter(s Submitter) Option {
	return func(c *Controller) { c.submitter = s }
}

// WithDraftStore enables SaveDraft and draft loading on Start. It only
// takes effect for definitions built WithDrafts.
func WithDraftStore(d DraftStore) Option {
	return func(c *Controller) { c.drafts = d }
}

// WithEntityID keys the session, usually an existing draft id.
func WithEntityID(id string) Option {
	return func(c *Controller) { c.entityID = id }
}

// WithActor sets the acting user.
func WithActor(a Actor) Option {
	return func(c *Controller) { c.actor = a }
}

// WithLogger sets the controller logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDGenerator overrides how entity ids are minted for new drafts.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Controller drives one wizard session. Operations are serialized; while
// a submission is in flight every other operation fails with ErrBusy.
type Controller struct {
	def       *Definition
	store     *Store
	submitter Submitter
	drafts    DraftStore
	entityID  string
	actor     Actor
	logger    Logger
	newID     func() string

	mu      sync.Mutex
	closed  atomic.Bool
	pending sync.WaitGroup
}

// NewController builds a controller for def. The session starts in
// not_started; call Start to enter the first step.
func NewController(def *Definition, opts ...Option) (*Controller, error) {
	if def == nil {
		return nil, cloneError(ErrInvalidDefinition, "definition is required", nil, nil)
	}
	c := &Controller{
		def:    def,
		logger: NopLogger(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.store = NewStore(def, c.entityID)
	c.logger = withFields(c.logger, map[string]any{
		"wizard_id": def.ID(),
		"actor":     c.actor.ID,
	})
	return c, nil
}

// Definition returns the wizard definition.
func (c *Controller) Definition() *Definition { return c.def }

// Store exposes the underlying state store.
func (c *Controller) Store() *Store { return c.store }

// State returns a copy of the session state.
func (c *Controller) State() State { return c.store.State() }

// Actor returns the acting user.
func (c *Controller) Actor() Actor { return c.actor }

// Subscribe registers a listener on the session store.
func (c *Controller) Subscribe(l Listener) Subscription { return c.store.Subscribe(l) }

// CurrentStep returns the step the cursor is on.
func (c *Controller) CurrentStep() Step {
	st, _ := c.def.Step(c.store.State().CurrentStepID)
	return st
}

// Position returns the 1-based position of the current step among the
// steps that are not skipped, and their count.
func (c *Controller) Position() (int, int) {
	st := c.store.State()
	pos, total := 0, 0
	for _, step := range c.def.steps {
		if step.skipped(st.FormData, c.actor) {
			continue
		}
		total++
		if step.ID == st.CurrentStepID {
			pos = total
		}
	}
	return pos, total
}

// CanDraft reports whether SaveDraft is available for this session.
func (c *Controller) CanDraft() bool {
	return c.def.Drafts() && c.drafts != nil
}

// Start enters the first step. Form data is defaults overlaid with the
// stored draft, when drafting is configured and an entity id is set.
func (c *Controller) Start(ctx context.Context, defaults map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}
	st := c.store.State()
	if st.Status != StatusNotStarted {
		return cloneError(ErrInvalidTransition, "wizard already started", nil, c.meta(st, nil))
	}
	if !c.actor.Allowed(c.def.roles) {
		return cloneError(ErrForbidden, "role "+string(c.actor.Role)+" cannot start "+c.def.ID(), nil, c.meta(st, nil))
	}

	data := CloneData(defaults)
	if c.CanDraft() && st.EntityID != "" {
		draft, err := c.drafts.Load(ctx, st.EntityID)
		if err != nil {
			c.logger.WithContext(ctx).Error("draft load failed entity=%s: %v", st.EntityID, err)
			return cloneError(ErrDraft, "load draft failed", err, c.meta(st, nil))
		}
		if draft != nil {
			data = MergeData(data, draft)
			c.logger.WithContext(ctx).Debug("draft loaded entity=%s", st.EntityID)
		}
	}

	first := c.def.firstActive(data, c.actor)
	err := c.store.apply(func(s *State) error {
		s.FormData = data
		s.CurrentStepID = first.ID
		s.Status = StatusInProgress
		s.LastError = ""
		return nil
	})
	if err == nil {
		c.logger.WithContext(ctx).Info("wizard started step=%s", first.ID)
	}
	return err
}

// Next validates the current step against the accumulated data merged
// with input. On success the data is committed, the step marked
// completed and the cursor moved to the next step that is not skipped.
func (c *Controller) Next(input map[string]any) (validation.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.activeState()
	if err != nil {
		return validation.Valid(), err
	}
	step, _ := c.def.Step(st.CurrentStepID)
	if step.Terminal {
		return validation.Valid(), cloneError(ErrInvalidTransition, "terminal step "+step.ID+" must be submitted", nil, c.meta(st, nil))
	}
	if !c.actor.Allowed(step.Roles) {
		return validation.Valid(), cloneError(ErrForbidden, "role "+string(c.actor.Role)+" cannot complete "+step.ID, nil, c.meta(st, nil))
	}

	candidate := MergeData(st.FormData, input)
	res := step.Validate(candidate)
	if !res.Valid {
		c.logger.Debug("step %s rejected with %d field errors", step.ID, len(res.Errors))
		return res, validationError(step.ID, res)
	}

	next, ok := c.def.nextActive(step.ID, candidate, c.actor)
	if !ok {
		return res, cloneError(ErrInvalidTransition, "no step after "+step.ID, nil, c.meta(st, nil))
	}
	err = c.store.apply(func(s *State) error {
		s.FormData = candidate
		if err := c.store.markCompleted(s, step.ID); err != nil {
			return err
		}
		s.CurrentStepID = next.ID
		return nil
	})
	if err != nil {
		return res, err
	}
	c.logger.Debug("step %s completed, moved to %s", step.ID, next.ID)
	return res, nil
}

// Back moves to the previous step that is not skipped. Data is kept.
func (c *Controller) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.activeState()
	if err != nil {
		return err
	}
	prev, ok := c.def.prevActive(st.CurrentStepID, st.FormData, c.actor)
	if !ok {
		return cloneError(ErrInvalidTransition, "already on the first step", nil, c.meta(st, nil))
	}
	return c.store.apply(func(s *State) error {
		s.CurrentStepID = prev.ID
		return nil
	})
}

// JumpTo moves to a completed step, or to the step right after the
// furthest completed one. Anything else is rejected and nothing changes.
func (c *Controller) JumpTo(stepID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.activeState()
	if err != nil {
		return err
	}
	if c.def.Index(stepID) < 0 {
		return cloneError(ErrUnknownStep, "unknown step "+stepID, nil, c.meta(st, map[string]any{"target": stepID}))
	}
	if !c.reachable(st, stepID) {
		return cloneError(ErrStepNotReachable, "step "+stepID+" is not reachable yet", nil, c.meta(st, map[string]any{"target": stepID}))
	}
	if stepID == st.CurrentStepID {
		return nil
	}
	return c.store.apply(func(s *State) error {
		s.CurrentStepID = stepID
		return nil
	})
}

func (c *Controller) reachable(st State, stepID string) bool {
	if st.IsCompleted(stepID) {
		return true
	}
	if len(st.CompletedStepIDs) == 0 {
		return c.def.firstActive(st.FormData, c.actor).ID == stepID
	}
	furthest := st.CompletedStepIDs[0]
	for _, id := range st.CompletedStepIDs {
		if c.def.Index(id) > c.def.Index(furthest) {
			furthest = id
		}
	}
	frontier, ok := c.def.nextActive(furthest, st.FormData, c.actor)
	return ok && frontier.ID == stepID
}

// Submit validates the terminal step and hands the full form data to the
// Submitter. Success completes the session. Failure passes through
// failed back to in_progress on the terminal step, keeps the data,
// records LastError and emits submission_failed; retrying is up to the
// caller.
func (c *Controller) Submit(ctx context.Context, input map[string]any) (validation.Result, error) {
	c.mu.Lock()
	st, err := c.activeState()
	if err != nil {
		c.mu.Unlock()
		return validation.Valid(), err
	}
	step, _ := c.def.Step(st.CurrentStepID)
	if !step.Terminal {
		c.mu.Unlock()
		return validation.Valid(), cloneError(ErrInvalidTransition, "step "+step.ID+" is not the terminal step", nil, c.meta(st, nil))
	}
	if !c.actor.Allowed(step.Roles) {
		c.mu.Unlock()
		return validation.Valid(), cloneError(ErrForbidden, "role "+string(c.actor.Role)+" cannot submit "+c.def.ID(), nil, c.meta(st, nil))
	}

	candidate := MergeData(st.FormData, input)
	res := step.Validate(candidate)
	if !res.Valid {
		c.mu.Unlock()
		return res, validationError(step.ID, res)
	}
	if c.submitter == nil {
		c.mu.Unlock()
		return res, cloneError(ErrSubmission, "no submitter configured", nil, c.meta(st, nil))
	}
	err = c.store.apply(func(s *State) error {
		s.FormData = candidate
		if err := c.store.markCompleted(s, step.ID); err != nil {
			return err
		}
		s.Status = StatusSubmitting
		s.LastError = ""
		return nil
	})
	if err != nil {
		c.mu.Unlock()
		return res, err
	}
	sub := Submission{
		WizardID: c.def.ID(),
		EntityID: st.EntityID,
		Data:     CloneData(candidate),
		Actor:    c.actor,
	}
	c.mu.Unlock()

	logger := c.logger.WithContext(ctx)
	logger.Info("submitting")
	started := time.Now()
	subErr := guard(logger, "submit", func() error {
		return c.submitter.Submit(ctx, sub)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		logger.Debug("submission result discarded, session closed")
		return res, cloneError(ErrSessionClosed, "", subErr, nil)
	}

	if subErr == nil {
		_ = c.store.apply(func(s *State) error {
			s.Status = StatusCompleted
			return nil
		})
		c.store.publish(EventSubmitted, nil)
		logger.Info("submitted in %s", time.Since(started))
		return res, nil
	}

	logger.Warn("submission failed: %v", subErr)
	_ = c.store.apply(func(s *State) error {
		s.Status = StatusFailed
		s.LastError = subErr.Error()
		return nil
	})
	_ = c.store.apply(func(s *State) error {
		s.Status = StatusInProgress
		s.CurrentStepID = step.ID
		return nil
	})
	wrapped := cloneError(ErrSubmission, "", subErr, c.meta(st, nil))
	c.store.publish(EventSubmissionFailed, wrapped)
	return res, wrapped
}

// SaveDraft persists the current form data in the background and returns
// at once. The outcome arrives as a draft_saved or draft_failed event.
// A session without an entity id gets a fresh one first.
func (c *Controller) SaveDraft(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.activeState()
	if err != nil {
		return err
	}
	if !c.CanDraft() {
		return cloneError(ErrInvalidTransition, "drafts are not enabled for "+c.def.ID(), nil, c.meta(st, nil))
	}
	if st.EntityID == "" {
		id := c.newID()
		if err := c.store.apply(func(s *State) error {
			s.EntityID = id
			return nil
		}); err != nil {
			return err
		}
		st.EntityID = id
	}

	entityID, data := st.EntityID, CloneData(st.FormData)
	logger := c.logger.WithContext(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		err := guard(logger, "save draft", func() error {
			return c.drafts.Save(ctx, entityID, data)
		})

		if c.closed.Load() {
			return
		}
		if err != nil {
			logger.Warn("draft save failed entity=%s: %v", entityID, err)
			c.store.publish(EventDraftFailed, cloneError(ErrDraft, "save draft failed", err, map[string]any{"entity_id": entityID}))
			return
		}
		logger.Debug("draft saved entity=%s", entityID)
		c.store.publish(EventDraftSaved, nil)
	}()
	return nil
}

// Wait blocks until background draft saves have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// Close abandons the session. Later calls fail with ErrSessionClosed and
// results of in-flight operations are dropped.
func (c *Controller) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.logger.Debug("session closed")
}

// Closed reports whether Close was called.
func (c *Controller) Closed() bool {
	return c.closed.Load()
}

func (c *Controller) checkOpen() error {
	if c.closed.Load() {
		return cloneError(ErrSessionClosed, "", nil, map[string]any{"wizard_id": c.def.ID()})
	}
	return nil
}

// activeState returns the state when the session accepts step operations.
func (c *Controller) activeState() (State, error) {
	if err := c.checkOpen(); err != nil {
		return State{}, err
	}
	st := c.store.State()
	switch st.Status {
	case StatusInProgress:
		return st, nil
	case StatusSubmitting:
		return st, cloneError(ErrBusy, "", nil, c.meta(st, nil))
	case StatusNotStarted:
		return st, cloneError(ErrNotStarted, "", nil, c.meta(st, nil))
	}
	return st, cloneError(ErrInvalidTransition, "wizard is "+string(st.Status), nil, c.meta(st, nil))
}

func (c *Controller) meta(st State, extra map[string]any) map[string]any {
	out := map[string]any{
		"wizard_id": c.def.ID(),
		"step":      st.CurrentStepID,
		"status":    string(st.Status),
	}
	if st.EntityID != "" {
		out["entity_id"] = st.EntityID
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
