package wizard

import "context"

// Submission is the payload handed to a Submitter from the terminal step.
type Submission struct {
	WizardID string
	EntityID string
	Data     map[string]any
	Actor    Actor
}

// Submitter performs the single atomic submit call. The engine imposes no
// timeout; ctx is the only way to cancel it.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitFunc adapts a function into a Submitter.
type SubmitFunc func(ctx context.Context, sub Submission) error

func (f SubmitFunc) Submit(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

// DraftStore loads and saves in-progress form data keyed by entity id.
// Load returns nil, nil when no draft exists. Save must be idempotent.
type DraftStore interface {
	Load(ctx context.Context, entityID string) (map[string]any, error)
	Save(ctx context.Context, entityID string, data map[string]any) error
}
