// Package wizard is a small multi-step form engine. A Definition lists the
// ordered steps of a flow, a Store holds the accumulated form data for one
// session and a Controller drives the session through its lifecycle:
//
//	not_started -> in_progress -> submitting -> completed | failed
//
// Drafts and submissions go through the DraftStore and Submitter adapters.
package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-wizard/validation"
)

// Status is the lifecycle position of a wizard session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitting Status = "submitting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Role is the acting user's role.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleCoordinator   Role = "coordinator"
	RoleSupportWorker Role = "support_worker"
	RoleParticipant   Role = "participant"
)

// Actor is the user driving a session. It is always passed in explicitly.
type Actor struct {
	ID             string `json:"id,omitempty" yaml:"id"`
	Role           Role   `json:"role,omitempty" yaml:"role"`
	OrganizationID string `json:"organizationId,omitempty" yaml:"organization_id"`
}

// Allowed reports whether the actor holds one of roles. No roles means anyone.
func (a Actor) Allowed(roles []Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == a.Role {
			return true
		}
	}
	return false
}

// InputKind tells renderers how to collect a value.
type InputKind string

const (
	KindText     InputKind = "text"
	KindSecret   InputKind = "secret"
	KindTextarea InputKind = "textarea"
	KindSelect   InputKind = "select"
	KindMulti    InputKind = "multi"
	KindBool     InputKind = "bool"
	KindNumber   InputKind = "number"
	KindDate     InputKind = "date"
)

// Choice is one option of a select or multi input.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label"`
}

// Input describes one field a step collects.
type Input struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label,omitempty" yaml:"label"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Kind        InputKind `json:"kind,omitempty" yaml:"kind"`
	Choices     []Choice  `json:"choices,omitempty" yaml:"choices"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder"`
}

// Parse converts raw text into the value stored in form data. Blank text
// parses to nil so required checks see it as missing. Unparseable numbers
// are kept as text and left for the validator to reject.
func (in Input) Parse(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch in.Kind {
	case KindSecret, KindTextarea:
		if trimmed == "" {
			return nil
		}
		return raw
	case KindMulti:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case KindBool:
		switch strings.ToLower(trimmed) {
		case "":
			return nil
		case "y", "yes", "on":
			return true
		case "n", "no", "off":
			return false
		}
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return b
		}
		return trimmed
	case KindNumber:
		if trimmed == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
		return trimmed
	}
	if trimmed == "" {
		return nil
	}
	return trimmed
}

// Format renders a stored value back into editable text.
func (in Input) Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

// SkipFunc decides whether a step is passed over for the current data.
type SkipFunc func(data map[string]any, actor Actor) bool

// Step is one screen of a wizard.
type Step struct {
	ID          string
	Title       string
	Description string
	Order       int
	Inputs      []Input
	Validator   validation.Validator
	Terminal    bool
	Skip        SkipFunc
	Roles       []Role
}

// Validate runs the step validator. Steps without one always pass.
func (s Step) Validate(data map[string]any) validation.Result {
	if s.Validator == nil {
		return validation.Valid()
	}
	return s.Validator.Validate(data)
}

func (s Step) skipped(data map[string]any, actor Actor) bool {
	return !s.Terminal && s.Skip != nil && s.Skip(data, actor)
}

// Definition is an immutable, ordered set of steps with exactly one
// terminal step in last position.
type Definition struct {
	id          string
	title       string
	description string
	drafts      bool
	roles       []Role
	steps       []Step
	index       map[string]int
}

// NewDefinition sorts steps by Order (stable) and checks the definition
// shape.
func NewDefinition(id, title string, steps ...Step) (*Definition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, cloneError(ErrInvalidDefinition, "wizard id is required", nil, nil)
	}
	if len(steps) == 0 {
		return nil, cloneError(ErrInvalidDefinition, "wizard has no steps", nil, map[string]any{"wizard_id": id})
	}

	sorted := append([]Step{}, steps...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	index := make(map[string]int, len(sorted))
	terminals := 0
	for i, step := range sorted {
		if strings.TrimSpace(step.ID) == "" {
			return nil, cloneError(ErrInvalidDefinition, fmt.Sprintf("step %d has no id", i), nil, map[string]any{"wizard_id": id})
		}
		if _, dup := index[step.ID]; dup {
			return nil, cloneError(ErrInvalidDefinition, "duplicate step id "+step.ID, nil, map[string]any{"wizard_id": id, "step": step.ID})
		}
		index[step.ID] = i
		if step.Terminal {
			terminals++
		}
	}
	if terminals != 1 {
		return nil, cloneError(ErrInvalidDefinition, fmt.Sprintf("wizard needs exactly one terminal step, found %d", terminals), nil, map[string]any{"wizard_id": id})
	}
	if !sorted[len(sorted)-1].Terminal {
		return nil, cloneError(ErrInvalidDefinition, "terminal step must be the last step", nil, map[string]any{"wizard_id": id})
	}

	return &Definition{id: id, title: title, steps: sorted, index: index}, nil
}

// MustDefinition panics on an invalid definition. For static catalogs.
func MustDefinition(def *Definition, err error) *Definition {
	if err != nil {
		panic(err)
	}
	return def
}

// WithDrafts returns a copy that supports draft persistence.
func (d *Definition) WithDrafts() *Definition {
	cp := *d
	cp.drafts = true
	return &cp
}

// WithRoles returns a copy that only the given roles may start.
func (d *Definition) WithRoles(roles ...Role) *Definition {
	cp := *d
	cp.roles = append([]Role{}, roles...)
	return &cp
}

// WithDescription returns a copy carrying a description.
func (d *Definition) WithDescription(desc string) *Definition {
	cp := *d
	cp.description = desc
	return &cp
}

func (d *Definition) ID() string          { return d.id }
func (d *Definition) Title() string       { return d.title }
func (d *Definition) Description() string { return d.description }
func (d *Definition) Drafts() bool        { return d.drafts }
func (d *Definition) Len() int            { return len(d.steps) }

// Roles returns the roles allowed to start the wizard.
func (d *Definition) Roles() []Role { return append([]Role{}, d.roles...) }

// Steps returns the steps in order.
func (d *Definition) Steps() []Step { return append([]Step{}, d.steps...) }

// Step looks up a step by id.
func (d *Definition) Step(id string) (Step, bool) {
	i, ok := d.index[id]
	if !ok {
		return Step{}, false
	}
	return d.steps[i], true
}

// Index returns the position of a step, or -1.
func (d *Definition) Index(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	return -1
}

// First returns the first step in order, skipped or not.
func (d *Definition) First() Step { return d.steps[0] }

// Terminal returns the submitting step.
func (d *Definition) Terminal() Step { return d.steps[len(d.steps)-1] }

// firstActive is the first step not skipped for data.
func (d *Definition) firstActive(data map[string]any, actor Actor) Step {
	for _, s := range d.steps {
		if !s.skipped(data, actor) {
			return s
		}
	}
	return d.Terminal()
}

// nextActive returns the step after id that is not skipped.
func (d *Definition) nextActive(id string, data map[string]any, actor Actor) (Step, bool) {
	i, ok := d.index[id]
	if !ok {
		return Step{}, false
	}
	for j := i + 1; j < len(d.steps); j++ {
		if !d.steps[j].skipped(data, actor) {
			return d.steps[j], true
		}
	}
	return Step{}, false
}

// prevActive returns the step before id that is not skipped.
func (d *Definition) prevActive(id string, data map[string]any, actor Actor) (Step, bool) {
	i, ok := d.index[id]
	if !ok {
		return Step{}, false
	}
	for j := i - 1; j >= 0; j-- {
		if !d.steps[j].skipped(data, actor) {
			return d.steps[j], true
		}
	}
	return Step{}, false
}
