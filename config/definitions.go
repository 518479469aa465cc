package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/validation"
	"gopkg.in/yaml.v3"
)

// DefinitionSet is a file of wizard definitions.
type DefinitionSet struct {
	Version int             `json:"version" yaml:"version"`
	Wizards []DefinitionDoc `json:"wizards" yaml:"wizards"`
}

// DefinitionDoc declares one wizard.
type DefinitionDoc struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Drafts      bool          `json:"drafts,omitempty" yaml:"drafts,omitempty"`
	Roles       []wizard.Role `json:"roles,omitempty" yaml:"roles,omitempty"`
	Steps       []StepDoc     `json:"steps" yaml:"steps"`
}

// StepDoc declares one step.
type StepDoc struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Order       int            `json:"order,omitempty" yaml:"order,omitempty"`
	Terminal    bool           `json:"terminal,omitempty" yaml:"terminal,omitempty"`
	Roles       []wizard.Role  `json:"roles,omitempty" yaml:"roles,omitempty"`
	Inputs      []wizard.Input `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Fields      []FieldDoc     `json:"fields,omitempty" yaml:"fields,omitempty"`
	SkipWhen    *Condition     `json:"skip_when,omitempty" yaml:"skip_when,omitempty"`
	SkipUnless  *Condition     `json:"skip_unless,omitempty" yaml:"skip_unless,omitempty"`
}

// FieldDoc binds rules to a (possibly dotted) field name.
type FieldDoc struct {
	Name  string   `json:"name" yaml:"name"`
	Rules RulesDoc `json:"rules" yaml:"rules"`
}

// Condition compares one field of the form data with a value.
type Condition struct {
	Field  string `json:"field" yaml:"field"`
	Equals any    `json:"equals" yaml:"equals"`
}

// RangeDoc is an inclusive numeric range.
type RangeDoc struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// RulesDoc lists the rules of a field. They are compiled in the order the
// fields are declared here, so error order is stable.
type RulesDoc struct {
	Required  bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Accepted  bool       `json:"accepted,omitempty" yaml:"accepted,omitempty"`
	Email     bool       `json:"email,omitempty" yaml:"email,omitempty"`
	Number    bool       `json:"number,omitempty" yaml:"number,omitempty"`
	MinLength *int       `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int       `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   string     `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message   string     `json:"message,omitempty" yaml:"message,omitempty"`
	OneOf     []string   `json:"one_of,omitempty" yaml:"one_of,omitempty"`
	Range     *RangeDoc  `json:"range,omitempty" yaml:"range,omitempty"`
	Min       *float64   `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64   `json:"max,omitempty" yaml:"max,omitempty"`
	Date      string     `json:"date,omitempty" yaml:"date,omitempty"`
	After     string     `json:"after,omitempty" yaml:"after,omitempty"`
	EqualTo   string     `json:"equal_to,omitempty" yaml:"equal_to,omitempty"`
	MinItems  *int       `json:"min_items,omitempty" yaml:"min_items,omitempty"`
	When      *Condition `json:"when,omitempty" yaml:"when,omitempty"`
}

// ParseDefinitions decodes YAML (or JSON) wizard definitions and builds
// them.
func ParseDefinitions(data []byte) ([]*wizard.Definition, error) {
	var set DefinitionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}
	return set.Build()
}

// LoadDefinitions reads and builds every file in paths.
func LoadDefinitions(paths ...string) ([]*wizard.Definition, error) {
	var out []*wizard.Definition
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read definitions %s: %w", path, err)
		}
		defs, err := ParseDefinitions(data)
		if err != nil {
			return nil, fmt.Errorf("definitions %s: %w", path, err)
		}
		out = append(out, defs...)
	}
	return out, nil
}

// Build compiles every wizard in the set. Ids must be unique.
func (s DefinitionSet) Build() ([]*wizard.Definition, error) {
	seen := make(map[string]bool, len(s.Wizards))
	out := make([]*wizard.Definition, 0, len(s.Wizards))
	for idx, doc := range s.Wizards {
		if seen[doc.ID] {
			return nil, fmt.Errorf("wizard[%d]: duplicate id %s", idx, doc.ID)
		}
		seen[doc.ID] = true
		def, err := doc.Build()
		if err != nil {
			return nil, fmt.Errorf("wizard[%d]: %w", idx, err)
		}
		out = append(out, def)
	}
	return out, nil
}

// Build compiles the document into a definition.
func (d DefinitionDoc) Build() (*wizard.Definition, error) {
	steps := make([]wizard.Step, 0, len(d.Steps))
	for i, sd := range d.Steps {
		step, err := sd.build()
		if err != nil {
			return nil, fmt.Errorf("step[%d] %s: %w", i, sd.ID, err)
		}
		steps = append(steps, step)
	}
	def, err := wizard.NewDefinition(d.ID, d.Title, steps...)
	if err != nil {
		return nil, err
	}
	if d.Drafts {
		def = def.WithDrafts()
	}
	if len(d.Roles) > 0 {
		def = def.WithRoles(d.Roles...)
	}
	if d.Description != "" {
		def = def.WithDescription(d.Description)
	}
	return def, nil
}

func (sd StepDoc) build() (wizard.Step, error) {
	step := wizard.Step{
		ID:          sd.ID,
		Title:       sd.Title,
		Description: sd.Description,
		Order:       sd.Order,
		Terminal:    sd.Terminal,
		Roles:       sd.Roles,
		Inputs:      sd.Inputs,
	}
	if sd.SkipWhen != nil && sd.SkipUnless != nil {
		return step, fmt.Errorf("skip_when and skip_unless are exclusive")
	}
	if c := sd.SkipWhen; c != nil {
		match, err := c.predicate()
		if err != nil {
			return step, err
		}
		step.Skip = func(data map[string]any, _ wizard.Actor) bool { return match(data) }
	}
	if c := sd.SkipUnless; c != nil {
		match, err := c.predicate()
		if err != nil {
			return step, err
		}
		step.Skip = func(data map[string]any, _ wizard.Actor) bool { return !match(data) }
	}

	if len(sd.Fields) == 0 {
		return step, nil
	}
	fields := make([]validation.Field, 0, len(sd.Fields))
	for _, fd := range sd.Fields {
		if strings.TrimSpace(fd.Name) == "" {
			return step, fmt.Errorf("field name is required")
		}
		rules, err := fd.Rules.compile()
		if err != nil {
			return step, fmt.Errorf("field %s: %w", fd.Name, err)
		}
		fields = append(fields, validation.NewField(fd.Name, rules...))
	}
	step.Validator = validation.NewSchema(fields...)
	return step, nil
}

func (c Condition) predicate() (func(map[string]any) bool, error) {
	if strings.TrimSpace(c.Field) == "" {
		return nil, fmt.Errorf("condition field is required")
	}
	return validation.FieldEquals(c.Field, c.Equals), nil
}

func (r RulesDoc) compile() ([]validation.Rule, error) {
	var rules []validation.Rule
	if r.Required {
		rules = append(rules, validation.Required)
	}
	if r.Accepted {
		rules = append(rules, validation.Accepted)
	}
	if r.Email {
		rules = append(rules, validation.Email)
	}
	if r.Number {
		rules = append(rules, validation.Number)
	}
	if r.MinLength != nil {
		rules = append(rules, validation.MinLength(*r.MinLength))
	}
	if r.MaxLength != nil {
		rules = append(rules, validation.MaxLength(*r.MaxLength))
	}
	if r.Pattern != "" {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		rules = append(rules, validation.Pattern(re, r.Message))
	}
	if len(r.OneOf) > 0 {
		rules = append(rules, validation.OneOf(r.OneOf...))
	}
	if r.Range != nil {
		if r.Range.Min > r.Range.Max {
			return nil, fmt.Errorf("range min %v is greater than max %v", r.Range.Min, r.Range.Max)
		}
		rules = append(rules, validation.Range(r.Range.Min, r.Range.Max))
	}
	if r.Min != nil {
		rules = append(rules, validation.Min(*r.Min))
	}
	if r.Max != nil {
		rules = append(rules, validation.Max(*r.Max))
	}
	layout := dateLayout(r.Date)
	if r.Date != "" {
		rules = append(rules, validation.Date(layout))
	}
	if r.After != "" {
		rules = append(rules, validation.After(r.After, layout))
	}
	if r.EqualTo != "" {
		rules = append(rules, validation.EqualTo(r.EqualTo))
	}
	if r.MinItems != nil {
		rules = append(rules, validation.MinItems(*r.MinItems))
	}
	if r.When != nil {
		match, err := r.When.predicate()
		if err != nil {
			return nil, err
		}
		for i, rule := range rules {
			rules[i] = validation.When(match, rule)
		}
	}
	return rules, nil
}

// dateLayout maps the date rule value to a time layout. "true" and
// "iso" mean the default YYYY-MM-DD layout.
func dateLayout(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "iso", "yes":
		return validation.DateLayout
	}
	return v
}
