// Package validation evaluates declarative field rules against wizard form
// data. A Schema is a pure function of its input: it never mutates data and
// never returns Go errors for malformed values, those become field errors.
package validation

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeValidationFailed is attached to errors produced by Result.Err.
const TextCodeValidationFailed = "VALIDATION_FAILED"

// Validator checks a candidate record and reports per-field errors.
type Validator interface {
	Validate(data map[string]any) Result
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(data map[string]any) Result

// Validate implements Validator.
func (f ValidatorFunc) Validate(data map[string]any) Result {
	if f == nil {
		return Valid()
	}
	return f(data)
}

// Rule checks a single field value. data is the whole candidate record so
// cross-field rules can read sibling values.
type Rule interface {
	Validate(value any, data map[string]any) error
}

// RuleFunc adapts a function into a Rule.
type RuleFunc func(value any, data map[string]any) error

// Validate implements Rule.
func (f RuleFunc) Validate(value any, data map[string]any) error {
	return f(value, data)
}

// Field binds a (possibly dotted) field path to its rules.
type Field struct {
	Name  string
	Rules []Rule
}

// NewField is a small constructor used by schema literals.
func NewField(name string, rules ...Rule) Field {
	return Field{Name: name, Rules: rules}
}

// Schema is an ordered list of fields.
type Schema struct {
	fields []Field
}

// NewSchema builds a schema. Field order is the error order.
func NewSchema(fields ...Field) *Schema {
	return &Schema{fields: append([]Field{}, fields...)}
}

// Fields returns the declared field names in order.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// Validate runs every rule of every field and collects one error per
// violated rule.
func (s *Schema) Validate(data map[string]any) Result {
	res := Valid()
	if s == nil {
		return res
	}
	for _, field := range s.fields {
		value, _ := Lookup(data, field.Name)
		for _, rule := range field.Rules {
			if rule == nil {
				continue
			}
			if msg, failed := check(rule, value, data); failed {
				res.Errors = append(res.Errors, goerrors.FieldError{
					Field:   field.Name,
					Message: msg,
				})
			}
		}
	}
	res.Valid = len(res.Errors) == 0
	return res
}

func check(rule Rule, value any, data map[string]any) (msg string, failed bool) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("invalid value: %v", r)
			failed = true
		}
	}()
	if err := rule.Validate(value, data); err != nil {
		return err.Error(), true
	}
	return "", false
}

// Result is the outcome of validating one step.
type Result struct {
	Valid  bool                      `json:"valid"`
	Errors goerrors.ValidationErrors `json:"errors,omitempty"`
}

// Valid returns a passing result.
func Valid() Result {
	return Result{Valid: true}
}

// Invalid builds a failing result from field errors.
func Invalid(errs ...goerrors.FieldError) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Merge combines results; the merged result is valid only if all are.
func Merge(results ...Result) Result {
	out := Valid()
	for _, r := range results {
		out.Errors = append(out.Errors, r.Errors...)
	}
	out.Valid = len(out.Errors) == 0
	return out
}

// ForField returns the messages reported for a field.
func (r Result) ForField(field string) []string {
	var out []string
	for _, fe := range r.Errors {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

// Map returns the first message per field, handy for inline rendering.
func (r Result) Map() map[string]string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(r.Errors))
	for _, fe := range r.Errors {
		if _, ok := out[fe.Field]; ok {
			continue
		}
		out[fe.Field] = fe.Message
	}
	return out
}

// Err converts a failing result into a go-errors validation error.
func (r Result) Err() error {
	if r.Valid && len(r.Errors) == 0 {
		return nil
	}
	return goerrors.NewValidation("validation failed", r.Errors...).
		WithTextCode(TextCodeValidationFailed)
}
