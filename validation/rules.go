package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// DateLayout is the wire format used by the date pickers.
const DateLayout = "2006-01-02"

var (
	errRequired  = ozzo.NewError("validation_required", "required")
	errNotNumber = ozzo.NewError("validation_not_number", "must be a number")
	errNotList   = ozzo.NewError("validation_not_list", "must be a list")
	errAccepted  = ozzo.NewError("validation_accepted", "must be accepted")
)

// ozzoRule lifts an ozzo rule into a Rule.
type ozzoRule struct {
	rule ozzo.Rule
}

func (r ozzoRule) Validate(value any, _ map[string]any) error {
	return ozzo.Validate(value, r.rule)
}

// Required fails for nil, blank strings and empty collections.
var Required Rule = RuleFunc(func(value any, _ map[string]any) error {
	if IsMissing(value) {
		return errRequired
	}
	return nil
})

// Accepted requires a checked box: true, "true", "yes", "on" or "1".
var Accepted Rule = RuleFunc(func(value any, _ map[string]any) error {
	v, isNil := ozzo.Indirect(value)
	if isNil {
		return errAccepted
	}
	switch b := v.(type) {
	case bool:
		if b {
			return nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "on", "1", "y":
			return nil
		}
	}
	return errAccepted
})

// Email checks the address shape only, no MX lookups.
var Email Rule = ozzoRule{rule: is.EmailFormat.Error("must be a valid email address")}

// MinLength requires at least n characters.
func MinLength(n int) Rule {
	return ozzoRule{rule: ozzo.RuneLength(n, 0).Error(fmt.Sprintf("must be at least %d characters", n))}
}

// MaxLength allows at most n characters.
func MaxLength(n int) Rule {
	return ozzoRule{rule: ozzo.RuneLength(0, n).Error(fmt.Sprintf("must be at most %d characters", n))}
}

// Pattern requires the string form of the value to match re.
func Pattern(re *regexp.Regexp, message string) Rule {
	if message == "" {
		message = "must be in a valid format"
	}
	return ozzoRule{rule: ozzo.Match(re).Error(message)}
}

// OneOf requires membership in an enumerated set. Lists are checked item by item.
func OneOf(values ...string) Rule {
	allowed := make([]any, 0, len(values))
	for _, v := range values {
		allowed = append(allowed, v)
	}
	msg := "must be one of: " + strings.Join(values, ", ")
	in := ozzo.In(allowed...).Error(msg)
	return RuleFunc(func(value any, _ map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		if items, ok := ToStrings(value); ok {
			for _, item := range items {
				if err := ozzo.Validate(item, in); err != nil {
					return fmt.Errorf("%q %s", item, msg)
				}
			}
			return nil
		}
		v, _ := ozzo.Indirect(value)
		if _, ok := v.(string); !ok {
			v = fmt.Sprint(v)
		}
		return ozzo.Validate(v, in)
	})
}

// Number requires a numeric value or numeric string.
var Number Rule = RuleFunc(func(value any, _ map[string]any) error {
	if IsMissing(value) {
		return nil
	}
	if _, err := ToNumber(value); err != nil {
		return errNotNumber
	}
	return nil
})

// Min requires a number no less than min; numeric strings are coerced first.
func Min(min float64) Rule {
	return RuleFunc(func(value any, _ map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		n, err := ToNumber(value)
		if err != nil {
			return errNotNumber
		}
		if n < min {
			return fmt.Errorf("must be no less than %s", formatNumber(min))
		}
		return nil
	})
}

// Max requires a number no greater than max.
func Max(max float64) Rule {
	return RuleFunc(func(value any, _ map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		n, err := ToNumber(value)
		if err != nil {
			return errNotNumber
		}
		if n > max {
			return fmt.Errorf("must be no greater than %s", formatNumber(max))
		}
		return nil
	})
}

// Range requires min <= n <= max.
func Range(min, max float64) Rule {
	return RuleFunc(func(value any, _ map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		n, err := ToNumber(value)
		if err != nil {
			return errNotNumber
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %s and %s", formatNumber(min), formatNumber(max))
		}
		return nil
	})
}

// Date requires a string in the given layout.
func Date(layout string) Rule {
	if layout == "" {
		layout = DateLayout
	}
	return ozzoRule{rule: ozzo.Date(layout).Error("must be a valid date")}
}

// After is a cross-field rule: the value must be a date strictly after the
// date held by other. Missing or unparseable operands are left to Date/Required.
func After(other, layout string) Rule {
	if layout == "" {
		layout = DateLayout
	}
	return RuleFunc(func(value any, data map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		otherValue, ok := Lookup(data, other)
		if !ok || IsMissing(otherValue) {
			return nil
		}
		current, err := parseTime(value, layout)
		if err != nil {
			return nil
		}
		reference, err := parseTime(otherValue, layout)
		if err != nil {
			return nil
		}
		if !current.After(reference) {
			return fmt.Errorf("must be after %s", other)
		}
		return nil
	})
}

// EqualTo is a cross-field rule comparing string forms.
func EqualTo(other string) Rule {
	return RuleFunc(func(value any, data map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		otherValue, _ := Lookup(data, other)
		if fmt.Sprint(value) != fmt.Sprint(otherValue) {
			return fmt.Errorf("must match %s", other)
		}
		return nil
	})
}

// MinItems requires a list with at least n entries. Empty lists are left to Required.
func MinItems(n int) Rule {
	return RuleFunc(func(value any, _ map[string]any) error {
		if IsMissing(value) {
			return nil
		}
		v, _ := ozzo.Indirect(value)
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return errNotList
		}
		if rv.Len() < n {
			return fmt.Errorf("must contain at least %d items", n)
		}
		return nil
	})
}

// When applies rules only if pred holds for the record. The first failing
// rule is reported.
func When(pred func(data map[string]any) bool, rules ...Rule) Rule {
	return RuleFunc(func(value any, data map[string]any) error {
		if pred == nil || !pred(data) {
			return nil
		}
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			if err := rule.Validate(value, data); err != nil {
				return err
			}
		}
		return nil
	})
}

// FieldEquals is a predicate helper for When.
func FieldEquals(field string, want any) func(map[string]any) bool {
	return func(data map[string]any) bool {
		v, ok := Lookup(data, field)
		return ok && fmt.Sprint(v) == fmt.Sprint(want)
	}
}

func parseTime(value any, layout string) (time.Time, error) {
	v, _ := ozzo.Indirect(value)
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(layout, strings.TrimSpace(t))
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
