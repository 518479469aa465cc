package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wizard/validation"
)

func TestNewDefinitionSortsByOrder(t *testing.T) {
	def, err := NewDefinition("w", "W",
		Step{ID: "c", Order: 3, Terminal: true},
		Step{ID: "a", Order: 1},
		Step{ID: "b", Order: 2},
	)
	require.NoError(t, err)

	ids := []string{}
	for _, s := range def.Steps() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "c", def.Terminal().ID)
	assert.Equal(t, 1, def.Index("b"))
	assert.Equal(t, -1, def.Index("zzz"))
}

func TestNewDefinitionRejectsBadShapes(t *testing.T) {
	cases := map[string][]Step{
		"empty":        nil,
		"no terminal":  {{ID: "a"}, {ID: "b"}},
		"two terminal": {{ID: "a", Terminal: true}, {ID: "b", Terminal: true}},
		"duplicate":    {{ID: "a"}, {ID: "a", Terminal: true}},
		"blank id":     {{ID: ""}, {ID: "b", Terminal: true}},
		"not last":     {{ID: "a", Terminal: true, Order: 1}, {ID: "b", Order: 2}},
	}
	for name, steps := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDefinition("w", "W", steps...)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidDefinition, ErrorCode(err))
		})
	}

	_, err := NewDefinition(" ", "W", Step{ID: "a", Terminal: true})
	assert.True(t, IsCode(err, ErrCodeInvalidDefinition))
}

func TestDefinitionCopiesAreIndependent(t *testing.T) {
	base := MustDefinition(NewDefinition("w", "W", Step{ID: "a", Terminal: true}))
	drafted := base.WithDrafts().WithRoles(RoleAdmin)

	assert.False(t, base.Drafts())
	assert.Empty(t, base.Roles())
	assert.True(t, drafted.Drafts())
	assert.Equal(t, []Role{RoleAdmin}, drafted.Roles())
}

func TestStepWithoutValidatorPasses(t *testing.T) {
	assert.True(t, Step{ID: "x"}.Validate(nil).Valid)

	step := Step{ID: "x", Validator: validation.NewSchema(validation.NewField("a", validation.Required))}
	assert.False(t, step.Validate(map[string]any{}).Valid)
}

func TestActorAllowed(t *testing.T) {
	admin := Actor{ID: "1", Role: RoleAdmin}
	assert.True(t, admin.Allowed(nil))
	assert.True(t, admin.Allowed([]Role{RoleCoordinator, RoleAdmin}))
	assert.False(t, Actor{Role: RoleSupportWorker}.Allowed([]Role{RoleAdmin}))
}

func TestInputParse(t *testing.T) {
	cases := []struct {
		input Input
		raw   string
		want  any
	}{
		{Input{Kind: KindText}, "  hello ", "hello"},
		{Input{Kind: KindText}, "   ", nil},
		{Input{Kind: KindSecret}, " pw ", " pw "},
		{Input{Kind: KindNumber}, "40", 40.0},
		{Input{Kind: KindNumber}, "forty", "forty"},
		{Input{Kind: KindNumber}, "", nil},
		{Input{Kind: KindBool}, "yes", true},
		{Input{Kind: KindBool}, "false", false},
		{Input{Kind: KindMulti}, "a, b,,c ", []string{"a", "b", "c"}},
		{Input{Kind: KindMulti}, " , ", nil},
		{Input{Kind: KindDate}, "2024-01-02", "2024-01-02"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.input.Parse(tc.raw), "%s %q", tc.input.Kind, tc.raw)
	}
}

func TestInputFormat(t *testing.T) {
	in := Input{}
	assert.Equal(t, "", in.Format(nil))
	assert.Equal(t, "a, b", in.Format([]string{"a", "b"}))
	assert.Equal(t, "a, 2", in.Format([]any{"a", 2}))
	assert.Equal(t, "12.5", in.Format(12.5))
	assert.Equal(t, "40", in.Format(40.0))
}

func TestMergeDataDeepMergesNestedMaps(t *testing.T) {
	base := map[string]any{
		"title":            "Broken lift",
		"skills":           []string{"a"},
		"emergencyContact": map[string]any{"name": "Sam", "phone": "1"},
	}
	out := MergeData(base, map[string]any{
		"skills":           []string{"b"},
		"emergencyContact": map[string]any{"phone": "2"},
	})

	assert.Equal(t, "Broken lift", out["title"])
	assert.Equal(t, []string{"b"}, out["skills"])
	assert.Equal(t, map[string]any{"name": "Sam", "phone": "2"}, out["emergencyContact"])
	assert.Equal(t, map[string]any{"name": "Sam", "phone": "1"}, base["emergencyContact"], "base must not change")
}

func TestHTTPStatusForError(t *testing.T) {
	assert.Equal(t, 200, HTTPStatusForError(nil))
	assert.Equal(t, 409, HTTPStatusForError(cloneError(ErrBusy, "", nil, nil)))
	assert.Equal(t, 422, HTTPStatusForError(validationError("s", validation.Valid())))
	assert.Equal(t, 403, HTTPStatusForError(cloneError(ErrForbidden, "", nil, nil)))
	assert.Equal(t, 502, HTTPStatusForError(cloneError(ErrSubmission, "", nil, nil)))
	assert.Equal(t, 500, HTTPStatusForError(assert.AnError))
}

func TestExpandNestsDottedKeys(t *testing.T) {
	got := Expand(map[string]any{
		"address.street":   "1 Main St",
		"address.postcode": "2000",
		"address":          map[string]any{"state": "NSW"},
		"firstName":        "Ana",
	})
	assert.Equal(t, map[string]any{
		"firstName": "Ana",
		"address": map[string]any{
			"street":   "1 Main St",
			"postcode": "2000",
			"state":    "NSW",
		},
	}, got)
}
