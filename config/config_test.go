package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	wizard "github.com/goliatone/go-wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Drafts.Driver)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
api:
  base_url: https://care.example.org/api
  timeout: 5s
drafts:
  driver: memory
  retention: 72h
  schedule: "*/15 * * * *"
  timezone: Australia/Sydney
logging:
  level: debug
  format: json
actor:
  id: u-1
  role: coordinator
  organization_id: org-9
`))
	require.NoError(t, err)
	assert.Equal(t, "https://care.example.org/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2, cfg.API.MaxRetries, "unset keys keep defaults")
	assert.Equal(t, DriverMemory, cfg.Drafts.Driver)
	assert.Equal(t, 72*time.Hour, cfg.Drafts.Retention)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, wizard.Actor{ID: "u-1", Role: wizard.RoleCoordinator, OrganizationID: "org-9"}, cfg.Actor)

	loc, err := cfg.Drafts.Location()
	require.NoError(t, err)
	assert.Equal(t, "Australia/Sydney", loc.String())
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"driver":   "drafts: {driver: redis}",
		"sqlite":   "drafts: {driver: sqlite, path: ''}",
		"base url": "api: {base_url: ''}",
		"format":   "logging: {format: xml}",
		"timezone": "drafts: {timezone: Mars/Olympus}",
		"table":    "drafts: {table: 'drafts; DROP TABLE x'}",
		"yaml":     "api: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestResolveToken(t *testing.T) {
	t.Setenv("WIZARD_TEST_TOKEN", "from-env")
	assert.Equal(t, "from-env", APIConfig{TokenEnv: "WIZARD_TEST_TOKEN"}.ResolveToken())
	assert.Equal(t, "inline", APIConfig{Token: "inline", TokenEnv: "WIZARD_TEST_TOKEN"}.ResolveToken())
	assert.Equal(t, "", APIConfig{}.ResolveToken())
}

func TestMarshalRoundTripsThroughParse(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(filepath.Join("testdata", "feedback.yaml"))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "service_feedback", def.ID())
	assert.True(t, def.Drafts())
	assert.Equal(t, []wizard.Role{wizard.RoleParticipant, wizard.RoleCoordinator}, def.Roles())
	assert.Equal(t, 3, def.Len())
	assert.Equal(t, "comments", def.Terminal().ID)

	step, ok := def.Step("rating")
	require.True(t, ok)
	require.Len(t, step.Inputs, 2)
	assert.Equal(t, wizard.KindNumber, step.Inputs[1].Kind)

	res := step.Validate(map[string]any{"rating": "9"})
	assert.Equal(t, map[string]string{
		"shiftId": "required",
		"rating":  "must be between 1 and 5",
	}, res.Map())
}

func TestDefinitionsDriveAController(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "feedback.yaml"))
	require.NoError(t, err)
	defs, err := ParseDefinitions(data)
	require.NoError(t, err)

	ctrl, err := wizard.NewController(defs[0],
		wizard.WithActor(wizard.Actor{Role: wizard.RoleParticipant}),
		wizard.WithSubmitter(wizard.SubmitFunc(func(context.Context, wizard.Submission) error { return nil })),
	)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Start(ctx, nil))

	_, err = ctrl.Next(map[string]any{"shiftId": "s-1", "rating": 4})
	require.NoError(t, err)
	assert.Equal(t, "comments", ctrl.CurrentStep().ID, "follow up is skipped without a callback request")

	require.NoError(t, ctrl.Back())
	_, err = ctrl.Next(map[string]any{"wantsCallback": true})
	require.NoError(t, err)
	assert.Equal(t, "followup", ctrl.CurrentStep().ID)

	res, err := ctrl.Next(map[string]any{"contact": map[string]any{"phone": "12345"}})
	require.Error(t, err)
	assert.Equal(t, []string{"must be 10 digits"}, res.ForField("contact.phone"))

	_, err = ctrl.Next(map[string]any{"contact": map[string]any{"phone": "0412345678"}})
	require.NoError(t, err)

	res, err = ctrl.Submit(ctx, map[string]any{"visitDate": "2024-05-02", "nextVisit": "2024-05-01"})
	require.Error(t, err)
	assert.Equal(t, []string{"must be after visitDate"}, res.ForField("nextVisit"))

	_, err = ctrl.Submit(ctx, map[string]any{"nextVisit": "2024-05-09"})
	require.NoError(t, err)
	assert.Equal(t, wizard.StatusCompleted, ctrl.State().Status)
}

func TestParseDefinitionsErrors(t *testing.T) {
	tests := map[string]string{
		"bad pattern": `
wizards:
  - id: w
    steps:
      - id: a
        terminal: true
        fields:
          - name: x
            rules: {pattern: "("}
`,
		"duplicate wizard": `
wizards:
  - id: w
    steps: [{id: a, terminal: true}]
  - id: w
    steps: [{id: a, terminal: true}]
`,
		"no terminal": `
wizards:
  - id: w
    steps: [{id: a}, {id: b}]
`,
		"inverted range": `
wizards:
  - id: w
    steps:
      - id: a
        terminal: true
        fields:
          - name: x
            rules: {range: {min: 5, max: 1}}
`,
		"both skips": `
wizards:
  - id: w
    steps:
      - id: a
        skip_when: {field: x, equals: 1}
        skip_unless: {field: x, equals: 2}
      - id: b
        terminal: true
`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDefinitions([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestWhenWrapsEveryRule(t *testing.T) {
	n := 3
	rules, err := RulesDoc{
		Required:  true,
		MinLength: &n,
		When:      &Condition{Field: "kind", Equals: "other"},
	}.compile()
	require.NoError(t, err)
	require.Len(t, rules, 2)

	data := map[string]any{"kind": "standard"}
	for _, r := range rules {
		assert.NoError(t, r.Validate(nil, data))
	}
	data["kind"] = "other"
	assert.Error(t, rules[0].Validate(nil, data))
}
