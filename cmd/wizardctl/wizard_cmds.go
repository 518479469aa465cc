package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/api"
	"github.com/goliatone/go-wizard/config"
	"github.com/goliatone/go-wizard/draft"
	"github.com/goliatone/go-wizard/tui"
	"github.com/goliatone/go-wizard/validation"
	"github.com/goliatone/go-wizard/wizards"
)

var titleCase = cases.Title(language.English)

type listCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *listCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "list", Description: "List the available wizards.", Group: "Wizards"}
}

type definitionSummary struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Steps  int           `json:"steps"`
	Drafts bool          `json:"drafts"`
	Roles  []wizard.Role `json:"roles"`
}

func (c *listCmd) Run(e *env) error {
	rows := make([]definitionSummary, 0, len(e.defs))
	for _, id := range e.ids() {
		def := e.defs[id]
		rows = append(rows, definitionSummary{ID: id, Title: def.Title(), Steps: def.Len(), Drafts: def.Drafts(), Roles: def.Roles()})
	}
	if c.JSON {
		return writeJSON(e.out, rows)
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTEPS\tDRAFTS\tROLES")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.Title, r.Steps, yesNo(r.Drafts), rolesText(r.Roles))
	}
	return tw.Flush()
}

type describeCmd struct {
	ID string `arg:"" help:"Wizard id."`
}

func (c *describeCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "describe", Description: "Show the steps and inputs of a wizard.", Group: "Wizards"}
}

func (c *describeCmd) Run(e *env) error {
	def, err := e.definition(c.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s (%s)\n", def.Title(), def.ID())
	if def.Description() != "" {
		fmt.Fprintln(e.out, def.Description())
	}
	fmt.Fprintf(e.out, "Roles: %s\n", rolesText(def.Roles()))
	fmt.Fprintf(e.out, "Drafts: %s\n", yesNo(def.Drafts()))

	for i, step := range def.Steps() {
		fmt.Fprintf(e.out, "\n%d. %s [%s]", i+1, step.Title, step.ID)
		if step.Terminal {
			fmt.Fprint(e.out, " (submit)")
		}
		if len(step.Roles) > 0 {
			fmt.Fprintf(e.out, " roles: %s", rolesText(step.Roles))
		}
		fmt.Fprintln(e.out)
		for _, in := range step.Inputs {
			kind := in.Kind
			if kind == "" {
				kind = wizard.KindText
			}
			fmt.Fprintf(e.out, "   - %s: %s (%s)", in.ID, in.Label, titleCase.String(string(kind)))
			if len(in.Choices) > 0 {
				values := make([]string, 0, len(in.Choices))
				for _, ch := range in.Choices {
					values = append(values, ch.Value)
				}
				fmt.Fprintf(e.out, " one of %s", strings.Join(values, ", "))
			}
			fmt.Fprintln(e.out)
		}
	}
	return nil
}

type validateCmd struct {
	Files []string `arg:"" type:"existingfile" help:"YAML definition files."`
}

func (c *validateCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "validate", Description: "Check YAML wizard definitions.", Group: "Wizards"}
}

func (c *validateCmd) Run(e *env) error {
	for _, path := range c.Files {
		defs, err := config.LoadDefinitions(path)
		if err != nil {
			return err
		}
		for _, def := range defs {
			fmt.Fprintf(e.out, "ok  %s  %s (%d steps)\n", path, def.ID(), def.Len())
		}
	}
	return nil
}

// answers is the YAML file fed to run: defaults plus one input map per
// step id.
type answers struct {
	Defaults map[string]any            `yaml:"defaults"`
	Steps    map[string]map[string]any `yaml:"steps"`
}

func loadAnswers(path string) (answers, error) {
	var a answers
	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("read answers: %w", err)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("answers %s: %w", path, err)
	}
	return a, nil
}

// SessionFlags are shared by run and fill.
type SessionFlags struct {
	EntityID string `name:"entity-id" help:"Draft id to resume."`
	DryRun   bool   `name:"dry-run" help:"Print the request instead of sending it."`
	Endpoint string `help:"Endpoint for wizards outside the catalog, e.g. /feedback/{shiftId}."`
}

type runCmd struct {
	ID      string `arg:"" help:"Wizard id."`
	Answers string `short:"a" required:"" type:"existingfile" help:"YAML answers file."`

	SessionFlags `embed:""`
}

func (c *runCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "run", Description: "Fill a wizard from an answers file and submit it.", Group: "Wizards"}
}

func (c *runCmd) Run(e *env) error {
	a, err := loadAnswers(c.Answers)
	if err != nil {
		return err
	}
	ctrl, err := e.controller(c.ID, c.SessionFlags)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Start(e.ctx, a.Defaults); err != nil {
		return err
	}
	res, err := drive(e.ctx, ctrl, a.Steps)
	ctrl.Wait()
	if err != nil {
		printFieldErrors(e.out, res)
		return err
	}
	if !c.DryRun {
		fmt.Fprintf(e.out, "submitted %s\n", c.ID)
	}
	return nil
}

// drive walks the controller with one input map per step until the
// terminal step is submitted.
func drive(ctx context.Context, ctrl *wizard.Controller, steps map[string]map[string]any) (validation.Result, error) {
	for i := 0; i <= ctrl.Definition().Len(); i++ {
		step := ctrl.CurrentStep()
		input := steps[step.ID]
		if step.Terminal {
			res, err := ctrl.Submit(ctx, input)
			if err != nil {
				return res, fmt.Errorf("submit %s: %w", step.ID, err)
			}
			return res, nil
		}
		res, err := ctrl.Next(input)
		if err != nil {
			return res, fmt.Errorf("step %s: %w", step.ID, err)
		}
	}
	return validation.Valid(), fmt.Errorf("wizard %s did not reach its terminal step", ctrl.Definition().ID())
}

func printFieldErrors(w io.Writer, res validation.Result) {
	if res.Valid {
		return
	}
	fields := res.Map()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}

type fillCmd struct {
	ID string `arg:"" help:"Wizard id."`

	SessionFlags `embed:""`
}

func (c *fillCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "fill", Description: "Fill a wizard interactively.", Group: "Wizards"}
}

func (c *fillCmd) Run(e *env) error {
	ctrl, err := e.controller(c.ID, c.SessionFlags)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	app, err := tui.New(ctrl, tui.WithTitles(e.titles()))
	if err != nil {
		return err
	}
	st, err := app.Start(e.ctx)
	ctrl.Wait()
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s: %s\n", c.ID, titleCase.String(strings.ReplaceAll(string(st.Status), "_", " ")))
	if st.EntityID != "" && st.Status != wizard.StatusCompleted {
		fmt.Fprintf(e.out, "resume with: wizardctl fill %s --entity-id %s\n", c.ID, st.EntityID)
	}
	return nil
}

// controller assembles a session for id with the configured actor,
// draft store and submitter.
func (e *env) controller(id string, flags SessionFlags) (*wizard.Controller, error) {
	def, err := e.definition(id)
	if err != nil {
		return nil, err
	}
	submitter, err := e.submitter(def, flags)
	if err != nil {
		return nil, err
	}
	opts := []wizard.Option{
		wizard.WithActor(e.cfg.Actor),
		wizard.WithLogger(e.logger),
		wizard.WithSubmitter(submitter),
		wizard.WithEntityID(flags.EntityID),
	}
	if def.Drafts() {
		repo, err := e.drafts()
		if err != nil {
			return nil, err
		}
		opts = append(opts, wizard.WithDraftStore(draft.ForWizard(repo, def.ID())))
	}
	return wizard.NewController(def, opts...)
}

func (e *env) submitter(def *wizard.Definition, flags SessionFlags) (wizard.Submitter, error) {
	path, reshape := e.route(def, flags.Endpoint)
	if flags.DryRun {
		return wizard.SubmitFunc(func(_ context.Context, sub wizard.Submission) error {
			p, err := path(sub)
			if err != nil {
				return err
			}
			body, err := reshape(sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "POST %s\n", p)
			return writeJSON(e.out, body)
		}), nil
	}
	if _, catalog := wizards.Lookup(def.ID()); !catalog && strings.TrimSpace(flags.Endpoint) == "" {
		return nil, fmt.Errorf("wizard %s is not in the catalog, pass --endpoint", def.ID())
	}
	client, err := e.api()
	if err != nil {
		return nil, err
	}
	return api.NewSubmitter(client, path, reshape), nil
}

// route picks the endpoint and body shape. Catalog wizards use their own
// unless an endpoint is given; other wizards post their form data as is.
func (e *env) route(def *wizard.Definition, endpoint string) (api.PathFunc, api.Reshape) {
	_, catalog := wizards.Lookup(def.ID())
	reshape := api.PassThrough
	if catalog {
		reshape = wizards.Body
	}
	if strings.TrimSpace(endpoint) != "" {
		return api.ParamPath(endpoint), reshape
	}
	if catalog {
		return wizards.Path, reshape
	}
	return api.StaticPath("/" + def.ID()), reshape
}

type configCmd struct{}

func (c *configCmd) CLIOptions() cliConfig {
	return cliConfig{Name: "config", Description: "Print the effective configuration."}
}

func (c *configCmd) Run(e *env) error {
	cfg := e.cfg
	if cfg.API.Token != "" {
		cfg.API.Token = "********"
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = e.out.Write(data)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func rolesText(roles []wizard.Role) string {
	if len(roles) == 0 {
		return "any"
	}
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}
