package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-logger/glog"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/api"
	"github.com/goliatone/go-wizard/config"
	"github.com/goliatone/go-wizard/draft"
	"github.com/goliatone/go-wizard/wizards"
)

// cli holds the global flags and the command groups. Leaf commands are
// mounted through the registry, which needs a Run method on each.
type cli struct {
	Config    string `short:"c" help:"Configuration file." default:"wizard.yaml" type:"path" env:"WIZARD_CONFIG"`
	BaseURL   string `name:"base-url" help:"Override api.base_url."`
	Token     string `help:"Override the API bearer token."`
	LogLevel  string `name:"log-level" help:"Override logging.level."`
	LogFormat string `name:"log-format" help:"Override logging.format (console or json)."`
	Role      string `help:"Acting role, overrides actor.role."`
	UserID    string `name:"user-id" help:"Acting user id, overrides actor.id."`
	Org       string `help:"Organisation id, overrides actor.organization_id."`

	Drafts  draftsCmd  `cmd:"" group:"Drafts" help:"Manage saved drafts."`
	Invites invitesCmd `cmd:"" group:"Backend" help:"Organisation invites for the acting user."`
}

func commands() []cliCommand {
	return []cliCommand{
		&listCmd{},
		&describeCmd{},
		&validateCmd{},
		&runCmd{},
		&fillCmd{},
		&sweepCmd{},
		&timesheetsCmd{},
		&adminsCmd{},
		&exportCmd{},
		&analyticsCmd{},
		&configCmd{},
	}
}

func newParser(root *cli, stdout, stderr io.Writer, extra ...kong.Option) (*kong.Kong, error) {
	reg := newRegistry()
	if err := reg.register(commands()...); err != nil {
		return nil, err
	}
	if err := reg.initialize(); err != nil {
		return nil, err
	}
	options, err := reg.options()
	if err != nil {
		return nil, err
	}
	options = append(options,
		kong.Name("wizardctl"),
		kong.Description("Care coordination wizards from the terminal."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	return kong.New(root, append(options, extra...)...)
}

// run parses args and executes the selected command. It returns the
// process exit code: 2 for usage errors, 1 for failures.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, extra ...kong.Option) int {
	var root cli
	parser, err := newParser(&root, stdout, stderr, extra...)
	if err != nil {
		fmt.Fprintf(stderr, "wizardctl: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "wizardctl: %v\n", err)
		return 2
	}

	e, err := newEnv(ctx, root, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "wizardctl: %v\n", err)
		return 1
	}
	defer e.close()

	if err := kctx.Run(e); err != nil {
		fmt.Fprintf(stderr, "wizardctl: %v\n", err)
		return 1
	}
	return 0
}

// env is bound to every command's Run.
type env struct {
	ctx    context.Context
	cfg    config.Config
	out    io.Writer
	logger wizard.Logger
	defs   map[string]*wizard.Definition
	now    func() time.Time

	repo   draft.Repository
	closer io.Closer
	client *api.Client
}

func newEnv(ctx context.Context, root cli, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	applyOverrides(&cfg, root)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{
		ctx:    ctx,
		cfg:    cfg,
		out:    stdout,
		logger: newLogger(cfg.Logging, stderr),
		defs:   map[string]*wizard.Definition{},
		now:    time.Now,
	}
	for _, def := range wizards.Catalog() {
		e.defs[def.ID()] = def
	}
	if len(cfg.Definitions) > 0 {
		extra, err := config.LoadDefinitions(cfg.Definitions...)
		if err != nil {
			return nil, err
		}
		for _, def := range extra {
			if _, dup := e.defs[def.ID()]; dup {
				return nil, fmt.Errorf("definition %s is already in the catalog", def.ID())
			}
			e.defs[def.ID()] = def
		}
	}
	return e, nil
}

func applyOverrides(cfg *config.Config, root cli) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.API.BaseURL, root.BaseURL)
	set(&cfg.API.Token, root.Token)
	set(&cfg.Logging.Level, root.LogLevel)
	set(&cfg.Logging.Format, root.LogFormat)
	set(&cfg.Actor.ID, root.UserID)
	set(&cfg.Actor.OrganizationID, root.Org)
	if strings.TrimSpace(root.Role) != "" {
		cfg.Actor.Role = wizard.Role(strings.ToLower(strings.TrimSpace(root.Role)))
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) wizard.Logger {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	var base glog.Logger
	if strings.EqualFold(cfg.Format, "json") {
		base = glog.NewLogger(glog.WithWriter(w), glog.WithLoggerTypeJSON(), glog.WithLevel(level))
	} else {
		base = glog.NewLogger(glog.WithWriter(w), glog.WithLevel(level))
	}
	return wizard.FromGlog(base)
}

func (e *env) close() {
	if e.closer != nil {
		if err := e.closer.Close(); err != nil {
			e.logger.Warn("close draft store: %v", err)
		}
		e.closer = nil
	}
}

func (e *env) ids() []string {
	ids := make([]string, 0, len(e.defs))
	for id := range e.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *env) definition(id string) (*wizard.Definition, error) {
	def, ok := e.defs[id]
	if !ok {
		return nil, fmt.Errorf("unknown wizard %q, known: %s", id, strings.Join(e.ids(), ", "))
	}
	return def, nil
}

// drafts opens the configured draft repository once.
func (e *env) drafts() (draft.Repository, error) {
	if e.repo != nil {
		return e.repo, nil
	}
	switch e.cfg.Drafts.Driver {
	case config.DriverSQLite:
		store, err := draft.Open(e.cfg.Drafts.Path, draft.WithTable(e.cfg.Drafts.Table))
		if err != nil {
			return nil, err
		}
		e.repo, e.closer = store, store
	default:
		e.repo = draft.NewMemoryStore()
	}
	return e.repo, nil
}

// api builds the backend client once.
func (e *env) api() (*api.Client, error) {
	if e.client != nil {
		return e.client, nil
	}
	opts := []api.Option{
		api.WithToken(e.cfg.API.ResolveToken()),
		api.WithLogger(e.logger),
		api.WithRetry(api.DefaultBackoff, e.cfg.API.MaxRetries),
	}
	if e.cfg.API.Timeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: e.cfg.API.Timeout}))
	}
	client, err := api.New(e.cfg.API.BaseURL, opts...)
	if err != nil {
		return nil, err
	}
	e.client = client
	return client, nil
}

func (e *env) titles() map[string]string {
	out := make(map[string]string, len(e.defs))
	for id, def := range e.defs {
		out[id] = def.Title()
	}
	return out
}
