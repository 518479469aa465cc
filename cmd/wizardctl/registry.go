package main

import (
	"reflect"
	"strings"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/goliatone/go-errors"
)

// cliConfig describes how a command is mounted on the root parser.
type cliConfig struct {
	Name        string
	Description string
	Group       string
	Hidden      bool
}

func (opts cliConfig) tags() []string {
	var tags []string
	if opts.Hidden {
		tags = append(tags, `hidden:""`)
	}
	return tags
}

// cliCommand is a kong leaf command, a struct with a Run method, that
// knows where it is mounted. Command groups are fields on cli.
type cliCommand interface {
	CLIOptions() cliConfig
}

type registry struct {
	mu          sync.Mutex
	commands    []cliCommand
	names       map[string]struct{}
	initialized bool
	cliOptions  []kong.Option
}

func newRegistry() *registry {
	return &registry{names: make(map[string]struct{})}
}

func (r *registry) register(cmds ...cliCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return errors.New("cannot register commands after registry has been initialized", errors.CategoryConflict).
			WithTextCode("REGISTRY_ALREADY_INITIALIZED")
	}
	for _, cmd := range cmds {
		if cmd == nil {
			return errors.New("command cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_COMMAND")
		}
		name := strings.TrimSpace(cmd.CLIOptions().Name)
		if name == "" {
			return errors.New("command name cannot be empty", errors.CategoryBadInput).
				WithTextCode("CLI_NAME_EMPTY")
		}
		if _, ok := reflect.TypeOf(cmd).MethodByName("Run"); !ok {
			return errors.New("cli command must have a Run method", errors.CategoryBadInput).
				WithTextCode("CLI_RUN_MISSING").
				WithMetadata(map[string]any{"name": name})
		}
		if _, dup := r.names[name]; dup {
			return errors.New("cli command already registered", errors.CategoryConflict).
				WithTextCode("CLI_NAME_CONFLICT").
				WithMetadata(map[string]any{"name": name})
		}
		r.names[name] = struct{}{}
		r.commands = append(r.commands, cmd)
	}
	return nil
}

func (r *registry) initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return errors.New("registry already initialized", errors.CategoryConflict).
			WithTextCode("REGISTRY_ALREADY_INITIALIZED")
	}
	for _, cmd := range r.commands {
		opts := cmd.CLIOptions()
		r.cliOptions = append(r.cliOptions, kong.DynamicCommand(
			opts.Name,
			opts.Description,
			opts.Group,
			cmd,
			opts.tags()...,
		))
	}
	r.initialized = true
	return nil
}

func (r *registry) options() ([]kong.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil, errors.New("registry not initialized", errors.CategoryConflict).
			WithTextCode("REGISTRY_NOT_INITIALIZED")
	}
	options := make([]kong.Option, len(r.cliOptions))
	copy(options, r.cliOptions)
	return options, nil
}
