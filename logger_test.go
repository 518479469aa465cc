package wizard

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-logger/glog"
)

func TestGlogLoggerCarriesSessionFields(t *testing.T) {
	buf := &bytes.Buffer{}
	base := glog.NewLogger(
		glog.WithWriter(buf),
		glog.WithLoggerTypeJSON(),
		glog.WithLevel("trace"),
	)

	c, err := NewController(incidentDefinition(t), WithLogger(FromGlog(base)))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	logged := buf.String()
	if strings.TrimSpace(logged) == "" {
		t.Fatalf("expected go-logger output")
	}
	if !strings.Contains(logged, "wizard_id") {
		t.Fatalf("expected wizard_id field in output, got %s", logged)
	}
}

func TestFmtLoggerLevelsAndFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewFmtLogger(buf).WithLevel("warn").WithFields(map[string]any{"b": 2, "a": 1})

	logger.Info("hidden")
	logger.Warn("shown %d", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN  shown 7 a=1 b=2") {
		t.Fatalf("unexpected line: %q", out)
	}
}

func TestNilLoggerOptionKeepsNop(t *testing.T) {
	c, err := NewController(incidentDefinition(t), WithLogger(nil))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, ok := c.logger.(nopLogger); !ok {
		t.Fatalf("expected nop logger, got %T", c.logger)
	}
}
