package wizard

import (
	"fmt"
	"runtime"
	"strings"
)

// PanicError is returned when an adapter panics instead of returning an error.
type PanicError struct {
	Op    string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// guard runs fn and turns a panic into a *PanicError, logging the
// trimmed stack.
func guard(logger Logger, op string, fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := make([]byte, 8096)
		stack = cleanStackTrace(stack[:runtime.Stack(stack, false)])
		logger.Error("recovered from panic in %s: %v\n%s", op, r, stack)
		err = &PanicError{Op: op, Value: r, Stack: stack}
	}()
	return fn()
}

func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			// drop the panic frame and its file line
			if i+2 < len(lines) {
				lines = lines[i+2:]
			}
			break
		}
	}
	return []byte(strings.Join(lines, "\n"))
}
