package pkgmanager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/slok/pkgmcp/internal/log"
	"github.com/slok/pkgmcp/internal/model"
)

// OSRunner is the os/exec implementation of Runner. It blocks until the
// process finishes, so callers are expected to run it from their own
// goroutine/worker.
type OSRunner struct {
	logger log.Logger
}

// NewOSRunner creates a new OS runner.
func NewOSRunner(logger log.Logger) *OSRunner {
	if logger == nil {
		logger = log.Noop
	}

	return &OSRunner{logger: logger.WithValues(log.Kv{"svc": "pkgmanager.OSRunner"})}
}

// Run executes the command capturing stdout and stderr.
func (r *OSRunner) Run(ctx context.Context, cmd Command) (*model.ExecResult, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)

	if len(cmd.Env) > 0 {
		c.Env = os.Environ()
		for k, v := range cmd.Env {
			c.Env = append(c.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.logger.Debugf("Running %s %s", cmd.Path, strings.Join(cmd.Args, " "))

	err := c.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never ran (missing binary, permissions...).
			return nil, fmt.Errorf("could not run %q: %w", cmd.Path, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &model.ExecResult{
		Stdout:   lossyUTF8(stdout.Bytes()),
		Stderr:   lossyUTF8(stderr.Bytes()),
		ExitCode: exitCode,
	}, nil
}

// lossyUTF8 replaces invalid byte sequences with the Unicode replacement
// character, so captured output is always valid UTF-8.
func lossyUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
