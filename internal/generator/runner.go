package generator

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command and captures its output streams
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// LookPathFunc resolves an executable name against the search path
type LookPathFunc func(file string) (string, error)

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
