package util

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError is returned when a command exits unsuccessfully.
// It keeps stderr around because Juju's tools explain themselves there.
type CommandError struct {
	Name   string
	Args   []string
	Stderr []byte
	Err    error
}

func (self *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", self.Name, strings.Join(self.Args, " "), self.Err)
	if stderr := strings.TrimSpace(string(self.Stderr)); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (self *CommandError) Unwrap() error {
	return self.Err
}

// CommandRunner runs a command to completion and returns its stdout.
type CommandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// RunCommand is the CommandRunner backed by os/exec.
func RunCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &CommandError{Name: name, Args: args, Stderr: stderr.Bytes(), Err: err}
	}

	return stdout.Bytes(), nil
}
