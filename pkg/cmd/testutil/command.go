package testutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/urfave/cli/v3"
)

// RunCommand executes a command with test context
func RunCommand(t *testing.T, command *cli.Command, args []string) error {
	t.Helper()

	_, err := RunCommandWithOutput(t, command, args)
	return err
}

// RunCommandWithOutput executes a command and returns everything it wrote to
// its output writers.
func RunCommandWithOutput(t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()

	return RunCommandWithContext(context.Background(), t, command, args)
}

// RunCommandWithContext executes a command with a custom context and returns
// its output.
func RunCommandWithContext(ctx context.Context, t *testing.T, command *cli.Command, args []string) (string, error) {
	t.Helper()

	var buf bytes.Buffer

	// Create a test CLI app
	app := &cli.Command{
		Name:      "test",
		Writer:    &buf,
		ErrWriter: &buf,
		Commands:  []*cli.Command{command},
	}

	// Prepend command name to args
	fullArgs := append([]string{"test", command.Name}, args...)

	err := app.Run(ctx, fullArgs)
	return buf.String(), err
}
