// Command scorecard records rubric scores for judged competitions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/scorecard/internal/cli"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cli.ExitSuccess
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Flag parsing and unknown commands.
		fmt.Fprintln(stderr, "Error:", err)
		return cli.ExitCommandError
	}
	if !exitErr.Reported {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitErr.Code
}
