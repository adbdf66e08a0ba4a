// Command bizcheck looks up and verifies business registrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/bizcheck/internal/cli"
	"github.com/rshade/bizcheck/pkg/version"
)

func main() {
	os.Exit(extractExitCode(run()))
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	root.SetVersionTemplate("bizcheck " + version.String() + "\n")
	return root.ExecuteContext(ctx)
}

// extractExitCode maps a command error to a process exit code, printing it.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Reason)
		return exitErr.Code
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
