package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/ansiterm"
	"github.com/subosito/gotenv"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.ReadCloser, stdout, stderr io.Writer) int {
	// A missing .env is fine; values already in the environment win.
	_ = gotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(stdout, err)
		return 1
	}
	return 0
}

var errorLabel = ansiterm.Foreground(ansiterm.Red).SetStyle(ansiterm.Bold)

func printError(out io.Writer, err error) {
	w := ansiterm.NewWriter(out)
	errorLabel.Fprint(w, "error:")
	fmt.Fprintf(w, " %s\n", err)
}
