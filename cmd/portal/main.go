package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/jrsteele09/clinician-portal/api"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/internal/ui"
	"github.com/jrsteele09/clinician-portal/nav"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/term"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			code = 2
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := int(os.Stdin.Fd())
	d := deps{
		in:           os.Stdin,
		out:          os.Stdout,
		errOut:       os.Stderr,
		colour:       term.IsTerminal(int(os.Stdout.Fd())),
		stdinFd:      stdin,
		isTerminal:   term.IsTerminal,
		readPassword: term.ReadPassword,
		opener:       nav.BrowserOpener{},
	}
	if err := newRootCmd(d).ExecuteContext(ctx); err != nil {
		ui.NewPrinter(os.Stderr, d.colour).Error("Error: " + errorText(err))
		return 1
	}
	return 0
}

// errorText is the message shown for a failed command. Backend errors show
// the backend's message; a missing session keeps the hint wrapped around it.
func errorText(err error) string {
	var apiErr *api.Error
	if apperrors.Is(err, apperrors.ErrNotAuthenticated) && !pkgerrors.As(err, &apiErr) {
		return err.Error()
	}
	return api.Message(err)
}
