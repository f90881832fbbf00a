package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/clinician-portal/api"
	"github.com/jrsteele09/clinician-portal/auth"
	"github.com/jrsteele09/clinician-portal/catalog"
	"github.com/jrsteele09/clinician-portal/checkout"
	"github.com/jrsteele09/clinician-portal/gate"
	"github.com/jrsteele09/clinician-portal/internal/config"
	apperrors "github.com/jrsteele09/clinician-portal/internal/errors"
	"github.com/jrsteele09/clinician-portal/internal/ui"
	"github.com/jrsteele09/clinician-portal/nav"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/jrsteele09/clinician-portal/session/filerepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// deps are the process resources the CLI touches, swapped out in tests.
type deps struct {
	in           io.Reader
	out          io.Writer
	errOut       io.Writer
	colour       bool
	stdinFd      int
	isTerminal   func(fd int) bool
	readPassword func(fd int) ([]byte, error)
	opener       nav.Opener
}

// app is one CLI invocation wired from config.
type app struct {
	deps

	cfg     config.Config
	printer *ui.Printer
	input   *bufio.Reader
	repo    *filerepo.FileRepo
	store   *session.Store
	client  *api.Client
	nav     *nav.Recorder
	gate    *gate.Gate
	auth    *auth.Service
	loader  *catalog.Loader
	flow    *checkout.Flow
}

func (a *app) init(ctx context.Context, configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	setupLogging(a.errOut, firstNonEmpty(logLevel, cfg.GetLogLevel()))

	a.printer = ui.NewPrinter(a.out, a.colour)
	a.input = bufio.NewReader(a.in)

	a.repo = filerepo.NewFileRepo(cfg.GetDataFolder())
	a.store = session.NewStore(a.repo)
	a.store.Hydrate(ctx)
	log.Debug().Str("path", a.repo.Path()).Msg("Session loaded")

	options := []api.ClientOption{api.WithTimeout(cfg.GetHTTPTimeout())}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		options = append(options, api.WithRequestLogging(a.colour))
	}
	a.client, err = api.New(cfg.GetAPIBaseURL(), options...)
	if err != nil {
		return err
	}

	a.nav = &nav.Recorder{}
	if a.gate, err = gate.New(a.store, a.client, a.nav); err != nil {
		return err
	}
	if a.auth, err = auth.NewService(a.client, a.store); err != nil {
		return err
	}
	a.loader = catalog.NewLoader(a.client, cfg)
	a.flow = checkout.NewFlow(a.client, a.store, a.opener, cfg)
	return nil
}

func setupLogging(out io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}

// requireSession mounts a protected guard and waits for its profile refresh.
func (a *app) requireSession(ctx context.Context) error {
	guard := a.gate.Protected()
	defer guard.Unmount()

	state, err := guard.Mount(ctx)
	if err != nil {
		return err
	}
	guard.Wait()
	if state != gate.Authenticated {
		return a.notSignedIn()
	}
	return nil
}

func (a *app) notSignedIn() error {
	a.printRoute()
	return errors.Wrap(apperrors.ErrNotAuthenticated, "run `portal login` or `portal signup` first")
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", errors.Wrap(err, "[prompt] read input")
	}
	return strings.TrimSpace(line), nil
}

func (a *app) promptPassword(label string) (string, error) {
	if !a.isTerminal(a.stdinFd) {
		return a.prompt(label)
	}
	fmt.Fprint(a.out, label)
	pwd, err := a.readPassword(a.stdinFd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", errors.Wrap(err, "[promptPassword] read password")
	}
	return string(pwd), nil
}

func (a *app) printRoute() {
	if route := a.nav.Current(); route != "" {
		a.printer.Println(ui.Gray, "→ "+route.String())
	}
}

func (a *app) displayAppname() {
	myFigure := figure.NewFigure(a.cfg.GetAppName(), "cybermedium", true)
	fmt.Fprintln(a.printer.Writer(), myFigure.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
