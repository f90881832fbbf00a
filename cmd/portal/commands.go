package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/clinician-portal/auth"
	"github.com/jrsteele09/clinician-portal/catalog"
	"github.com/jrsteele09/clinician-portal/checkout"
	"github.com/jrsteele09/clinician-portal/dashboard"
	"github.com/jrsteele09/clinician-portal/gate"
	"github.com/jrsteele09/clinician-portal/internal/ui"
	"github.com/jrsteele09/clinician-portal/internal/utils"
	"github.com/jrsteele09/clinician-portal/session"
	"github.com/spf13/cobra"
)

const (
	appName = "portal"
	Version = "0.1.0"
)

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d}
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           appName,
		Short:         "Clinician portal client",
		Long:          "Sign in to the clinician portal, browse courses and purchase plans.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init(cmd.Context(), configPath, logLevel)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.displayAppname()
			a.printStatus()
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.statusCmd(),
		a.profileCmd(),
		a.coursesCmd(),
		a.dashboardCmd(),
		a.buyCmd(),
		a.subscribeCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(d.out, "%s version %s\n", appName, Version)
			},
		},
	)
	return root
}

func (a *app) signupCmd() *cobra.Command {
	var form auth.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry := a.gate.Entry()
			defer entry.Unmount()
			if _, err := entry.Mount(cmd.Context()); err != nil {
				return err
			}
			if entry.Redirected() {
				a.printer.Println(ui.Yellow, "Already signed in")
				a.printRoute()
				return nil
			}

			var err error
			if form.Email == "" {
				if form.Email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			if form.Password, err = a.promptPassword("Create password: "); err != nil {
				return err
			}
			if form.ConfirmPassword, err = a.promptPassword("Confirm password: "); err != nil {
				return err
			}

			if err := a.auth.Signup(cmd.Context(), form); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Welcome, %s", a.store.Snapshot().Profile.FirstName()))
			a.printRoute()
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.OrganizationName, "organization", "", "Organization name")
	f.StringVar(&form.Address, "address", "", "Address")
	f.StringVar(&form.PhoneNumber, "phone", "", "Phone number")
	f.StringVar(&form.Email, "email", "", "Email")
	f.StringVar(&form.OwnerName, "owner", "", "Owner name")
	f.StringVar(&form.LicenseNumber, "license", "", "License number")
	f.StringVar(&form.Position, "position", "", "Position")
	f.StringVar(&form.Website, "website", "", "Website (optional)")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var form auth.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry := a.gate.Entry()
			defer entry.Unmount()
			if _, err := entry.Mount(cmd.Context()); err != nil {
				return err
			}
			if entry.Redirected() {
				a.printer.Println(ui.Yellow, "Already signed in")
				a.printRoute()
				return nil
			}

			var err error
			if form.Email == "" {
				if form.Email, err = a.prompt("Email: "); err != nil {
					return err
				}
			}
			if form.Password, err = a.promptPassword("Password: "); err != nil {
				return err
			}

			if err := a.auth.Login(cmd.Context(), form); err != nil {
				return err
			}
			a.printer.Success(fmt.Sprintf("Welcome back, %s", a.store.Snapshot().Profile.FirstName()))
			a.printRoute()
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "Email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.auth.Logout()
			a.printer.Success("Signed out")
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.printStatus()
			return nil
		},
	}
}

func (a *app) printStatus() {
	sess := a.store.Snapshot()
	state := gate.Resolve(sess)
	if state != gate.Authenticated {
		a.printer.Println(ui.Yellow, "Not signed in")
		return
	}
	a.printer.Printf(ui.Green, "Signed in as %s (%s)\n", sess.Profile.OwnerName, utils.MaskEmail(sess.Profile.Email))

	info, err := auth.InspectToken(sess.AccessToken)
	if err != nil {
		a.printer.Println(ui.Gray, "Access token: opaque")
		return
	}
	if info.ExpiresAt.IsZero() {
		a.printer.Println(ui.Gray, "Access token: no expiry")
		return
	}
	if info.Expired(time.Now()) {
		a.printer.Println(ui.Yellow, "Access token: expired "+info.ExpiresAt.Local().Format(time.RFC1123))
		return
	}
	a.printer.Println(ui.Gray, "Access token: expires "+info.ExpiresAt.Local().Format(time.RFC1123))
}

func (a *app) profileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.mountDashboard(cmd)
			if err != nil {
				return err
			}
			p := snap.Profile
			a.printer.Println(ui.MagentaInverse, " "+snap.Initials+" ")
			a.printer.Printf("", "Organization:   %s\n", p.OrganizationName)
			a.printer.Printf("", "Owner:          %s\n", p.OwnerName)
			a.printer.Printf("", "Email:          %s\n", p.Email)
			a.printer.Printf("", "License number: %s\n", p.LicenseNumber)
			a.printer.Printf("", "Position:       %s\n", p.Position)
			a.printer.Printf("", "Website:        %s\n", firstNonEmpty(utils.Value(p.Website), "-"))
			return nil
		},
	}
}

func (a *app) coursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List purchased and available courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.mountDashboard(cmd)
			if err != nil {
				return err
			}
			a.printer.Printf(ui.Cyan, "Hello, %s\n", snap.FirstName)
			a.printCourses("Your courses", snap.Catalog.Purchased)
			a.printCourses("Available courses", snap.Catalog.Available)
			return nil
		},
	}
}

func (a *app) dashboardCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := dashboard.New(a.gate, a.loader)
			defer view.Unmount()

			snap, err := view.Mount(cmd.Context())
			if err != nil {
				return err
			}
			if !snap.Render() {
				return a.notSignedIn()
			}

			a.printer.Printf(ui.MagentaInverse, " %s ", snap.Initials)
			a.printer.Printf(ui.Cyan, " %s\n", snap.Profile.OrganizationName)
			a.printer.Printf("", "Hello, %s\n", snap.FirstName)
			a.printCourses("Your courses", snap.Catalog.Purchased)
			a.printCourses("Available courses", snap.Catalog.Available)
			if !watch {
				return nil
			}
			return a.watchSession(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running until signed out from another terminal")
	return cmd
}

// watchSession follows the session file and returns once the session ends.
func (a *app) watchSession(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signedOut := make(chan struct{})
	var once sync.Once
	unsubscribe := a.store.Subscribe(func(s session.Session) {
		if gate.Resolve(s) == gate.Anonymous {
			once.Do(func() { close(signedOut) })
		}
	})
	defer unsubscribe()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- a.repo.Watch(ctx, a.store.Adopt)
	}()
	a.printer.Println(ui.Gray, "Watching session, Ctrl-C to exit")

	select {
	case <-signedOut:
		// Let the change finish reaching every listener before reading the route.
		cancel()
		<-watchErr
		a.printer.Println(ui.Yellow, "Signed out elsewhere")
		a.printRoute()
		return nil
	case err := <-watchErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *app) mountDashboard(cmd *cobra.Command) (dashboard.Snapshot, error) {
	view := dashboard.New(a.gate, a.loader)
	defer view.Unmount()

	snap, err := view.Mount(cmd.Context())
	if err != nil {
		return snap, err
	}
	if !snap.Render() {
		return snap, a.notSignedIn()
	}
	return snap, nil
}

func (a *app) printCourses(heading string, entries []catalog.Entry) {
	a.printer.Println(ui.GreenInverse, " "+heading+" ")
	if len(entries) == 0 {
		a.printer.Println(ui.Gray, "  none")
		return
	}
	for _, e := range entries {
		colour := ui.Blue
		if e.Locked() {
			colour = ui.Gray
		}
		a.printer.Printf("", "  %s  %s\n", e.ID, e.Title)
		a.printer.Println(colour, "    "+e.Status())
	}
}

func (a *app) buyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy courses or the premium bundle",
	}

	var courseIDs []string
	standard := &cobra.Command{
		Use:   "standard",
		Short: "Buy individual courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := a.flow.SelectPlan(checkout.PlanStandard); err != nil {
				return err
			}
			for _, id := range courseIDs {
				if err := a.flow.ToggleCourse(id); err != nil {
					return err
				}
			}
			return a.submit(cmd)
		},
	}
	standard.Flags().StringSliceVar(&courseIDs, "course", nil, "Course id to buy (repeatable)")

	premium := &cobra.Command{
		Use:   "premium",
		Short: "Buy every course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := a.flow.SelectPlan(checkout.PlanPremium); err != nil {
				return err
			}
			return a.submit(cmd)
		},
	}

	cmd.AddCommand(standard, premium)
	return cmd
}

func (a *app) submit(cmd *cobra.Command) error {
	a.printer.Printf(ui.Gray, "Total: %s\n", checkout.FormatPrice(a.cfg.GetCurrency(), a.flow.Amount()))
	cs, err := a.flow.Submit(cmd.Context())
	if err != nil {
		return err
	}
	a.printer.Success("Checkout opened: " + cs.URL)
	return nil
}

func (a *app) subscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "subscribe standard|premium",
		Short:     "Subscribe to a plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(checkout.PlanStandard), string(checkout.PlanPremium)},
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := checkout.ParsePlan(args[0])
			if err != nil {
				return err
			}
			if err := a.requireSession(cmd.Context()); err != nil {
				return err
			}

			for _, offer := range checkout.Offers(a.cfg) {
				if offer.Plan != plan {
					continue
				}
				amount, err := checkout.ParsePrice(offer.Price)
				if err != nil {
					return err
				}
				a.printer.Printf(ui.Gray, "%s plan: %s / year\n", offer.Name, offer.Price)
				cs, err := a.flow.PurchasePlan(cmd.Context(), amount)
				if err != nil {
					return err
				}
				a.printer.Success("Checkout opened: " + cs.URL)
				return nil
			}
			return nil
		},
	}
}
