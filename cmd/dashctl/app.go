package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pcprimedz/dashboard"
	"github.com/pcprimedz/dashboard/api"
	"github.com/pcprimedz/dashboard/querycache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reportedError carries the sentence shown to the operator. The detail has
// already gone to the logger.
type reportedError struct {
	msg string
	err error
}

func (e *reportedError) Error() string { return e.msg }
func (e *reportedError) Unwrap() error { return e.err }

type app struct {
	out    io.Writer
	errOut io.Writer

	envFile     string
	sessionFile string
	debug       bool

	logger *zap.Logger
	client *dashboard.Client
	api    *api.API
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Shop administration from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with DASHBOARD_* settings")
	flags.StringVar(&a.sessionFile, "session-file", "", "session file (default: user config dir)")
	flags.BoolVar(&a.debug, "debug", false, "log requests and failures to stderr")

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.productsCmd(),
		a.categoriesCmd(),
		a.ordersCmd(),
		a.companyOrdersCmd(),
		a.componentsCmd(),
		a.sliderCmd(),
		a.logsCmd(),
		a.statsCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := dashboard.LoadConfig(a.envFile)
	if err != nil {
		return err
	}

	// A terminal session has to outlive the process.
	if cfg.Session.Backend == dashboard.BackendMemory || a.sessionFile != "" {
		path, err := a.sessionPath()
		if err != nil {
			return err
		}
		cfg.Session.Backend = dashboard.BackendFile
		cfg.Session.File = path
	}

	a.logger = zap.NewNop()
	if a.debug {
		cfg.HTTP.DebugLogging = true
		if a.logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	a.client, err = dashboard.New().
		WithConfig(cfg).
		WithLogger(a.logger).
		WithNavigator(dashboard.NavigatorFunc(func(context.Context, string) {
			fmt.Fprintln(a.errOut, "Session expired. Run `dashctl login` again.")
		})).
		Build()
	if err != nil {
		return err
	}
	if err := a.client.Restore(ctx); err != nil {
		return err
	}

	a.api = api.New(a.client, querycache.New(cfg.Cache.Size, cfg.Cache.TTL), a.logger)
	return nil
}

func (a *app) teardown() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *app) sessionPath() (string, error) {
	if a.sessionFile != "" {
		return a.sessionFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	dir = filepath.Join(dir, "dashctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "session.json"), nil
}

// fail logs err and replaces it with the operator-facing sentence.
func (a *app) fail(err error) error {
	if err == nil {
		return nil
	}
	msg := dashboard.Report(a.logger, err)
	if errors.Is(err, api.ErrNotFound) {
		msg = dashboard.MsgNotFound
	}
	return &reportedError{msg: msg, err: err}
}

// admin wraps run so it only executes for an admin session.
func (a *app) admin(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.client.RequireAdmin(); err != nil {
			return a.fail(err)
		}
		return a.fail(run(cmd, args))
	}
}
