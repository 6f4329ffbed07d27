package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "github.com/git-pkgs/compare/all"
	"github.com/git-pkgs/compare/internal/config"
	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/internal/server"
	"github.com/git-pkgs/compare/search"
	"github.com/git-pkgs/compare/view"
)

const version = "0.1.0"

const ecosystem = "npm"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *logrus.Logger
	client *core.Client
	reg    core.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:           "pkgcompare",
		Short:         "Compare npm packages side by side",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("registry-url", "", "npm registry base URL")
	flags.String("downloads-url", "", "npm downloads API base URL")
	flags.String("user-agent", "pkgcompare", "User-Agent sent to the registry")
	flags.Duration("timeout", 0, "per-request timeout (0 uses the platform default)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")
	bindFlags(a.v, flags.Lookup, map[string]string{
		config.KeyRegistryURL:  "registry-url",
		config.KeyDownloadsURL: "downloads-url",
		config.KeyUserAgent:    "user-agent",
		config.KeyTimeout:      "timeout",
		config.KeyLogLevel:     "log-level",
		config.KeyLogFormat:    "log-format",
	})

	rootCmd.AddCommand(newServeCmd(a), newCompareCmd(a), newVersionCmd())
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	config.LoadDotEnv()

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(cmd.ErrOrStderr())

	opts := []core.Option{}
	if cfg.Timeout > 0 {
		opts = append(opts, core.WithTimeout(cfg.Timeout))
	}
	a.client = core.NewClient(opts...).WithUserAgent(cfg.UserAgent)

	reg, err := core.New(ecosystem, core.Endpoints{
		Registry:  cfg.RegistryURL,
		Downloads: cfg.DownloadsURL,
	}, a.client)
	if err != nil {
		return err
	}
	a.reg = reg
	return nil
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison UI over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := server.New(server.Options{
				Registry:    a.reg,
				Client:      a.client,
				Logger:      a.logger,
				MaxSessions: a.cfg.MaxSessions,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, a.cfg.Addr)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int("max-sessions", 1024, "maximum number of live sessions")
	bindFlags(a.v, cmd.Flags().Lookup, map[string]string{
		config.KeyAddr:        "addr",
		config.KeyMaxSessions: "max-sessions",
	})
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <package>...",
		Short: "Fetch packages and print their comparison",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd.Context(), cmd, args, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}

func (a *app) runCompare(ctx context.Context, cmd *cobra.Command, names []string, asJSON bool) error {
	ctrl := search.NewController(a.reg,
		search.WithEcosystem(ecosystem),
		search.WithObserver(func(ev search.Event) {
			entry := a.logger.WithField("package", ev.Name)
			var fe *core.FetchError
			if errors.As(ev.Err, &fe) {
				entry = entry.WithError(fe.Cause())
			} else if ev.Err != nil {
				entry = entry.WithError(ev.Err)
			}
			entry.WithField("result", ev.Result).Debug("search finished")
		}),
	)

	var failed int
	for _, name := range names {
		if err := ctrl.Submit(ctx, name); err != nil {
			failed++
			a.logger.WithField("package", name).WithError(err).Error("package not compared")
		}
	}
	ctrl.Dismiss()

	page := view.NewPage(ctrl.State(), a.reg.URLs())
	out := cmd.OutOrStdout()
	if asJSON {
		if err := writeJSON(out, page); err != nil {
			return err
		}
	} else if err := view.RenderText(out, page); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d packages could not be compared", failed, len(names))
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
