package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/reclamos-service/internal/config"
	"github.com/spec-kit/reclamos-service/internal/observability"
	"github.com/spec-kit/reclamos-service/internal/portal"
	"github.com/spec-kit/reclamos-service/pkg/client"
)

var errNotSignedIn = errors.New("not signed in, run `reclamosctl login` or pass --guest")

// cli carries what every command needs once the root pre-run has resolved
// configuration.
type cli struct {
	out     io.Writer
	asJSON  bool
	guest   bool
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	portal *portal.Controller
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:           "reclamosctl",
		Short:         "Command line portal for the municipal claims service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	flags := root.PersistentFlags()
	flags.BoolVar(&c.asJSON, "json", false, "print JSON instead of tables")
	flags.BoolVar(&c.guest, "guest", false, "act as the anonymous guest")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.sessionCommand(),
		c.signupCommand(),
		c.claimsCommand(),
		c.usersCommand(),
		c.statsCommand(),
	)
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Logger.Output = "stderr"
	if !c.verbose {
		cfg.Logger.Level = "warn"
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	loc, err := cfg.App.Location()
	if err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	tokens, err := client.NewFileTokenStore(cfg.Client.TokenDir, cfg.Client.ProjectID)
	if err != nil {
		return err
	}
	api := client.New(client.Options{
		BaseURL:   cfg.Client.BaseURL,
		ProjectID: cfg.Client.ProjectID,
		Tokens:    tokens,
		Location:  loc,
	})
	c.cfg = cfg
	c.logger = logger
	c.portal = portal.New(api, portal.Options{Logger: logger, Location: loc})
	return nil
}

// enter restores the stored session, or enters as guest when asked to.
func (c *cli) enter(ctx context.Context) error {
	if c.guest {
		return c.portal.EnterAsGuest(ctx)
	}
	user, err := c.portal.Start(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return errNotSignedIn
	}
	return nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) table(header string, rows func(w io.Writer)) error {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
