// Command crate runs the recommendation engine and the corpus audit from the
// terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"crateapi/internal/app"
	"crateapi/internal/config"
	"crateapi/internal/logging"
	"crateapi/internal/recommend"
	"crateapi/internal/review"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

type recommender interface {
	Recommend(ctx context.Context, req recommend.SourcingRequest, user *recommend.User) (recommend.Result, error)
	Modes() map[recommend.Mode]recommend.Policy
}

type auditor interface {
	Run(ctx context.Context) (*review.AuditRun, error)
}

// env builds the collaborators for a command. The returned func releases
// whatever was opened.
type env struct {
	recommender func(ctx context.Context, withCorpus bool) (recommender, func(), error)
	auditor     func(ctx context.Context, cfg review.AuditConfig) (auditor, func(), error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(defaultEnv()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(e env) *cobra.Command {
	root := &cobra.Command{
		Use:     "crate",
		Short:   "Dig for a random record",
		Version: version,
	}
	root.SetVersionTemplate("crate version {{.Version}}\n")

	root.AddCommand(newPickCmd(e), newAuditCmd(e), newModesCmd(e))
	return root
}

func newPickCmd(e env) *cobra.Command {
	var (
		mode, query, market, exclude, token string
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick one random record for a sourcing mode",
		Example: `  crate pick --mode genre --query shoegaze
  crate pick --mode publication --query pitchfork --exclude 4xZ3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := recommend.Mode(mode)
			svc, release, err := e.recommender(cmd.Context(), m.Family() == recommend.FamilyPublication)
			if err != nil {
				return err
			}
			defer release()

			var user *recommend.User
			if token != "" {
				user = &recommend.User{ID: "cli", AccessToken: token}
			}
			res, err := svc.Recommend(cmd.Context(), recommend.SourcingRequest{
				Mode:      m,
				Query:     query,
				Market:    market,
				ExcludeID: exclude,
			}, user)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderCard(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(recommend.ModeGenre), "sourcing mode (see 'crate modes')")
	cmd.Flags().StringVarP(&query, "query", "q", "", "mode query: genre, artist, label, reviewer or feed")
	cmd.Flags().StringVar(&market, "market", "", "two-letter market code")
	cmd.Flags().StringVar(&exclude, "exclude", "", "catalog id that must not be picked")
	cmd.Flags().StringVar(&token, "token", os.Getenv("CRATE_USER_TOKEN"), "user access token for library modes")
	return cmd
}

func newAuditCmd(e env) *cobra.Command {
	var cfg review.AuditConfig
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check corpus rows against the catalog and record resolvability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, release, err := e.auditor(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer release()

			run, err := a.Run(cmd.Context())
			if run != nil {
				fmt.Fprintln(cmd.OutOrStdout(), renderAudit(run))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&cfg.All, "all", false, "re-check rows that already have a verdict")
	cmd.Flags().IntVar(&cfg.MaxRows, "max", 0, "stop after this many rows (0 = no limit)")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch", 100, "rows fetched per page")
	return cmd
}

func newModesCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List sourcing modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := e.recommender(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer release()

			table := svc.Modes()
			modes := make([]string, 0, len(table))
			for m := range table {
				modes = append(modes, string(m))
			}
			sort.Strings(modes)
			out := cmd.OutOrStdout()
			for _, m := range modes {
				p := table[recommend.Mode(m)]
				auth := ""
				if p.RequiresUser {
					auth = " (sign-in)"
				}
				fmt.Fprintf(out, "%-20s %-12s %s%s\n", m, p.Family, p.QueryHint, auth)
			}
			return nil
		},
	}
}

// describe turns engine errors into terminal-friendly messages.
func describe(err error) error {
	switch {
	case errors.Is(err, recommend.ErrEmptyPool):
		return fmt.Errorf("nothing matches that query: %w", err)
	case errors.Is(err, recommend.ErrUnauthenticated):
		return fmt.Errorf("this mode needs --token or CRATE_USER_TOKEN: %w", err)
	case errors.Is(err, recommend.ErrRetriesExhausted):
		return fmt.Errorf("no candidate found, try again: %w", err)
	}
	return err
}

func loadConfig() (*config.Config, error) {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})
	return cfg, nil
}

func defaultEnv() env {
	return env{
		recommender: func(ctx context.Context, withCorpus bool) (recommender, func(), error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			client := app.NewCatalogClient(ctx, cfg.Catalog)
			release := func() {}
			var corpus review.Repository
			if withCorpus {
				store, closeStore, err := app.OpenStore(ctx, cfg.Database)
				if err != nil {
					return nil, nil, err
				}
				corpus, release = store, closeStore
			}
			feeds := app.NewEditorialSource(cfg.Editorial, cfg.Catalog.Timeout)
			return app.NewRecommendService(cfg.Recommend, client, corpus, feeds), release, nil
		},
		auditor: func(ctx context.Context, ac review.AuditConfig) (auditor, func(), error) {
			cfg, err := loadConfig()
			if err != nil {
				return nil, nil, err
			}
			store, closeStore, err := app.OpenStore(ctx, cfg.Database)
			if err != nil {
				return nil, nil, err
			}
			client := app.NewCatalogClient(ctx, cfg.Catalog)
			resolver := review.NewResolver(client, cfg.Catalog.DefaultMarket)
			return review.NewAuditor(store, store, resolver, ac), closeStore, nil
		},
	}
}
