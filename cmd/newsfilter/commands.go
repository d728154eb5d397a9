package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stake-plus/newsfilter/src/api"
	"github.com/stake-plus/newsfilter/src/discord"
	"github.com/stake-plus/newsfilter/src/textutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when a token is configured, the Discord bot",
	RunE:  runServe,
}

var checkContext string

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Analyze one message and print the result as JSON",
	Example: `  newsfilter check "Discord announced a new AI moderation feature"
  echo "Курс доллара вырос на 5%" | newsfilter check -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and edit the source catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List categories, or the domains of one category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogList,
}

var catalogDescription string

var catalogAddCmd = &cobra.Command{
	Use:   "add <category> <domain>",
	Short: "Add a domain to a category, persisted when MySQL is configured",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogAdd,
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "remove <category> <domain>",
	Short: "Remove a domain from a category",
	Args:  cobra.ExactArgs(2),
	RunE:  runCatalogRemove,
}

func init() {
	checkCmd.Flags().StringVar(&checkContext, "context", "cli", "context label passed to the pipeline")
	catalogAddCmd.Flags().StringVar(&catalogDescription, "description", "", "description of a new category")
	catalogCmd.AddCommand(catalogListCmd, catalogAddCmd, catalogRemoveCmd)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	var bot *discord.Bot
	if a.cfg.Discord.Token != "" {
		seen, err := a.dedupSet(ctx)
		if err != nil {
			return err
		}
		if bot, err = discord.New(a.cfg.Discord, pipeline, seen, logger); err != nil {
			return err
		}
	} else {
		logger.Info("discord token not configured, bot disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	server := api.New(a.cfg.API, pipeline, a.catalog, logger)
	g.Go(func() error { return server.Run(gctx) })
	if bot != nil {
		g.Go(func() error { return bot.Run(gctx) })
	}

	logger.Info("newsfilter started",
		zap.String("model", a.cfg.AI.Model),
		zap.String("api", a.cfg.API.Listen),
	)
	return g.Wait()
}

func runCheck(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		text = string(raw)
	}
	text = textutil.Clean(text)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}
	res, err := pipeline.Analyze(ctx, text, checkContext)
	if err != nil {
		logger.Error("analysis failed", zap.Error(err))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	return err
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		domains := a.catalog.DomainsForCategory(args[0])
		if len(domains) == 0 {
			return fmt.Errorf("category %q not found or empty", args[0])
		}
		for _, d := range domains {
			fmt.Fprintln(out, d)
		}
		return nil
	}

	descriptions := a.catalog.Categories()
	names := a.catalog.Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%-16s %3d  %s\n", name, len(a.catalog.DomainsForCategory(name)), descriptions[name])
	}
	return nil
}

func runCatalogAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.db == nil {
		logger.Warn("MYSQL_DSN not set, change is not persisted")
	}

	added, err := a.catalog.AddDomain(cmd.Context(), args[0], args[1], catalogDescription)
	if err != nil {
		return err
	}
	if !added {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already in %s\n", args[1], args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[1], args[0])
	return nil
}

func runCatalogRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.catalog.RemoveDomain(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%s is not in %s", args[1], args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s from %s\n", args[1], args[0])
	return nil
}
