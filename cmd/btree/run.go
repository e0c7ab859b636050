package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/btree/internal/config"
	"github.com/zeusync/btree/internal/core/observability/log"
	"github.com/zeusync/btree/internal/demo/alien"
	"github.com/zeusync/btree/internal/injector"
)

var runFlags struct {
	config   string
	document string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run alien tree instances until interrupted",
	Long: `Spawns runner.instances aliens from the configured document and ticks each
at runner.tick_rate until SIGINT/SIGTERM or runner.max_ticks is reached.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadRunConfig()
		if err != nil {
			return err
		}
		return runTrees(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.config, "config", "c", "", "path to a YAML configuration file")
	runCmd.Flags().StringVar(&runFlags.document, "document", "", "tree document to run (overrides tree.document)")
	rootCmd.AddCommand(runCmd)
}

func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if runFlags.config != "" {
		var err error
		if cfg, err = config.LoadFile(runFlags.config); err != nil {
			return nil, err
		}
	}
	if runFlags.document != "" {
		cfg.Tree.Document = runFlags.document
	}
	return cfg, nil
}

func readDocument(path string) (string, error) {
	if path == "" {
		return alien.Document, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(b), nil
}

func runTrees(ctx context.Context, cfg *config.Config) error {
	source, err := readDocument(cfg.Tree.Document)
	if err != nil {
		return err
	}

	app, cleanup, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := app.Logger

	aliens := make(map[string]*alien.Context, cfg.Runner.Instances)
	for i := range cfg.Runner.Instances {
		c := alien.New(cfg.Demo)
		tree, err := app.Manager.Spawn(fmt.Sprintf("alien-%d", i+1), source, c)
		if err != nil {
			return err
		}
		aliens[tree.ID()] = c
	}

	if app.Monitor != nil {
		if err := app.Monitor.Start(cfg.Monitor.Addr); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Manager.Run(ctx, cfg.Runner.Interval(), cfg.Runner.MaxTicks, alien.Integrate); err != nil {
		logger.Error("run failed", log.Error(err))
		return err
	}

	for _, id := range app.Manager.Instances() {
		tree, _ := app.Manager.Tree(id)
		c := aliens[id]
		logger.Info("instance summary",
			log.String("tree", id),
			log.Uint64("ticks", tree.Ticks()),
			log.Float64("x", c.Position.X),
			log.Float64("y", c.Position.Y),
		)
	}
	return nil
}
