package graphkeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-graphkeeper/pkg/config"
	"github.com/soundprediction/go-graphkeeper/pkg/driver"
	"github.com/soundprediction/go-graphkeeper/pkg/graph"
	"github.com/soundprediction/go-graphkeeper/pkg/logger"
)

// Exit codes. Bulk deletes are irreversible, so a declined confirmation gets
// its own code to keep scripted callers honest about what happened.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitDeclined = 3
)

var (
	cfgFile   string
	graphID   string
	backend   string
	verbose   bool
	noConfirm bool
)

var rootCmd = &cobra.Command{
	Use:   "graphkeeper",
	Short: "Maintenance tool for remote knowledge graphs",
	Long: `Graphkeeper scans a remote knowledge graph for structural anomalies -
nodes with no connections and edges referencing missing nodes - and repairs
them through guarded deletion.

Every scan is a fresh full read; nothing is cached between operations. Bulk
deletions preview up to five candidates and require confirmation unless
--no-confirm is set. Snapshots can be exported to JSON or DuckDB for backup
before repair.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// usageError marks argument problems so Execute can exit with code 2.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// declinedError marks a user-declined confirmation (exit code 3).
var declinedError = errors.New("aborted: deletion declined by user")

// opError marks an operation that ran but did not fully succeed.
type opError struct{ err error }

func (e *opError) Error() string { return e.err.Error() }
func (e *opError) Unwrap() error { return e.err }

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./graphkeeper.yaml)")
	rootCmd.PersistentFlags().StringVar(&graphID, "graph-id", "", "Graph ID to operate on")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Graph backend (zep, neo4j)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("graphkeeper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.graphkeeper")
	}
	// A missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var usageErr *usageError
	switch {
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.Is(err, declinedError):
		return ExitDeclined
	default:
		return ExitError
	}
}

// cmdContext returns a context cancelled by SIGINT/SIGTERM. Batch loops
// check it between items, so an interrupt lets the in-flight call finish.
func cmdContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// loadConfig loads configuration and applies persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if graphID != "" {
		cfg.Graph.ID = graphID
	}
	if backend != "" {
		cfg.Graph.Backend = backend
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Log.Level == "debug" {
		level = slog.LevelDebug
	}
	return logger.NewDefaultLogger(level)
}

// buildClient constructs the graph client adapter for the configured
// backend. The returned closer releases the backend connection.
func buildClient(cfg *config.Config, log *slog.Logger) (*graph.Client, func(), error) {
	var (
		api driver.GraphAPI
		err error
	)
	switch cfg.Graph.Backend {
	case "zep", "":
		api, err = driver.NewZepDriver(driver.ZepConfig{
			BaseURL: cfg.Zep.BaseURL,
			APIKey:  cfg.Zep.APIKey,
			Timeout: cfg.Zep.Timeout,
		}, log)
	case "neo4j":
		api, err = driver.NewNeo4jDriver(driver.Neo4jConfig{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
	default:
		return nil, nil, &usageError{err: fmt.Errorf("unknown backend %q", cfg.Graph.Backend)}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s backend: %w", cfg.Graph.Backend, err)
	}

	client := graph.NewClient(api, graph.Options{
		PageSize:       cfg.Graph.PageSize,
		MaxAttempts:    cfg.Graph.MaxAttempts,
		InitialBackoff: cfg.Graph.InitialBackoff,
		MaxBackoff:     cfg.Graph.MaxBackoff,
		CallTimeout:    cfg.Graph.CallTimeout,
	}, log)

	closer := func() {
		if err := client.Close(context.Background()); err != nil {
			log.Warn("failed to close backend", "error", err)
		}
	}
	return client, closer, nil
}
