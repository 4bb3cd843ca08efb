package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicobailon/remotegrid/internal/config"
	"github.com/nicobailon/remotegrid/internal/deps"
	"github.com/nicobailon/remotegrid/internal/log"
	"github.com/nicobailon/remotegrid/internal/recent"
	"github.com/nicobailon/remotegrid/internal/remote"
	"github.com/nicobailon/remotegrid/internal/sqlsource"
	"github.com/nicobailon/remotegrid/internal/tui"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var (
	configFlag string
	dbFlag     string
	tableFlag  string
	addrFlag   string
	demoFlag   bool
)

const (
	demoOrders    = 200
	demoCustomers = 25
	openTimeout   = 10 * time.Second
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "remotegrid",
	Short:        "Browse and edit remote tables in the terminal",
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default $XDG_CONFIG_HOME/remotegrid/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "SQLite database to open")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Grid source address (host:port or unix:/path)")
	rootCmd.Flags().StringVarP(&tableFlag, "table", "t", "", "Table to open; a picker is shown when empty")
	rootCmd.PersistentFlags().BoolVar(&demoFlag, "demo", false, "Use the built-in demo tables")

	serveCmd.Flags().String("listen", "127.0.0.1:7420", "Address to listen on (host:port or unix:/path)")
	seedCmd.Flags().Int("orders", demoOrders, "Number of orders to create")
	seedCmd.Flags().Int("customers", demoCustomers, "Number of customers to create")
	recentCmd.Flags().Int("limit", 10, "Number of entries to show")

	rootCmd.AddCommand(serveCmd, seedCmd, tablesCmd, recentCmd, doctorCmd)
}

// loadConfig reads the config file and applies the command line on top.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	// A source on the command line replaces the configured one.
	if dbFlag != "" {
		cfg.DBPath, cfg.Addr = dbFlag, ""
	}
	if addrFlag != "" {
		cfg.Addr, cfg.DBPath = addrFlag, ""
	}
	if tableFlag != "" {
		cfg.Table = tableFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	return log.New(log.Options{File: cfg.Log.File, Level: cfg.Log.Level})
}

// openSource picks the data source: the demo tables, a remote server or a
// SQLite file, in that order. name identifies it in the recent list.
func openSource(ctx context.Context, cfg *config.Config, demo bool, logger *slog.Logger) (remote.Source, string, io.Closer, error) {
	switch {
	case demo:
		return remote.NewDemoSource(demoOrders), "demo", nopCloser{}, nil
	case cfg.Addr != "":
		return remote.NewClient(cfg.Addr, logger), cfg.Addr, nopCloser{}, nil
	case cfg.DBPath != "":
		s, err := sqlsource.Open(ctx, cfg.DBPath, logger)
		if err != nil {
			return nil, "", nil, err
		}
		return s, cfg.DBPath, s, nil
	}
	return nil, "", nil, errors.New("no data source: pass --db, --addr or --demo")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func warnMissingDeps() {
	for _, dep := range deps.Check() {
		fmt.Fprintf(os.Stderr, "Missing optional dependency: %s, needed to %s (%s)\n", dep.Name, dep.Purpose, deps.InstallHint(dep))
	}
}

func ensureDeps() error {
	missing := deps.MissingRequired(deps.Check())
	if len(missing) == 0 {
		return nil
	}
	for _, dep := range missing {
		fmt.Fprintf(os.Stderr, "Missing dependency: %s (%s)\n", dep.Name, deps.InstallHint(dep))
	}
	return fmt.Errorf("missing required dependencies")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := ensureDeps(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), openTimeout)
	src, name, srcCloser, err := openSource(ctx, cfg, demoFlag, logger)
	cancel()
	if err != nil {
		return err
	}
	defer srcCloser.Close()

	store, err := recent.Load(config.Dir())
	if err != nil {
		logger.Warn("could not read recent tables", "error", err)
		store = nil
	}

	logger.Info("starting", "version", version, "source", name, "table", cfg.Table)
	app := tui.New(tui.Deps{
		Source:     src,
		SourceName: name,
		Table:      cfg.Table,
		Cfg:        cfg,
		Recent:     store,
		Logger:     logger,
	})
	return app.Run()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func listen(addr string) (net.Listener, error) {
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		path = strings.TrimPrefix(path, "//")
		_ = os.Remove(path)
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose a database's tables to remote grids",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The server owns stderr, so it logs there as well as to the file.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: log.ConfigLevelStringToSlogLevel(cfg.Log.Level),
		}))

		cfg.Addr = ""
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		src, name, closer, err := openSource(ctx, cfg, demoFlag, logger)
		if err != nil {
			return err
		}
		defer closer.Close()

		addr, _ := cmd.Flags().GetString("listen")
		ln, err := listen(addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		logger.Info("serving", "source", name)
		return remote.NewServer(src, logger).Serve(ctx, ln)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo orders and customers tables in --db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DBPath == "" {
			return errors.New("seed needs --db")
		}
		logger, logCloser, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logCloser.Close()

		src, err := sqlsource.Open(cmd.Context(), cfg.DBPath, logger)
		if err != nil {
			return err
		}
		defer src.Close()

		orders, _ := cmd.Flags().GetInt("orders")
		customers, _ := cmd.Flags().GetInt("customers")
		if err := sqlsource.Seed(cmd.Context(), src, orders, customers); err != nil {
			return err
		}
		fmt.Printf("Seeded %s\n", cfg.DBPath)
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables a source offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, logCloser, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logCloser.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()
		src, _, closer, err := openSource(ctx, cfg, demoFlag, logger)
		if err != nil {
			return err
		}
		defer closer.Close()

		cat, ok := src.(remote.Catalog)
		if !ok {
			return errors.New("source cannot list its tables")
		}
		tables, err := cat.DataProviders(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Println(t)
		}
		return nil
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := recent.Load(config.Dir())
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		entries := store.Recent(limit)
		if len(entries) == 0 {
			fmt.Println("No recent tables.")
			return nil
		}
		fmt.Println()
		for _, e := range entries {
			fmt.Printf(" %-30s %8d rows  %s\n", e.Name(), e.Rows, e.LastAccess.Format("Jan 2 15:04"))
		}
		fmt.Println()
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check for optional helper programs",
	Run: func(cmd *cobra.Command, args []string) {
		if len(deps.Check()) == 0 {
			fmt.Println("All helpers found.")
			return
		}
		warnMissingDeps()
	},
}
