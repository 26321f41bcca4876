package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/zakazai/sheetql"
	"github.com/zakazai/sheetql/internal/config"
	"github.com/zakazai/sheetql/internal/types"
)

type rootFlags struct {
	configPath  string
	storageType string
	storagePath string
	table       string
	logLevel    string
	json        bool
}

// app is what every subcommand runs against once flags and config are resolved.
type app struct {
	cfg  *config.Config
	db   *sheetql.DB
	out  io.Writer
	json bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "sheetql",
		Short:         "Run SQL-like statements against tabular storage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (yaml, json or toml)")
	pf.StringVar(&flags.storageType, "storage", "", "storage type: memory, json, parquet or hybrid")
	pf.StringVar(&flags.storagePath, "path", "", "JSON file or Parquet snapshot directory")
	pf.StringVar(&flags.table, "table", "", "run every statement against this table")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warning, error or none")
	pf.BoolVar(&flags.json, "json", false, "print results as JSON")

	execCmd := &cobra.Command{
		Use:   "exec <statement>...",
		Short: "Execute statements and print their results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.db.Close()
			for _, stmt := range args {
				if err := a.run(cmd.Context(), stmt); err != nil {
					return err
				}
			}
			return nil
		},
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.db.Close()
			return a.repl(cmd.Context())
		},
	}

	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.db.Close()
			tables, err := a.db.Tables(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out, tables, a.json)
		},
	}

	var watch bool
	snapshotCmd := &cobra.Command{
		Use:   "snapshot [dir]",
		Short: "Write every table to Parquet files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.db.Close()

			dir := a.cfg.Snapshot.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("%w: snapshot directory", types.ErrMissingRequiredArgument)
			}
			if !watch {
				if err := a.db.Snapshot(cmd.Context(), dir); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "snapshot written to %s\n", dir)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			stopSync, err := a.db.StartSnapshots(dir, a.cfg.Snapshot.SyncInterval)
			if err != nil {
				return err
			}
			defer stopSync()
			types.GlobalLogger.Info("snapshotting to %s every %s", dir, a.cfg.Snapshot.SyncInterval)
			<-ctx.Done()
			return a.db.Snapshot(context.Background(), dir)
		},
	}
	snapshotCmd.Flags().BoolVar(&watch, "watch", false, "keep snapshotting on the configured interval until interrupted")

	rootCmd.AddCommand(execCmd, replCmd, tablesCmd, snapshotCmd)
	return rootCmd
}

// loadConfig reads the config file and environment, then applies flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("storage") {
		cfg.Storage.Type = flags.storageType
	}
	if f.Changed("path") {
		cfg.Storage.Path = flags.storagePath
	}
	if f.Changed("table") {
		cfg.Table = flags.table
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	level, err := types.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	types.GlobalLogger.SetLevel(level)

	db, err := sheetql.Open(sheetql.StorageConfig{
		Type:         sheetql.StorageType(cfg.Storage.Type),
		FilePath:     cfg.Storage.Path,
		SnapshotDir:  cfg.Snapshot.Dir,
		SyncInterval: cfg.Snapshot.SyncInterval,
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, db: db, out: cmd.OutOrStdout(), json: flags.json}, nil
}

// run executes one statement. With a configured table every statement is
// bound to it; otherwise the table named in the statement is used.
func (a *app) run(ctx context.Context, stmt string) error {
	var (
		res interface{}
		err error
	)
	if a.cfg.Table != "" {
		res, err = a.db.Table(a.cfg.Table, a.cfg.Required...).Query(ctx, stmt)
	} else {
		res, err = a.db.Exec(ctx, stmt, a.cfg.Required...)
	}
	if err != nil {
		return err
	}
	return render(a.out, res, a.json)
}

func (a *app) repl(ctx context.Context) error {
	// A hybrid store runs its own snapshot worker.
	if a.cfg.Snapshot.Dir != "" && sheetql.StorageType(a.cfg.Storage.Type) != sheetql.HybridStorageType {
		stop, err := a.db.StartSnapshots(a.cfg.Snapshot.Dir, a.cfg.Snapshot.SyncInterval)
		if err != nil {
			return err
		}
		defer stop()
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetql> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".sheetql_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(a.out, "sheetql shell. Type 'exit' to quit.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := a.run(ctx, line); err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}
