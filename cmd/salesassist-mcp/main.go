package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"salesassist/config"
	"salesassist/devserver"
	"salesassist/storage"
	"salesassist/tools"
)

const version = "v0.1.0"

var (
	dataDir string
	logFile string
	seed    uint64
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "salesassist-mcp",
	Short: "Serve the sales database as MCP tools over stdio",
	Long: `Serve the seeded sales database to MCP hosts over stdio.

Tools:
  get_database_schema   describe every table and column
  execute_sql_query     run a read-only SELECT statement
  get_sample_data       show the first rows of a table

The database is shared with salesassist-devserver when both use the same
data directory. Logs go to stderr so stdout stays free for the protocol.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data", filepath.Join(config.GetCacheDir(), "devserver"), "Directory holding the sales database")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for generating the sales database")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
}

func run(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger, closeLog := devserver.SetupLogger(logFile, level)
	defer closeLog()

	if err := config.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	sales, err := storage.OpenSalesDB(filepath.Join(dataDir, "sales.db"), seed, time.Now())
	if err != nil {
		return err
	}
	defer sales.Close()

	s := server.NewMCPServer("Sales Database Server", version, server.WithToolCapabilities(false))
	s.AddTools(tools.ServerTools(sales)...)

	logger.Info("serving MCP over stdio", "data", dataDir)
	return server.ServeStdio(s, server.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
