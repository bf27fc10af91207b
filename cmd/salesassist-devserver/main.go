package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"salesassist/config"
	"salesassist/devserver"
	"salesassist/storage"
	"salesassist/tools"
)

var (
	addr        string
	dataDir     string
	repliesPath string
	logFile     string
	seed        uint64
	hideQueries bool
	verbose     bool
	llm         string
	ollamaURL   string
	ollamaModel string
)

var rootCmd = &cobra.Command{
	Use:   "salesassist-devserver",
	Short: "Run a local sales assistant backend",
	Long: `Run a local backend that speaks the sales assistant HTTP API.

Conversations are stored in sqlite under the data directory. By default
replies come from a scripted assistant that queries a seeded sales database
instead of a language model:

  sql: SELECT ...        run a read-only query
  sample <table>         show the first rows of a table
  chart [pie|line|...]   chart revenue
  schema                 describe the tables

Messages containing "rate limit" or "crash" fail on purpose, to exercise the
client's recoverable and critical error paths.

With --llm ollama a model served by Ollama answers instead, calling the
same database tools and create_diagram for charts.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "localhost:5000", "Address to listen on")
	rootCmd.Flags().StringVar(&dataDir, "data", filepath.Join(config.GetCacheDir(), "devserver"), "Directory holding the sqlite databases")
	rootCmd.Flags().StringVar(&repliesPath, "replies", "", "YAML file with canned replies")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	rootCmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for generating the sales database")
	rootCmd.Flags().BoolVar(&hideQueries, "hide-queries", false, "Leave SQL out of table and error results")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")
	rootCmd.Flags().StringVar(&llm, "llm", "scripted", "Who answers: scripted or ollama")
	rootCmd.Flags().StringVar(&ollamaURL, "ollama-url", devserver.DefaultOllamaURL, "Ollama server URL")
	rootCmd.Flags().StringVar(&ollamaModel, "ollama-model", devserver.DefaultOllamaModel, "Ollama model to chat with")
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

	conversations, err := storage.NewConversationStorage(dataDir)
	if err != nil {
		return err
	}
	defer conversations.Close()

	sales, err := storage.OpenSalesDB(filepath.Join(dataDir, "sales.db"), seed, time.Now())
	if err != nil {
		return err
	}
	defer sales.Close()

	responder, err := newResponder(sales, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("data directory", "path", dataDir)
	return devserver.New(conversations, responder, logger).ListenAndServe(ctx, addr)
}

func newResponder(sales *storage.SalesDB, logger *slog.Logger) (devserver.Responder, error) {
	switch llm {
	case "scripted":
		responder := &devserver.ScriptedResponder{Sales: sales, HideQueries: hideQueries}
		if repliesPath != "" {
			replies, err := devserver.LoadReplies(repliesPath)
			if err != nil {
				return nil, err
			}
			responder.Replies = replies
			logger.Info("loaded canned replies", "count", len(replies), "file", repliesPath)
		}
		return responder, nil
	case "ollama":
		logger.Info("answering with ollama", "url", ollamaURL, "model", ollamaModel)
		responder, err := devserver.NewOllamaResponder(ollamaURL, ollamaModel,
			&tools.Executor{Sales: sales, HideQueries: hideQueries}, logger)
		if err != nil {
			return nil, err
		}
		return responder, nil
	}
	return nil, fmt.Errorf("unknown --llm %q: want scripted or ollama", llm)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
