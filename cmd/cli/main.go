// Command stock-assistant is the interactive command-line front end.
//
//	stock-assistant chat
//	stock-assistant ask "How is AAPL doing today?"
//	stock-assistant quote MSFT
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/stock-assistant/internal/app"
	"github.com/fleveque/stock-assistant/internal/assistant"
	"github.com/fleveque/stock-assistant/internal/config"
	"github.com/fleveque/stock-assistant/internal/tool"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	verbose    bool
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "stock-assistant",
		Short:        "Chat with a stock market assistant that can look up live quotes",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", os.Getenv("ASSISTANT_CONFIG_PATH"), "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(chatCmd(flags), askCmd(flags), quoteCmd(flags))
	return root
}

func chatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			a, cleanup, err := build(flags, assistant.WithToolNotifier(func(name string, args map[string]any) {
				if name == tool.StockInfoName {
					fmt.Fprintf(out, "Agent wants to fetch stock info for: %s\n", tool.Ticker(args))
				}
			}))
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r := &repl{
				chat:       a.Chat,
				in:         cmd.InOrStdin(),
				out:        out,
				title:      a.Config.Assistant.Title(),
				desc:       a.Config.Assistant.Description,
				configured: a.Assistant.Configured(),
			}
			return r.run(ctx)
		},
	}
}

func askCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := build(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			if !a.Assistant.Configured() {
				printMissingKey(cmd.ErrOrStderr())
			}

			sess := a.Chat.CreateSession()
			turn, err := a.Chat.Send(cmd.Context(), sess.ID(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), turn.Content)
			return nil
		},
	}
}

func quoteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <ticker>",
		Short: "Print the quote payload the assistant would see for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := build(flags)
			if err != nil {
				return err
			}
			defer cleanup()

			result := a.Quotes.Fetch(cmd.Context(), args[0])
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result.Payload()); err != nil {
				return fmt.Errorf("encoding quote: %w", err)
			}
			if !result.OK() {
				return fmt.Errorf("quote lookup failed")
			}
			return nil
		},
	}
}

// build loads .env and config and assembles the app. The CLI logs only errors
// unless --verbose is set, so log lines do not interleave with the chat.
func build(flags *globalFlags, opts ...app.Option) (*app.App, func(), error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := "error"
	if flags.verbose {
		level = "debug"
	}
	logger, err := app.NewLogger(level)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := app.New(cfg, logger, opts...)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			logger.Error("closing app", zap.Error(err))
		}
		_ = logger.Sync()
	}
	return a, cleanup, nil
}
