package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avvvet/orderbot/internal/config"
	"github.com/avvvet/orderbot/internal/dialog"
	"github.com/avvvet/orderbot/internal/logger"
	"github.com/avvvet/orderbot/internal/nlu"
)

// orderbot-cli runs the dialog engine as a local console REPL, without NATS
// or Redis. Handy for trying the form out, with or without NLU credentials.
var rootCmd = &cobra.Command{
	Use:   "orderbot-cli",
	Short: "Talk to the order bot on the console",
	Long:  "Run the order dialog locally over stdin/stdout. NLU credentials are read from the environment; without them the bot fills slots manually.",
	RunE:  runREPL,
}

func init() {
	rootCmd.Flags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Int("max-date-prompts", 0, "Give up on the order after this many date prompts (0 = keep asking)")
	rootCmd.Flags().StringSlice("catalog", nil, "Override the supported item catalog")
}

func runREPL(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()

	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}
	maxDatePrompts, err := cmd.Flags().GetInt("max-date-prompts")
	if err != nil {
		return err
	}
	catalogItems, err := cmd.Flags().GetStringSlice("catalog")
	if err != nil {
		return err
	}
	if len(catalogItems) == 0 {
		catalogItems = cfg.Catalog
	}

	log := logger.New(logLevel, "console")
	defer log.Sync()

	catalog, err := nlu.NewCatalog(catalogItems)
	if err != nil {
		return err
	}

	var extractor nlu.Extractor
	if cfg.NLUConfigured() {
		extractor, err = nlu.NewLLMExtractor(cfg.NLUAPIKey, cfg.NLUModel, cfg.NLUEndpoint, cfg.NLUTimeout, catalog, log)
		if err != nil {
			return err
		}
	}

	engine, err := dialog.NewEngine(extractor, catalog, maxDatePrompts, log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	state, greeting := engine.Start()
	say(greeting)

	fmt.Println(`(type "exit" to leave)`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.EqualFold(strings.TrimSpace(line), "exit") {
			break
		}

		turn, err := engine.HandleTurn(ctx, state, line)
		if err != nil {
			return err
		}
		say(turn.Replies)

		if turn.Completed != nil {
			log.Info("order completed",
				zap.String("item", turn.Completed.Item),
				zap.String("deliveryDate", turn.Completed.DeliveryDate),
			)
		}

		if ctx.Err() != nil {
			break
		}
	}

	return scanner.Err()
}

func say(messages []string) {
	for _, msg := range messages {
		fmt.Printf("bot> %s\n", msg)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
