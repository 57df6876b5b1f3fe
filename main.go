package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lorealchat/internal/chat"
	"lorealchat/internal/config"
	"lorealchat/internal/logging"
	"lorealchat/internal/redis"
	"lorealchat/internal/service/completion"
	"lorealchat/internal/session"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lorealchat",
	Short: "L'Oréal product assistant chat service",
	Long: `lorealchat relays chat messages to a remote completion endpoint while
remembering the user's name and recent questions for the session.

Use "serve" to run the browser widget over HTTP or "chat" for a terminal session.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $LOREALCHAT_CONFIG or config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the components shared by every subcommand.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	controller *chat.Controller
	store      session.Store
	closers    []func() error
}

func newApp(ctx context.Context, forceMemory bool) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}

	client, err := completion.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init completion client: %w", err)
	}
	a.controller = chat.NewController(client, chat.ControllerConfig{
		Closing:        cfg.Assistant.ClosingInstruction,
		GreetingFormat: cfg.Assistant.NameGreeting,
		Logger:         logger,
	})

	tmpl := session.Template{SystemPrompt: cfg.Assistant.SystemPrompt, Greeting: cfg.Assistant.Greeting}
	idle := time.Duration(cfg.BasicConfig.SessionIdleTimeout) * time.Minute
	if cfg.BasicConfig.SessionStore == config.StoreRedis && !forceMemory {
		rdb, err := redis.NewRedisClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create redis client: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.store = session.NewRedisStore(rdb, tmpl, idle, cfg.TurnTimeout(), logger)
	} else {
		a.store = session.NewMemoryStore(tmpl, idle, logger)
	}
	a.closers = append([]func() error{a.store.Close}, a.closers...)
	logger.Info("components ready",
		zap.String("backend", cfg.Completion.Backend),
		zap.String("session_store", cfg.BasicConfig.SessionStore))
	return a, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
