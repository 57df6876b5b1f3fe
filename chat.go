package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lorealchat/internal/terminal"
)

var plainOutput bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts a single in-memory session and reads questions from stdin.
Type "/name <your name>" to introduce yourself and "/quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		sess, err := a.store.Create(ctx)
		if err != nil {
			return err
		}
		view := terminal.NewView(cmd.OutOrStdout(), a.cfg.Assistant.AssistantLabel, plainOutput)
		return terminal.Run(ctx, os.Stdin, view, a.controller, sess, a.logger)
	},
}

func init() {
	chatCmd.Flags().BoolVar(&plainOutput, "plain", false, "print replies without markdown rendering")
}
