package main

import (
	"github.com/spf13/cobra"

	"github.com/p-shah256/atsmatch/internal/bot"
	"github.com/p-shah256/atsmatch/internal/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord bot",
	RunE:  runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(config.ModeBot); err != nil {
		return err
	}

	svcs, err := newServices(cfg)
	if err != nil {
		return err
	}
	defer svcs.Close()

	b, err := bot.New(cfg.Discord.Token, svcs.analyzer)
	if err != nil {
		return err
	}
	if err := b.Start(); err != nil {
		return err
	}
	defer b.Close()

	<-cmd.Context().Done()
	return nil
}
