package main

import (
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-analyst/internal/version"
)

var (
	configPath string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "deck-analyst",
	Short: "Deck context inference and validated deck analysis",
	Long: `deck-analyst reads a decklist, infers its context (commander, colors,
format, curve, manabase, roles, archetype, budget) and asks a language
model for a strategic analysis that is checked against card legality
and synergy rules before it is returned.

Quick Start:
  deck-analyst context --deck deck.txt    Show the inferred context
  deck-analyst analyze --deck deck.txt    Generate a validated analysis
  deck-analyst serve                      Start the HTTP API`,
	Version:      version.GetVersion(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.deck-analyst/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(migrateCmd)
}
