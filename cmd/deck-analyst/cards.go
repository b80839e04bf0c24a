package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-analyst/internal/config"
)

var pruneOlderThan time.Duration

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage the persistent card cache",
}

var cardsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached cards older than a given age",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		age := pruneOlderThan
		if age <= 0 {
			age = config.Duration(a.cfg.Storage.CardTTL)
		}
		n, err := a.resolver.Prune(cmd.Context(), age)
		if err != nil {
			return fmt.Errorf("prune card cache: %w", err)
		}
		fmt.Printf("Pruned %d cached cards older than %s\n", n, age)
		return nil
	},
}

func init() {
	cardsPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "minimum age to delete (default storage.card_ttl)")
	cardsCmd.AddCommand(cardsPruneCmd)
}
