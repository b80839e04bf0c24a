package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/deck-analyst/internal/analysis"
	"github.com/ramonehamilton/deck-analyst/internal/inference"
)

var deckFlags struct {
	deckFile  string
	message   string
	commander string
	format    string
	plan      string
	currency  string
	colors    []string
	profile   string
}

func addDeckFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&deckFlags.deckFile, "deck", "", "decklist file (- for stdin)")
	cmd.Flags().StringVar(&deckFlags.message, "message", "", "free-text request, e.g. \"my commander is X, budget under $5 each\"")
	cmd.Flags().StringVar(&deckFlags.commander, "commander", "", "commander name")
	cmd.Flags().StringVar(&deckFlags.format, "format", "", "commander, modern or pioneer")
	cmd.Flags().StringVar(&deckFlags.plan, "plan", "", "budget or optimized")
	cmd.Flags().StringVar(&deckFlags.currency, "currency", "", "currency for budget caps (USD, EUR, GBP)")
	cmd.Flags().StringSliceVar(&deckFlags.colors, "colors", nil, "color identity override, e.g. U,R")
	_ = cmd.MarkFlagRequired("deck")
}

func readDeck() (string, error) {
	var (
		data []byte
		err  error
	)
	if deckFlags.deckFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(deckFlags.deckFile)
	}
	if err != nil {
		return "", fmt.Errorf("read decklist: %w", err)
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate a validated analysis of a decklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		deckText, err := readDeck()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.service == nil {
			return errors.New("no generator configured: set generation.provider and its API key")
		}

		report, err := a.service.Analyze(cmd.Context(), analysis.AnalyzeRequest{
			DeckText:    deckText,
			UserMessage: deckFlags.message,
			Commander:   deckFlags.commander,
			Format:      deckFlags.format,
			Plan:        deckFlags.plan,
			Currency:    deckFlags.currency,
			Colors:      deckFlags.colors,
			Profile:     deckFlags.profile,
		})
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the inferred context of a decklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		deckText, err := readDeck()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		format, _ := inference.ParseFormat(deckFlags.format)
		ictx, err := a.engine.Infer(cmd.Context(), inference.Request{
			DeckText:    deckText,
			UserMessage: deckFlags.message,
			Format:      format,
			Commander:   deckFlags.commander,
			Colors:      deckFlags.colors,
			Plan:        inference.Plan(deckFlags.plan),
			Currency:    deckFlags.currency,
		})
		if err != nil {
			return err
		}
		return printJSON(ictx)
	},
}

func init() {
	addDeckFlags(analyzeCmd)
	addDeckFlags(contextCmd)
	analyzeCmd.Flags().StringVar(&deckFlags.profile, "profile", "", "extra notes about the commander for the prompt")
}
