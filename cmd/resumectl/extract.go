package main

import (
	"fmt"

	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract normalized text from a resume document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()
		defer log.Sync()

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		text, err := extract.New(config.LoadExtractorConfig(), log).Extract(cmd.Context(), doc)
		if err != nil {
			return err
		}
		log.Debug("document extracted",
			zap.String("strategy", text.Strategy),
			zap.Int("chars", len([]rune(text.Content))))
		fmt.Fprintln(cmd.OutOrStdout(), text.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
