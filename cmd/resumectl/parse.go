package main

import (
	"encoding/json"
	"strings"

	"github.com/fadilmartias/resume-pipeline/internal/config"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/fadilmartias/resume-pipeline/internal/parser"
	"github.com/fadilmartias/resume-pipeline/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Extract a resume and parse it into a structured candidate record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := newLogger()
		defer log.Sync()

		cfg := config.LoadLLMConfig()
		if p := viper.GetString("provider"); p != "" {
			cfg.Provider = strings.ToLower(p)
		}
		llm, err := service.NewLLMService(ctx, cfg, log)
		if err != nil {
			return err
		}

		doc, err := readDocument(args[0])
		if err != nil {
			return err
		}
		text, err := extract.New(config.LoadExtractorConfig(), log).Extract(ctx, doc)
		if err != nil {
			return err
		}

		model := cfg.ParserModel
		if cfg.Provider == config.ProviderGemini {
			model = ""
		}
		p, err := parser.New(llm, model, log)
		if err != nil {
			return err
		}
		rec, err := p.Parse(ctx, text.Content)
		if err != nil {
			return err
		}
		log.Debug("resume parsed", zap.String("provider", llm.Provider()), zap.String("name", rec.Name))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(rec)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringP("provider", "p", "", "llm provider: openai or gemini (default from LLM_PROVIDER)")
	viper.BindPFlag("provider", parseCmd.Flags().Lookup("provider"))
}
