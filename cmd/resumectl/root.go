package main

import (
	"log"
	"os"

	"github.com/fadilmartias/resume-pipeline/internal/apperror"
	"github.com/fadilmartias/resume-pipeline/internal/extract"
	"github.com/fadilmartias/resume-pipeline/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const app = "resumectl"

var rootCmd = &cobra.Command{
	Use:          app,
	Short:        "resumectl runs the resume pipeline stages on local files",
	SilenceUsage: true,
}

func init() {
	if err := viper.BindEnv("provider", "LLM_PROVIDER"); err != nil {
		log.Fatalf("binding LLM_PROVIDER environment variable: %v", err)
	}

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// readDocument loads a local file as a raw upload.
func readDocument(path string) (extract.RawDocument, error) {
	format, ok := extract.FormatFromFilename(path)
	if !ok {
		return extract.RawDocument{}, apperror.Wrap(apperror.KindUnsupportedFormat, "resumectl", apperror.ErrUnsupportedFormat, path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return extract.RawDocument{}, err
	}
	return extract.RawDocument{Name: path, Format: format, Content: content}, nil
}
