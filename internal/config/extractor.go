package config

import "sync"

type ExtractorConfig struct {
	Tesseract    string
	OCRLanguages string
	Antiword     string
	MaxOCRPages  int
}

var (
	extractorConfig *ExtractorConfig
	extractorOnce   sync.Once
)

func LoadExtractorConfig() *ExtractorConfig {
	extractorOnce.Do(func() {
		extractorConfig = &ExtractorConfig{
			Tesseract:    getEnvString("TESSERACT_BIN", "tesseract"),
			OCRLanguages: getEnvString("OCR_LANGUAGES", "eng+rus"),
			Antiword:     getEnvString("ANTIWORD_BIN", "antiword"),
			MaxOCRPages:  getEnvInt("OCR_MAX_PAGES", 10),
		}
	})
	return extractorConfig
}
