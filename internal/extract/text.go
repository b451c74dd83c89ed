package extract

import (
	"context"
	"strings"
)

// plainTextStrategy returns the file content as-is.
type plainTextStrategy struct{}

func (plainTextStrategy) Name() string { return "plain" }

func (plainTextStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	return strings.TrimPrefix(string(content), "\ufeff"), nil
}
