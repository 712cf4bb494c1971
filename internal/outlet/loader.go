package outlet

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for a directory document on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based directory loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "outlet-loader").Logger(),
	}
}

// Load reads the directory document from filePath.
func (l *fileLoader) Load(ctx context.Context, filePath string) (*Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", filePath).Msg("loading outlet directory")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open outlet directory")
		return nil, fmt.Errorf("failed to open outlet directory %s: %w", filePath, err)
	}
	defer file.Close()

	dir, err := ParseDirectory(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("invalid outlet directory")
		return nil, fmt.Errorf("invalid outlet directory %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("outlets", dir.Len()).
		Msg("outlet directory loaded successfully")

	return dir, nil
}
