package outlet

import (
	"context"

	appconfig "pos-coupon/internal/config"

	"github.com/rs/zerolog"
)

// LoadDirectory reads the directory document at path, from S3 first when
// enabled and from the local file system otherwise or on S3 failure.
func LoadDirectory(ctx context.Context, s3cfg appconfig.S3Config, path string, logger zerolog.Logger) (*Directory, error) {
	fileLoader := NewFileLoader(logger)

	var s3Loader Loader
	if s3cfg.Enabled {
		l, err := NewS3Loader(ctx, s3cfg.Bucket, s3cfg.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for outlet directory (S3 disabled)")
	}

	return NewFallbackLoader(s3Loader, fileLoader, s3cfg.Prefix, s3cfg.Enabled, logger).Load(ctx, path)
}
