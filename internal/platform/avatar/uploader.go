// Package avatar hosts contact avatar images on Cloudinary or on an
// S3-compatible object store and returns their public URLs.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/contacts-api/internal/config"
)

// Size is the edge length, in pixels, of every stored avatar.
const Size = 250

var (
	// ErrNotConfigured is returned when no avatar host is configured.
	ErrNotConfigured = errors.New("avatar storage is not configured")

	// ErrUnavailable wraps failures of the remote image host.
	ErrUnavailable = errors.New("avatar storage is unavailable")

	// ErrInvalidImage is returned when the upload cannot be decoded as an image.
	ErrInvalidImage = errors.New("invalid avatar image")
)

// Uploader stores the avatar of a contact and returns its public URL.
// Uploading again for the same contact replaces the previous image.
type Uploader interface {
	Upload(ctx context.Context, contactID int64, r io.Reader) (string, error)
}

// NoopUploader rejects every upload with ErrNotConfigured.
type NoopUploader struct{}

// Upload implements Uploader.
func (NoopUploader) Upload(context.Context, int64, io.Reader) (string, error) {
	return "", ErrNotConfigured
}

// New builds the uploader selected by cfg.Provider.
func New(ctx context.Context, cfg config.AvatarConfig, logger *slog.Logger) (Uploader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", "none":
		return NoopUploader{}, nil
	case "cloudinary":
		return NewCloudinaryUploader(cfg, logger)
	case "s3":
		return NewObjectStoreUploader(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown avatar provider %q", cfg.Provider)
	}
}

func publicID(contactID int64) string {
	return fmt.Sprintf("contact_%d", contactID)
}
