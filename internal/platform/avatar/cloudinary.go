package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/redact"
)

// cloudinaryTransformation crops to a filled square and lets Cloudinary pick
// the compression level.
const cloudinaryTransformation = "c_fill,h_250,w_250/q_auto"

// cloudinaryAPI is the part of the Cloudinary upload API used here.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryUploader stores avatars on Cloudinary. Cloudinary performs the
// crop and resize, so the upload is forwarded as is.
type CloudinaryUploader struct {
	api    cloudinaryAPI
	folder string
	logger *slog.Logger
}

var _ Uploader = (*CloudinaryUploader)(nil)

// NewCloudinaryUploader creates an uploader for the account in cfg.
func NewCloudinaryUploader(cfg config.AvatarConfig, logger *slog.Logger) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return newCloudinaryUploader(&cld.Upload, cfg.Folder, logger), nil
}

func newCloudinaryUploader(client cloudinaryAPI, folder string, logger *slog.Logger) *CloudinaryUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudinaryUploader{
		api:    client,
		folder: folder,
		logger: logger.With(slog.String("component", "cloudinary_uploader")),
	}
}

// Upload implements Uploader.
func (u *CloudinaryUploader) Upload(ctx context.Context, contactID int64, r io.Reader) (string, error) {
	log := logger.FromContextOrDefault(ctx, u.logger)

	result, err := u.api.Upload(ctx, r, uploader.UploadParams{
		PublicID:       publicID(contactID),
		Folder:         u.folder,
		Overwrite:      api.Bool(true),
		Invalidate:     api.Bool(true),
		ResourceType:   "image",
		Transformation: cloudinaryTransformation,
	})
	if err != nil {
		log.Warn("cloudinary upload failed",
			slog.Int64("contact_id", contactID),
			slog.String("error", redact.Error(err)))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if result == nil {
		return "", fmt.Errorf("%w: empty upload result", ErrUnavailable)
	}
	if result.Error.Message != "" {
		log.Warn("cloudinary rejected upload",
			slog.Int64("contact_id", contactID),
			slog.String("error", redact.String(result.Error.Message)))
		return "", fmt.Errorf("%w: %s", ErrUnavailable, result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("%w: upload returned no URL", ErrUnavailable)
	}

	log.Info("avatar uploaded",
		slog.Int64("contact_id", contactID),
		slog.String("public_id", result.PublicID))
	return result.SecureURL, nil
}
