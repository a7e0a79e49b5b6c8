package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/redact"
)

// objectPutter is the part of *minio.Client used for uploads.
type objectPutter interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// ObjectStoreUploader stores avatars in an S3-compatible bucket. Images are
// cropped and resized locally before upload.
type ObjectStoreUploader struct {
	client  objectPutter
	bucket  string
	folder  string
	baseURL string
	logger  *slog.Logger
}

var _ Uploader = (*ObjectStoreUploader)(nil)

// NewObjectStoreUploader connects to the endpoint in cfg and checks that the
// bucket exists.
func NewObjectStoreUploader(ctx context.Context, cfg config.AvatarConfig, logger *slog.Logger) (*ObjectStoreUploader, error) {
	endpoint, secure, err := splitEndpoint(cfg.S3Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.S3Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.S3Bucket)
	}

	baseURL := cfg.S3PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		baseURL = scheme + "://" + endpoint + "/" + cfg.S3Bucket
	}

	return newObjectStoreUploader(client, cfg.S3Bucket, cfg.Folder, baseURL, logger), nil
}

func newObjectStoreUploader(client objectPutter, bucket, folder, baseURL string, logger *slog.Logger) *ObjectStoreUploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ObjectStoreUploader{
		client:  client,
		bucket:  bucket,
		folder:  folder,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With(slog.String("component", "object_store_uploader")),
	}
}

// Upload implements Uploader.
// The ETag is appended to the URL so that a replaced avatar is not served
// from caches under the old address.
func (u *ObjectStoreUploader) Upload(ctx context.Context, contactID int64, r io.Reader) (string, error) {
	log := logger.FromContextOrDefault(ctx, u.logger)

	img, err := normalize(r, Size)
	if err != nil {
		log.Debug("avatar image rejected",
			slog.Int64("contact_id", contactID),
			slog.String("error", err.Error()))
		return "", err
	}

	key := path.Join(u.folder, publicID(contactID)+".jpg")
	info, err := u.client.PutObject(ctx, u.bucket, key, img, int64(img.Len()), minio.PutObjectOptions{
		ContentType:  "image/jpeg",
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		log.Warn("object store upload failed",
			slog.Int64("contact_id", contactID),
			slog.String("error", redact.Error(err)))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	avatarURL := u.baseURL + "/" + key
	if etag := strings.Trim(info.ETag, `"`); etag != "" {
		avatarURL += "?v=" + url.QueryEscape(etag)
	}

	log.Info("avatar uploaded",
		slog.Int64("contact_id", contactID),
		slog.String("key", key))
	return avatarURL, nil
}

// splitEndpoint strips the scheme from endpoint, which minio expects bare,
// and reports whether TLS is used.
func splitEndpoint(endpoint string) (string, bool, error) {
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return u.Host, u.Scheme == "https", nil
	}
	if endpoint == "" {
		return "", false, fmt.Errorf("object store endpoint is empty")
	}
	return endpoint, secure, nil
}
