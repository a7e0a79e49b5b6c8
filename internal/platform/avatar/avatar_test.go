package avatar

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/minio/minio-go/v7"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakePutter struct {
	bucket, key string
	opts        minio.PutObjectOptions
	body        []byte
	size        int64
	etag        string
	err         error
}

func (f *fakePutter) PutObject(
	_ context.Context,
	bucket, key string,
	r io.Reader,
	size int64,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.key, f.opts, f.body, f.size = bucket, key, opts, body, size
	return minio.UploadInfo{Bucket: bucket, Key: key, ETag: f.etag, Size: size}, nil
}

type fakeCloudinary struct {
	params uploader.UploadParams
	result *uploader.UploadResult
	err    error
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	return f.result, f.err
}

func TestNormalize(t *testing.T) {
	t.Run("crops and scales to a square jpeg", func(t *testing.T) {
		out, err := normalize(bytes.NewReader(pngImage(t, 400, 200)), Size)
		require.NoError(t, err)

		img, err := jpeg.Decode(out)
		require.NoError(t, err)
		assert.Equal(t, Size, img.Bounds().Dx())
		assert.Equal(t, Size, img.Bounds().Dy())
	})

	t.Run("upscales small images", func(t *testing.T) {
		out, err := normalize(bytes.NewReader(pngImage(t, 10, 30)), Size)
		require.NoError(t, err)

		cfg, err := jpeg.DecodeConfig(out)
		require.NoError(t, err)
		assert.Equal(t, Size, cfg.Width)
	})

	t.Run("rejects non images", func(t *testing.T) {
		_, err := normalize(strings.NewReader("definitely not an image"), Size)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})
}

func TestObjectStoreUploader_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores under a stable key", func(t *testing.T) {
		fp := &fakePutter{etag: `"abc123"`}
		u := newObjectStoreUploader(fp, "contacts", "avatars", "https://cdn.example.com/", nil)

		url, err := u.Upload(ctx, 7, bytes.NewReader(pngImage(t, 64, 64)))
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.example.com/avatars/contact_7.jpg?v=abc123", url)
		assert.Equal(t, "contacts", fp.bucket)
		assert.Equal(t, "avatars/contact_7.jpg", fp.key)
		assert.Equal(t, "image/jpeg", fp.opts.ContentType)
		assert.Equal(t, int64(len(fp.body)), fp.size)
	})

	t.Run("store failure", func(t *testing.T) {
		fp := &fakePutter{err: errors.New("connection refused")}
		u := newObjectStoreUploader(fp, "contacts", "avatars", "https://cdn.example.com", nil)

		_, err := u.Upload(ctx, 7, bytes.NewReader(pngImage(t, 8, 8)))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("bad image never reaches the store", func(t *testing.T) {
		fp := &fakePutter{}
		u := newObjectStoreUploader(fp, "contacts", "avatars", "https://cdn.example.com", nil)

		_, err := u.Upload(ctx, 7, strings.NewReader("GIF89a-but-not-really"))
		assert.ErrorIs(t, err, ErrInvalidImage)
		assert.Empty(t, fp.key)
	})
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the secure url", func(t *testing.T) {
		fc := &fakeCloudinary{result: &uploader.UploadResult{
			PublicID:  "avatars/contact_3",
			SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/avatars/contact_3.jpg",
		}}
		u := newCloudinaryUploader(fc, "avatars", nil)

		url, err := u.Upload(ctx, 3, strings.NewReader("raw"))
		require.NoError(t, err)
		assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/avatars/contact_3.jpg", url)

		assert.Equal(t, "contact_3", fc.params.PublicID)
		assert.Equal(t, "avatars", fc.params.Folder)
		assert.Equal(t, "image", fc.params.ResourceType)
		assert.Equal(t, cloudinaryTransformation, fc.params.Transformation)
		require.NotNil(t, fc.params.Overwrite)
		assert.True(t, *fc.params.Overwrite)
	})

	t.Run("api error", func(t *testing.T) {
		fc := &fakeCloudinary{result: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}
		u := newCloudinaryUploader(fc, "avatars", nil)

		_, err := u.Upload(ctx, 3, strings.NewReader("raw"))
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.Contains(t, err.Error(), "Invalid image file")
	})

	t.Run("transport error", func(t *testing.T) {
		fc := &fakeCloudinary{err: errors.New("timeout")}
		u := newCloudinaryUploader(fc, "avatars", nil)

		_, err := u.Upload(ctx, 3, strings.NewReader("raw"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("missing url", func(t *testing.T) {
		fc := &fakeCloudinary{result: &uploader.UploadResult{}}
		u := newCloudinaryUploader(fc, "avatars", nil)

		_, err := u.Upload(ctx, 3, strings.NewReader("raw"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	u, err := New(ctx, config.AvatarConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	_, err = u.Upload(ctx, 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)

	u, err = New(ctx, config.AvatarConfig{
		Provider:            "cloudinary",
		Folder:              "avatars",
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "123456",
		CloudinaryAPISecret: "secret",
	}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CloudinaryUploader{}, u)

	_, err = New(ctx, config.AvatarConfig{Provider: "ftp"}, nil)
	assert.Error(t, err)
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
	}{
		{"https://s3.example.com", "s3.example.com", true},
		{"http://minio:9000", "minio:9000", false},
		{"localhost:9000", "localhost:9000", false},
	}
	for _, tt := range tests {
		host, secure, err := splitEndpoint(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.host, host, tt.in)
		assert.Equal(t, tt.secure, secure, tt.in)
	}

	_, _, err := splitEndpoint("")
	assert.Error(t, err)
}
