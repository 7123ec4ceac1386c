// Package media stores place images on an external image host.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"ubmap.app/internal/appconf"
)

// ErrDisabled is returned when no image host is configured.
var ErrDisabled = errors.New("image uploads are not configured")

// Uploader stores one image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
	logger *slog.Logger
}

func NewCloudinaryUploader(config appconf.Cloudinary, logger *slog.Logger) (*CloudinaryUploader, error) {
	if !config.Enabled() {
		return nil, ErrDisabled
	}

	cld, err := cloudinary.NewFromParams(config.CloudName, config.APIKey, config.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}

	folder := config.Folder
	if folder == "" {
		folder = appconf.DefaultCloudinaryFolder
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CloudinaryUploader{
		cld:    cld,
		folder: folder,
		logger: logger.With(slog.String("component", "cloudinary_uploader")),
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       u.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filename, err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("uploading %s: %s", filename, resp.Error.Message)
	}

	url := resp.SecureURL
	if url == "" {
		url = resp.URL
	}
	if url == "" {
		return "", fmt.Errorf("uploading %s: image host returned no URL", filename)
	}

	u.logger.Info("image uploaded", slog.String("filename", filename), slog.String("public_id", resp.PublicID))
	return url, nil
}
