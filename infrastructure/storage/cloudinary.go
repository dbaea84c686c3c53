// Package storage uploads avatar images to the external image host.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"matflow/application/ports"
	"matflow/domain/core/valueobjects"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// UploadAPI is the part of the Cloudinary SDK the store calls
type UploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// CloudinaryStore implements ports.ImageStore. Each user has one avatar
// public id, so a new upload replaces the previous image.
type CloudinaryStore struct {
	uploads UploadAPI
	folder  string
	logger  *zap.Logger
}

var (
	_ ports.ImageStore = (*CloudinaryStore)(nil)
	_ UploadAPI        = (*uploader.API)(nil)
)

// NewCloudinaryStore connects with a cloudinary:// URL
func NewCloudinaryStore(cloudinaryURL, folder string, logger *zap.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cloudinary url: %w", err)
	}
	return NewCloudinaryStoreWithAPI(&cld.Upload, folder, logger), nil
}

// NewCloudinaryStoreWithAPI builds a store around an existing upload client
func NewCloudinaryStoreWithAPI(uploads UploadAPI, folder string, logger *zap.Logger) *CloudinaryStore {
	return &CloudinaryStore{uploads: uploads, folder: strings.Trim(folder, "/"), logger: logger}
}

func (s *CloudinaryStore) Upload(ctx context.Context, userID valueobjects.UserID, filename string, image io.Reader) (string, error) {
	params := uploader.UploadParams{
		PublicID:     "avatar-" + userID.String(),
		Folder:       s.folder,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "image",
		Tags:         api.CldAPIArray{"avatar"},
	}
	if filename != "" {
		params.Context = api.CldAPIMap{"filename": path.Base(filename)}
	}

	result, err := s.uploads.Upload(ctx, image, params)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return "", errors.New("cloudinary upload rejected: " + result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", errors.New("cloudinary upload returned no url")
	}

	s.logger.Debug("Avatar uploaded",
		zap.String("userID", userID.String()),
		zap.String("publicID", result.PublicID),
		zap.Int("bytes", result.Bytes),
	)
	return result.SecureURL, nil
}
