package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by the disabled store
var ErrNotConfigured = errors.New("blob storage is not configured")

// Blob is a stored file. ResourceType is whatever the backend filed it under
// and must be handed back on Delete.
type Blob struct {
	Key          string
	URL          string
	ResourceType string
}

// Store persists attachment bytes under a caller chosen key
type Store interface {
	Put(ctx context.Context, key string, body io.Reader) (Blob, error)
	Delete(ctx context.Context, blob Blob) error
}

// Cloudinary stores blobs as cloudinary assets, letting cloudinary pick the
// resource type on upload
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// New returns a Cloudinary store for the given CLOUDINARY_URL, or a disabled
// store when url is empty.
func New(url string) (Store, error) {
	if url == "" {
		zap.S().Warn("CLOUDINARY_URL not set, attachment uploads are disabled")
		return Disabled{}, nil
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to configure cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// defaultResourceType is what cloudinary assumes when none is given
const defaultResourceType = "image"

// cloudinary appends the format to image and video public ids; raw assets keep
// their extension in the id itself
var mediaExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".bmp": true, ".tif": true, ".tiff": true, ".heic": true, ".heif": true,
	".avif": true, ".svg": true, ".ico": true, ".pdf": true,
	".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true,
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true,
}

func publicID(key string) string {
	i := strings.LastIndex(key, ".")
	if i <= strings.LastIndex(key, "/") {
		return key
	}
	if mediaExtensions[strings.ToLower(key[i:])] {
		return key[:i]
	}
	return key
}

// Put uploads body and returns where it landed
func (c *Cloudinary) Put(ctx context.Context, key string, body io.Reader) (Blob, error) {
	resp, err := c.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:     publicID(key),
		ResourceType: "auto",
	})
	if err != nil {
		return Blob{}, err
	}
	if resp.Error.Message != "" {
		return Blob{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return Blob{Key: key, URL: resp.SecureURL, ResourceType: resp.ResourceType}, nil
}

// Delete removes blob. Anything but an "ok" result, including "not found", is
// an error.
func (c *Cloudinary) Delete(ctx context.Context, blob Blob) error {
	resourceType := blob.ResourceType
	if resourceType == "" {
		resourceType = defaultResourceType
	}
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID(blob.Key),
		ResourceType: resourceType,
	})
	if err != nil {
		return err
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", blob.Key, resp.Error.Message)
	}
	if resp.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %s: result %q", blob.Key, resp.Result)
	}
	return nil
}

// Disabled rejects every write
type Disabled struct{}

// Put always fails
func (Disabled) Put(context.Context, string, io.Reader) (Blob, error) {
	return Blob{}, ErrNotConfigured
}

// Delete always fails
func (Disabled) Delete(context.Context, Blob) error {
	return ErrNotConfigured
}
