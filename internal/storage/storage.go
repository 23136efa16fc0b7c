// Package storage uploads user files (listing images, pitch decks, KYC
// photos, application documents) to public-read object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
)

// Object is one upload.
type Object struct {
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store is implemented by the object storage client. Upload returns the
// public URL of the stored object.
type Store interface {
	Upload(ctx context.Context, obj Object) (string, error)
}

// Size limits and accepted extensions per upload kind.
const (
	MaxListingImage = 2 << 20
	MaxPitchDeck    = 2 << 20
	MaxKYCPhoto     = 1 << 20
	MaxApplication  = 10 << 20
)

var (
	ImageExts       = []string{"jpg", "jpeg", "png", "gif", "webp"}
	PDFExts         = []string{"pdf"}
	ApplicationExts = []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"}
)

// File is an uploaded multipart file as handed over by the HTTP layer.
type File struct {
	Header *multipart.FileHeader
	Field  string // form field, used in validation messages
}

// Ext returns the lower-case extension without the dot.
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Header.Filename)), ".")
}

// Check validates size and extension.
func (f File) Check(maxBytes int64, exts []string) error {
	if f.Header == nil {
		return apperror.ValidationFailed(f.Field, fmt.Sprintf("%s is required", f.Field))
	}
	if f.Header.Size > maxBytes {
		return apperror.ValidationFailed(f.Field,
			fmt.Sprintf("%s must not be larger than %d KB", f.Field, maxBytes>>10))
	}
	if !slices.Contains(exts, f.Ext()) {
		return apperror.ValidationFailed(f.Field,
			fmt.Sprintf("%s must be a file of type: %s", f.Field, strings.Join(exts, ", ")))
	}
	return nil
}

// Put opens the file and uploads it under key.
func Put(ctx context.Context, store Store, f File, key string) (string, error) {
	src, err := f.Header.Open()
	if err != nil {
		return "", fmt.Errorf("storage: opening %s: %w", f.Field, err)
	}
	defer src.Close()

	contentType := f.Header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := store.Upload(ctx, Object{
		Key:         key,
		Body:        src,
		Size:        f.Header.Size,
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("storage: uploading %s: %w", key, err)
	}
	return url, nil
}

// Object keys. ts is a unix timestamp so repeat uploads never collide.

func ListingImageKey(uid string, ts time.Time, i int, ext string) string {
	return fmt.Sprintf("images/%s_%d_%d.%s", uid, ts.Unix(), i, ext)
}

func PitchDeckKey(uid string, ts time.Time) string {
	return fmt.Sprintf("documents/%s_pitch_%d.pdf", uid, ts.Unix())
}

func KYCKey(uid, kind, ext string) string {
	return fmt.Sprintf("kyc/%s_%s.%s", uid, kind, ext)
}

func ApplicationDocKey(uid, kind string, ts time.Time, ext string) string {
	return fmt.Sprintf("investor_applications/%s_%s_%d.%s", uid, kind, ts.Unix(), ext)
}
