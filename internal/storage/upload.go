package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	apperrors "carfix/internal/errors"
)

// FieldName is the multipart field carrying product images.
const FieldName = "images"

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Upload is a validated image ready to be stored.
type Upload struct {
	Filename    string
	ContentType string
	Ext         string
	Data        []byte
}

// Uploader validates incoming images and writes them to the ImageStore.
type Uploader struct {
	store    *ImageStore
	logger   *slog.Logger
	maxFiles int
	maxBytes int64
	now      func() time.Time
}

// NewUploader creates an uploader enforcing the per-request file count and
// per-file size limits.
func NewUploader(store *ImageStore, logger *slog.Logger, maxFiles int, maxBytes int64) *Uploader {
	return &Uploader{
		store:    store,
		logger:   logger,
		maxFiles: maxFiles,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// CheckCount rejects requests carrying more than the allowed number of files.
func (u *Uploader) CheckCount(n int) error {
	if n > u.maxFiles {
		return apperrors.WithMessage(apperrors.ErrValidation,
			fmt.Sprintf("at most %d images are allowed", u.maxFiles))
	}
	return nil
}

// Prepare reads one file and validates its size and sniffed content type.
func (u *Uploader) Prepare(filename string, r io.Reader) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return Upload{}, fmt.Errorf("read upload %s: %w", filename, err)
	}
	if int64(len(data)) > u.maxBytes {
		return Upload{}, apperrors.WithMessage(apperrors.ErrValidation,
			fmt.Sprintf("%s exceeds the %dMB limit", filename, u.maxBytes>>20))
	}

	mime := mimetype.Detect(data)
	ct := strings.SplitN(mime.String(), ";", 2)[0]
	ext, ok := allowedTypes[ct]
	if !ok {
		return Upload{}, apperrors.WithMessage(apperrors.ErrValidation,
			"Only image files (jpeg, png, gif) are allowed")
	}
	return Upload{Filename: filename, ContentType: ct, Ext: ext, Data: data}, nil
}

// Store writes every upload and returns their image URLs in order. If any
// write fails the already written objects are removed.
func (u *Uploader) Store(ctx context.Context, uploads []Upload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		key := u.newKey(up.Ext)
		if err := u.store.Save(ctx, key, up.Data, up.ContentType); err != nil {
			u.Discard(ctx, urls)
			return nil, err
		}
		urls = append(urls, URLForKey(key))
	}
	return urls, nil
}

// Discard deletes stored objects on a best-effort basis; failures are logged.
func (u *Uploader) Discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		key, ok := KeyFromURL(url)
		if !ok {
			continue
		}
		if err := u.store.Delete(ctx, key); err != nil && u.logger != nil {
			u.logger.WarnContext(ctx, "failed to remove image object",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
}

func (u *Uploader) newKey(ext string) string {
	return fmt.Sprintf("%s-%d-%09d%s", FieldName, u.now().UnixMilli(), rand.IntN(1e9), ext)
}
