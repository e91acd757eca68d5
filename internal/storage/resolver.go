package storage

import (
	"context"
	"encoding/base64"
	"log/slog"
	"path"
	"strings"
)

// Resolved is either inline bytes with their MIME type, or a fetchable URL.
type Resolved struct {
	Data []byte
	MIME string
	URL  string
}

// String renders r as a data URI when it carries bytes, otherwise as its URL.
func (r Resolved) String() string {
	if r.Data != nil {
		return "data:" + r.MIME + ";base64," + base64.StdEncoding.EncodeToString(r.Data)
	}
	return r.URL
}

// ImageRef is a stored image reference that can be turned into something a
// client can render.
type ImageRef interface {
	Resolve(ctx context.Context) (Resolved, error)
}

// LocalFileImage is an image held in the ImageStore.
type LocalFileImage struct {
	Store *ImageStore
	Key   string
}

func (i LocalFileImage) Resolve(ctx context.Context) (Resolved, error) {
	data, err := i.Store.Read(ctx, i.Key)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Data: data, MIME: MIMEFromExt(i.Key)}, nil
}

// RemoteURLImage is an image hosted elsewhere.
type RemoteURLImage struct {
	URL string
}

func (i RemoteURLImage) Resolve(context.Context) (Resolved, error) {
	return Resolved{URL: i.URL}, nil
}

// Resolver turns image_url values into ImageRefs. Local uploads are inlined;
// absolute URLs pass through; other relative paths are made absolute against
// the request's base URL.
type Resolver struct {
	store  *ImageStore
	logger *slog.Logger
}

// NewResolver creates a resolver reading local images from store.
func NewResolver(store *ImageStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Ref classifies imageURL.
func (r *Resolver) Ref(imageURL, baseURL string) ImageRef {
	if key, ok := KeyFromURL(imageURL); ok && r.store != nil {
		return LocalFileImage{Store: r.store, Key: key}
	}
	if isAbsolute(imageURL) || baseURL == "" {
		return RemoteURLImage{URL: imageURL}
	}
	return RemoteURLImage{URL: strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(imageURL, "/")}
}

// Lookup resolves imageURL. It reports false when the image cannot be read;
// the failure is logged and never returned, so one broken image cannot fail
// a listing.
func (r *Resolver) Lookup(ctx context.Context, imageURL, baseURL string) (Resolved, bool) {
	if imageURL == "" {
		return Resolved{}, false
	}
	res, err := r.Ref(imageURL, baseURL).Resolve(ctx)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "image unavailable",
				slog.String("image_url", imageURL),
				slog.Any("error", err))
		}
		return Resolved{}, false
	}
	return res, true
}

// Resolve returns the renderable form of imageURL, or nil when the image
// cannot be read.
func (r *Resolver) Resolve(ctx context.Context, imageURL, baseURL string) *string {
	res, ok := r.Lookup(ctx, imageURL, baseURL)
	if !ok {
		return nil
	}
	s := res.String()
	return &s
}

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "data:")
}

// MIMEFromExt maps a file name to the image MIME type served for it.
// Unknown extensions are treated as PNG.
func MIMEFromExt(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
