package storage

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob" // mem:// bucket URLs
	"gocloud.dev/gcerrors"
)

// URLPrefix is the path under which stored objects are addressed in
// product_images.image_url and served over HTTP.
const URLPrefix = "/uploads/"

// ErrObjectNotFound is returned when a key has no stored object.
var ErrObjectNotFound = errors.New("object not found")

// ImageStore keeps uploaded image bytes in a gocloud bucket.
type ImageStore struct {
	bucket *blob.Bucket
}

// Open opens the bucket at bucketURL, or a local directory bucket rooted at
// dir when bucketURL is empty.
func Open(ctx context.Context, bucketURL, dir string) (*ImageStore, error) {
	if bucketURL == "" {
		b, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
		if err != nil {
			return nil, errors.Wrapf(err, "open upload dir %s", dir)
		}
		return NewImageStore(b), nil
	}

	b, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}
	return NewImageStore(b), nil
}

// NewImageStore wraps an already opened bucket.
func NewImageStore(bucket *blob.Bucket) *ImageStore {
	return &ImageStore{bucket: bucket}
}

// Save writes data under key.
func (s *ImageStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})
	return errors.Wrapf(err, "write object %s", key)
}

// Read returns the bytes stored under key.
func (s *ImageStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, translate(err, key)
	}
	return data, nil
}

// NewReader streams the object under key. The caller closes it.
func (s *ImageStore) NewReader(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, translate(err, key)
	}
	return r, nil
}

// Delete removes the object under key. A missing object is not an error.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err == nil || gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return errors.Wrapf(err, "delete object %s", key)
}

// Close releases the bucket.
func (s *ImageStore) Close() error {
	return s.bucket.Close()
}

// URLForKey is the image_url stored for key.
func URLForKey(key string) string {
	return URLPrefix + key
}

// KeyFromURL extracts the object key from a local image_url. It reports
// false for external URLs and for keys that try to escape the bucket.
func KeyFromURL(imageURL string) (string, bool) {
	if !strings.HasPrefix(imageURL, URLPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(imageURL, URLPrefix)
	if !validKey(key) {
		return "", false
	}
	return key, true
}

func validKey(key string) bool {
	if key == "" || strings.ContainsAny(key, "\\") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func translate(err error, key string) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return errors.Wrap(ErrObjectNotFound, key)
	}
	return errors.Wrapf(err, "read object %s", key)
}
