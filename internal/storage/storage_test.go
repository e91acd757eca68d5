package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	apperrors "carfix/internal/errors"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

func newTestStore(t *testing.T) *ImageStore {
	t.Helper()
	s := NewImageStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{url: "/uploads/images-1-2.png", want: "images-1-2.png", wantOK: true},
		{url: "/uploads/sub/a.jpg", want: "sub/a.jpg", wantOK: true},
		{url: "/uploads/../secret", wantOK: false},
		{url: "/uploads/", wantOK: false},
		{url: "https://cdn.example.com/a.png", wantOK: false},
		{url: "/static/a.png", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := KeyFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMIMEFromExt(t *testing.T) {
	assert.Equal(t, "image/jpeg", MIMEFromExt("a.JPG"))
	assert.Equal(t, "image/jpeg", MIMEFromExt("a.jpeg"))
	assert.Equal(t, "image/gif", MIMEFromExt("a.gif"))
	assert.Equal(t, "image/png", MIMEFromExt("a.png"))
	assert.Equal(t, "image/png", MIMEFromExt("a.webp"))
}

func TestImageStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Read(context.Background(), "nope.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
	assert.NoError(t, s.Delete(context.Background(), "nope.png"))
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Save(ctx, "images-1-1.jpg", []byte("jpegbytes"), "image/jpeg"))
	r := NewResolver(s, quietLogger())

	t.Run("local upload is inlined", func(t *testing.T) {
		got := r.Resolve(ctx, "/uploads/images-1-1.jpg", "http://api.local")
		require.NotNil(t, got)
		assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpegbytes")), *got)
	})

	t.Run("missing local upload degrades to nil", func(t *testing.T) {
		assert.Nil(t, r.Resolve(ctx, "/uploads/gone.png", "http://api.local"))
	})

	t.Run("absolute url passes through", func(t *testing.T) {
		got := r.Resolve(ctx, "https://cdn.example.com/x.png", "http://api.local")
		require.NotNil(t, got)
		assert.Equal(t, "https://cdn.example.com/x.png", *got)
	})

	t.Run("relative url gets host", func(t *testing.T) {
		got := r.Resolve(ctx, "/static/x.png", "http://api.local/")
		require.NotNil(t, got)
		assert.Equal(t, "http://api.local/static/x.png", *got)
	})

	t.Run("empty url", func(t *testing.T) {
		assert.Nil(t, r.Resolve(ctx, "", "http://api.local"))
	})
}

func TestResolver_RefVariants(t *testing.T) {
	r := NewResolver(newTestStore(t), nil)
	assert.IsType(t, LocalFileImage{}, r.Ref("/uploads/a.png", ""))
	assert.IsType(t, RemoteURLImage{}, r.Ref("https://x/a.png", ""))
}

func TestUploader_Prepare(t *testing.T) {
	u := NewUploader(newTestStore(t), quietLogger(), 5, 64)

	tests := []struct {
		name    string
		data    []byte
		wantExt string
		wantErr bool
	}{
		{name: "png", data: pngHeader, wantExt: ".png"},
		{name: "gif", data: gifHeader, wantExt: ".gif"},
		{name: "jpeg", data: jpegHeader, wantExt: ".jpg"},
		{name: "text rejected", data: []byte("hello world"), wantErr: true},
		{name: "too large", data: append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := u.Prepare("file", bytes.NewReader(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, up.Ext)
		})
	}
}

func TestUploader_CheckCount(t *testing.T) {
	u := NewUploader(newTestStore(t), nil, 5, 1<<20)
	assert.NoError(t, u.CheckCount(5))
	assert.ErrorIs(t, u.CheckCount(6), apperrors.ErrValidation)
}

func TestUploader_StoreAndDiscard(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := NewUploader(s, quietLogger(), 5, 1<<20)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }

	up, err := u.Prepare("a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	urls, err := u.Store(ctx, []Upload{up, up})
	require.NoError(t, err)
	require.Len(t, urls, 2)
	for _, url := range urls {
		assert.True(t, strings.HasPrefix(url, "/uploads/images-1700000000000-"))
		assert.True(t, strings.HasSuffix(url, ".png"))
		key, _ := KeyFromURL(url)
		data, err := s.Read(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
	}

	u.Discard(ctx, urls)
	for _, url := range urls {
		key, _ := KeyFromURL(url)
		_, err := s.Read(ctx, key)
		assert.ErrorIs(t, err, ErrObjectNotFound)
	}
}
