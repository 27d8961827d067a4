package media_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/media"
	"github.com/prokash-cms/prokash/pkg/publisher/storage/memory"
	"github.com/prokash-cms/prokash/pkg/publisher/urls"
)

func newPipeline(t *testing.T) (*media.Pipeline, *memory.Backend) {
	t.Helper()
	store := memory.New()
	builder := urls.NewBuilder("prokash-media", "s3.eu-central-1.wasabisys.com")
	return media.NewPipeline(store, builder, 0), store
}

// testJPEG encodes a solid-color JPEG of the given dimensions.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("wide image gets medium and thumbnail variants", func(t *testing.T) {
		p, store := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 1200, 400)), "photo.jpg", "")
		require.NoError(t, err)

		assert.Equal(t, 3, store.Len())
		assert.True(t, strings.HasPrefix(res.Path, "articles/images/"))
		assert.True(t, strings.HasPrefix(res.MediumPath, "articles/images/medium/"))
		assert.True(t, strings.HasPrefix(res.ThumbnailPath, "articles/images/thumbnails/"))
		assert.Equal(t, "image/jpeg", res.MimeType)

		// variants keep the original's filename
		assert.Equal(t, "articles/images/medium/"+strings.TrimPrefix(res.Path, "articles/images/"), res.MediumPath)

		// the medium rendition is the canonical URL
		assert.Equal(t, res.MediumURL, res.URL)

		// public URLs invert back to storage paths
		assert.Equal(t, res.MediumPath, p.ExtractPath(res.URL))
		assert.Equal(t, res.MediumPath, p.ExtractPath(res.MediumURL))
		assert.Equal(t, res.ThumbnailPath, p.ExtractPath(res.ThumbnailURL))
	})

	t.Run("tall image resizes by its longest edge", func(t *testing.T) {
		p, store := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 400, 2000)), "tower.jpg", "")
		require.NoError(t, err)

		assert.Equal(t, 3, store.Len())
		assert.NotEmpty(t, res.MediumPath)
		assert.NotEmpty(t, res.ThumbnailPath)
	})

	t.Run("small image is never upscaled", func(t *testing.T) {
		p, store := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 200, 200)), "icon.png", "")
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
		assert.Empty(t, res.MediumPath)
		assert.Empty(t, res.MediumURL)
		assert.Empty(t, res.ThumbnailPath)
		assert.Empty(t, res.ThumbnailURL)

		// without a medium variant, the original is the canonical URL
		assert.Equal(t, res.Path, p.ExtractPath(res.URL))
	})

	t.Run("extension case is ignored", func(t *testing.T) {
		p, store := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 100, 100)), "PHOTO.JPG", "")
		require.NoError(t, err)
		assert.Equal(t, 1, store.Len())
		assert.True(t, strings.HasSuffix(res.Path, ".jpg"))
	})

	t.Run("intermediate width gets a thumbnail only", func(t *testing.T) {
		p, store := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 500, 500)), "mid.jpg", "")
		require.NoError(t, err)

		assert.Equal(t, 2, store.Len())
		assert.Empty(t, res.MediumPath)
		assert.NotEmpty(t, res.ThumbnailPath)
	})

	t.Run("custom folder", func(t *testing.T) {
		p, _ := newPipeline(t)
		res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 100, 100)), "a.jpg", "/avatars/")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.Path, "avatars/"))
	})

	t.Run("rejects unknown extensions", func(t *testing.T) {
		p, _ := newPipeline(t)
		_, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 10, 10)), "notes.txt", "")
		assert.ErrorIs(t, err, publisher.ErrInvalidMediaType)
	})

	t.Run("rejects undecodable data", func(t *testing.T) {
		p, store := newPipeline(t)
		_, err := p.UploadImage(ctx, strings.NewReader("this is not an image"), "fake.jpg", "")
		assert.ErrorIs(t, err, publisher.ErrInvalidMediaType)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("rejects oversized payloads", func(t *testing.T) {
		p, store := newPipeline(t)
		big := bytes.NewReader(make([]byte, media.MaxImageSize+1))
		_, err := p.UploadImage(ctx, big, "huge.jpg", "")
		assert.ErrorIs(t, err, publisher.ErrMediaTooLarge)
		assert.Equal(t, 0, store.Len())
	})
}

func TestDeleteImage(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	res, err := p.UploadImage(ctx, bytes.NewReader(testJPEG(t, 1200, 400)), "photo.jpg", "")
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	t.Run("deleting a variant URL removes the whole set", func(t *testing.T) {
		require.NoError(t, p.DeleteImage(ctx, res.MediumURL))
		assert.Equal(t, 0, store.Len())
	})

	t.Run("deleting an absent image is not an error", func(t *testing.T) {
		assert.NoError(t, p.DeleteImage(ctx, "articles/images/gone.jpg"))
	})
}

func TestUploadFile(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	res, err := p.UploadFile(ctx, strings.NewReader("%PDF-1.4 fake"), "paper.pdf", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "articles/files/"))
	assert.True(t, strings.HasSuffix(res.Path, ".pdf"))
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, 1, store.Len())

	_, err = p.UploadFile(ctx, strings.NewReader("#!/bin/sh"), "run.sh", "")
	assert.ErrorIs(t, err, publisher.ErrInvalidMediaType)

	require.NoError(t, p.DeleteFile(ctx, res.URL))
	assert.Equal(t, 0, store.Len())
}

func TestUploadVideo(t *testing.T) {
	ctx := context.Background()
	p, store := newPipeline(t)

	res, err := p.UploadVideo(ctx, strings.NewReader("ftypmp42"), "clip.mp4", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Path, "articles/videos/"))
	assert.Equal(t, "video/mp4", res.MimeType)
	assert.Equal(t, 1, store.Len())

	_, err = p.UploadVideo(ctx, strings.NewReader("matroska"), "clip.mkv", "")
	assert.ErrorIs(t, err, publisher.ErrInvalidMediaType)
}

// signingBackend is a store that can mint expiring download links.
type signingBackend struct {
	*memory.Backend
	lastFilename string
}

func (s *signingBackend) GetDownloadURL(ctx context.Context, objectKey, downloadFilename string) (string, error) {
	s.lastFilename = downloadFilename
	return "https://signed.example.com/" + objectKey, nil
}

func TestDownloadURL(t *testing.T) {
	ctx := context.Background()
	builder := urls.NewBuilder("prokash-media", "s3.eu-central-1.wasabisys.com")

	t.Run("plain backends fall back to the public URL", func(t *testing.T) {
		p, _ := newPipeline(t)
		res, err := p.UploadFile(ctx, strings.NewReader("data"), "report.pdf", "")
		require.NoError(t, err)

		url, err := p.DownloadURL(ctx, res.Path, "report.pdf")
		require.NoError(t, err)
		assert.Equal(t, res.URL, url)
	})

	t.Run("signing backends presign and keep the download name", func(t *testing.T) {
		store := &signingBackend{Backend: memory.New()}
		p := media.NewPipeline(store, builder, 0)

		res, err := p.UploadFile(ctx, strings.NewReader("data"), "report.pdf", "")
		require.NoError(t, err)

		// a public URL resolves to the same key as a raw path
		url, err := p.DownloadURL(ctx, res.URL, "annual-report.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://signed.example.com/"+res.Path, url)
		assert.Equal(t, "annual-report.pdf", store.lastFilename)
	})

	t.Run("unresolvable input is not found", func(t *testing.T) {
		p, _ := newPipeline(t)
		_, err := p.DownloadURL(ctx, "", "x")
		assert.ErrorIs(t, err, publisher.ErrNotFound)
	})
}
