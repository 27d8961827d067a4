// Package media implements the upload pipeline: validation, image variant
// derivation, storage writes, and variant-complete deletion.
package media

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // webp decode support

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/urls"
)

// Variant geometry and encoding. Variants are downscale-only: a source
// whose longest edge already fits gets no variant object.
const (
	mediumMaxEdge    = 800
	thumbnailMaxEdge = 300
	jpegQuality      = 80

	mediumDir    = "medium"
	thumbnailDir = "thumbnails"

	stemLength = 40
)

// Size ceilings per media class.
const (
	MaxImageSize = 10 << 20  // 10 MiB
	MaxVideoSize = 100 << 20 // 100 MiB
	MaxFileSize  = 50 << 20  // 50 MiB
)

// Accepted media types, keyed by filename extension. The value is the MIME
// type reported back to the caller; for images the decoded format wins.
var (
	imageTypes = map[string]string{
		".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
		".gif": "image/gif", ".webp": "image/webp",
	}
	videoTypes = map[string]string{
		".mp4": "video/mp4", ".mpeg": "video/mpeg", ".mpg": "video/mpeg",
		".mov": "video/quicktime", ".avi": "video/x-msvideo", ".webm": "video/webm",
	}
	fileTypes = map[string]string{
		".pdf":  "application/pdf",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".xls":  "application/vnd.ms-excel",
		".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		".ppt":  "application/vnd.ms-powerpoint",
		".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		".txt":  "text/plain",
		".zip":  "application/zip",
	}
)

// UploadResult describes the stored object(s) for one upload.
type UploadResult struct {
	Path          string `json:"path"`
	URL           string `json:"url"`
	MediumPath    string `json:"medium_path,omitempty"`
	MediumURL     string `json:"medium_url,omitempty"`
	ThumbnailPath string `json:"thumbnail_path,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	Size          int64  `json:"size"`
	MimeType      string `json:"mime_type,omitempty"`
}

// Pipeline ingests uploads into a BlobStore and derives image variants.
// Every storage call is bounded by the configured timeout; a deadline hit
// surfaces as ErrStorageUnavailable.
type Pipeline struct {
	store   publisher.BlobStore
	urls    *urls.Builder
	timeout time.Duration
}

// NewPipeline creates a Pipeline over the given store and URL builder.
func NewPipeline(store publisher.BlobStore, builder *urls.Builder, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{store: store, urls: builder, timeout: timeout}
}

// UploadImage validates, stores, and derives variants for one image. The
// original goes to {folder}/{stem}{ext}; variants to {folder}/medium/ and
// {folder}/thumbnails/ under the same filename. If any write fails, already
// stored objects for this upload are removed before returning.
func (p *Pipeline) UploadImage(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error) {
	ext := normalizedExt(filename)
	if _, ok := imageTypes[ext]; !ok {
		return nil, fmt.Errorf("%w: %s is not an accepted image type", publisher.ErrInvalidMediaType, ext)
	}

	data, err := readBounded(r, MaxImageSize)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image data", publisher.ErrInvalidMediaType)
	}

	stem := randomStem(stemLength)
	name := stem + ext
	base := strings.Trim(folder, "/")
	if base == "" {
		base = "articles/images"
	}

	result := &UploadResult{
		Path:     path.Join(base, name),
		Size:     int64(len(data)),
		MimeType: "image/" + format,
	}

	stored := []string{result.Path}
	if err := p.put(ctx, result.Path, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	fail := func(err error) (*UploadResult, error) {
		p.removeAll(ctx, stored)
		return nil, err
	}

	if medium, ok := deriveVariant(img, mediumMaxEdge); ok {
		key := path.Join(base, mediumDir, name)
		if err := p.put(ctx, key, bytes.NewReader(medium)); err != nil {
			return fail(err)
		}
		stored = append(stored, key)
		result.MediumPath = key
	}
	if thumb, ok := deriveVariant(img, thumbnailMaxEdge); ok {
		key := path.Join(base, thumbnailDir, name)
		if err := p.put(ctx, key, bytes.NewReader(thumb)); err != nil {
			return fail(err)
		}
		result.ThumbnailPath = key
	}

	result.URL = p.urls.BuildURL(result.Path)
	if result.MediumPath != "" {
		// The medium rendition is the canonical URL handed to articles.
		result.MediumURL = p.urls.BuildURL(result.MediumPath)
		result.URL = result.MediumURL
	}
	if result.ThumbnailPath != "" {
		result.ThumbnailURL = p.urls.BuildURL(result.ThumbnailPath)
	}
	return result, nil
}

// UploadVideo stores one video object. No variants are derived.
func (p *Pipeline) UploadVideo(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error) {
	return p.uploadPlain(ctx, r, filename, folder, "articles/videos", videoTypes, MaxVideoSize)
}

// UploadFile stores one document object. No variants are derived.
func (p *Pipeline) UploadFile(ctx context.Context, r io.Reader, filename, folder string) (*UploadResult, error) {
	return p.uploadPlain(ctx, r, filename, folder, "articles/files", fileTypes, MaxFileSize)
}

func (p *Pipeline) uploadPlain(ctx context.Context, r io.Reader, filename, folder, defaultFolder string, allowed map[string]string, limit int64) (*UploadResult, error) {
	ext := normalizedExt(filename)
	mimeType, ok := allowed[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not accepted here", publisher.ErrInvalidMediaType, ext)
	}

	data, err := readBounded(r, limit)
	if err != nil {
		return nil, err
	}

	base := strings.Trim(folder, "/")
	if base == "" {
		base = defaultFolder
	}
	key := path.Join(base, randomStem(stemLength)+ext)
	if err := p.put(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &UploadResult{
		Path:     key,
		URL:      p.urls.BuildURL(key),
		Size:     int64(len(data)),
		MimeType: mimeType,
	}, nil
}

// DeleteImage removes an image and every variant derived from it. The input
// may be a storage path or a public URL, and may point at the original or at
// a variant; all three objects are targeted either way. Partial failure
// surfaces as ErrStorageInconsistent listing what remains.
func (p *Pipeline) DeleteImage(ctx context.Context, pathOrURL string) error {
	original := normalizeToOriginal(p.urls.ExtractPath(pathOrURL))
	if original == "" {
		return nil
	}

	dir, name := path.Split(original)
	dir = strings.TrimSuffix(dir, "/")
	targets := []string{
		original,
		path.Join(dir, mediumDir, name),
		path.Join(dir, thumbnailDir, name),
	}

	var failed []string
	for _, key := range targets {
		if err := p.remove(ctx, key); err != nil {
			slog.Warn("image variant delete failed", "key", key, "err", err)
			failed = append(failed, key)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: undeleted objects %v", publisher.ErrStorageInconsistent, failed)
	}
	return nil
}

// DeleteFile removes a single non-image object.
func (p *Pipeline) DeleteFile(ctx context.Context, pathOrURL string) error {
	key := p.urls.ExtractPath(pathOrURL)
	if key == "" {
		return nil
	}
	return p.remove(ctx, key)
}

// ExtractPath exposes the URL inversion for callers that only hold a URL.
func (p *Pipeline) ExtractPath(url string) string {
	return p.urls.ExtractPath(url)
}

// URLSigner issues expiring download links with an attachment disposition.
// The S3 backend implements it; plain backends do not.
type URLSigner interface {
	GetDownloadURL(ctx context.Context, objectKey, downloadFilename string) (string, error)
}

// DownloadURL returns a link for fetching one stored object. The input may
// be a storage path or a public URL. Stores that can presign get a
// time-limited link carrying the suggested filename; others fall back to
// the plain public URL.
func (p *Pipeline) DownloadURL(ctx context.Context, pathOrURL, filename string) (string, error) {
	key := p.urls.ExtractPath(pathOrURL)
	if key == "" {
		return "", fmt.Errorf("%w: no storage path in %q", publisher.ErrNotFound, pathOrURL)
	}

	signer, ok := p.store.(URLSigner)
	if !ok {
		return p.urls.BuildURL(key), nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	url, err := signer.GetDownloadURL(ctx, key, filename)
	if err != nil {
		return "", classify(key, "presign", err)
	}
	return url, nil
}

// put performs one bounded storage write.
func (p *Pipeline) put(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.store.Upload(ctx, key, r); err != nil {
		return classify(key, "upload", err)
	}
	return nil
}

func (p *Pipeline) remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.store.Delete(ctx, key); err != nil {
		return classify(key, "delete", err)
	}
	return nil
}

// removeAll is best-effort cleanup after a partial upload.
func (p *Pipeline) removeAll(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := p.remove(ctx, key); err != nil {
			slog.Warn("partial upload cleanup failed", "key", key, "err", err)
		}
	}
}

func classify(key, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", publisher.ErrStorageUnavailable, err)
	}
	return &publisher.StorageError{Key: key, Op: op, Err: err}
}

// deriveVariant resizes down so the longest edge fits maxEdge, preserving
// aspect ratio, and encodes as JPEG. Returns ok=false when the source
// already fits.
func deriveVariant(img image.Image, maxEdge int) ([]byte, bool) {
	bounds := img.Bounds()
	if bounds.Dx() <= maxEdge && bounds.Dy() <= maxEdge {
		return nil, false
	}
	resized := imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// normalizeToOriginal maps a variant path back to its original: stored
// variants live one directory below the original under medium/ or
// thumbnails/.
func normalizeToOriginal(key string) string {
	key = strings.Trim(key, "/")
	dir, name := path.Split(key)
	dir = strings.TrimSuffix(dir, "/")
	switch path.Base(dir) {
	case mediumDir, thumbnailDir:
		return path.Join(path.Dir(dir), name)
	}
	return key
}

// normalizedExt lowercases the filename's extension, dot included.
func normalizedExt(filename string) string {
	return strings.ToLower(path.Ext(filename))
}

func readBounded(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: exceeds %d bytes", publisher.ErrMediaTooLarge, limit)
	}
	return data, nil
}

const stemAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomStem returns an n-character alphanumeric object name.
func randomStem(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("0", n)
	}
	for i, b := range buf {
		buf[i] = stemAlphabet[int(b)%len(stemAlphabet)]
	}
	return string(buf)
}
