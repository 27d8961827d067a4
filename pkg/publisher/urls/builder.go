// Package urls builds public object URLs and inverts them back to storage
// paths. The round trip is a contract the media pipeline depends on:
// ExtractPath(BuildURL(p)) == p for every stored path p.
package urls

import (
	"net/url"
	"strings"
)

// Builder produces virtual-hosted-style URLs for a single bucket on an
// S3-compatible endpoint.
type Builder struct {
	bucket   string
	endpoint string // host only, e.g. "s3.eu-central-1.wasabisys.com"
	scheme   string
}

// NewBuilder creates a Builder for the bucket on the given endpoint. The
// endpoint may be a bare host or a full URL; any scheme present is honored,
// otherwise https is assumed.
func NewBuilder(bucket, endpoint string) *Builder {
	scheme := "https"
	host := endpoint
	if strings.Contains(endpoint, "://") {
		if u, err := url.Parse(endpoint); err == nil {
			scheme = u.Scheme
			host = u.Host
		}
	}
	return &Builder{bucket: bucket, endpoint: host, scheme: scheme}
}

// BuildURL returns the public virtual-hosted URL for a storage path, e.g.
// "articles/images/ab12.jpg" -> "https://bucket.s3.host/articles/images/ab12.jpg".
func (b *Builder) BuildURL(path string) string {
	path = strings.TrimPrefix(path, "/")
	return b.scheme + "://" + b.bucket + "." + b.endpoint + "/" + path
}

// ExtractPath inverts BuildURL, accepting any of the URL shapes the platform
// has ever issued. Non-URL input is assumed to already be a storage path and
// is returned unchanged.
//
// Recognized shapes, tried in order:
//  1. virtual-hosted: https://{bucket}.{host}/{path}
//  2. path-style:     https://{host}/{bucket}/{path}
//  3. any other URL:  the URL path, with a leading bucket segment stripped
func (b *Builder) ExtractPath(raw string) string {
	if !strings.Contains(raw, "://") {
		return strings.TrimPrefix(raw, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	path := strings.TrimPrefix(u.Path, "/")

	if strings.HasPrefix(u.Host, b.bucket+".") {
		return path
	}
	if u.Host == b.endpoint && strings.HasPrefix(path, b.bucket+"/") {
		return strings.TrimPrefix(path, b.bucket+"/")
	}
	// Unknown host: best effort, strip a bucket segment if one leads.
	return strings.TrimPrefix(path, b.bucket+"/")
}
