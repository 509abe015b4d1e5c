package catalog

import (
	"net/url"
	"strings"
)

// DefaultImageBase is where device images are published.
const DefaultImageBase = "https://img.appledb.dev"

// ImageURL returns the address of the first image for a device key.
// ext is "png" or "webp"; an empty ext defaults to "png".
func ImageURL(base, key, ext string) string {
	if base == "" {
		base = DefaultImageBase
	}
	if ext == "" {
		ext = "png"
	}
	return strings.TrimRight(base, "/") + "/device@main/" + url.PathEscape(key) + "/0." + ext
}
