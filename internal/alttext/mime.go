package alttext

import (
	"net/url"
	"strings"
)

// mimeTypes maps the supported file extensions to the MIME types the
// model accepts. Anything outside this set is rejected before any
// external call is made.
var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

// MIMETypeForURL classifies an image URL by its path extension.
// Returns the MIME type and whether the extension is supported.
func MIMETypeForURL(imageURL string) (string, bool) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", false
	}

	path := u.Path
	idx := strings.LastIndex(path, ".")
	if idx < 0 {
		return "", false
	}

	mimeType, ok := mimeTypes[strings.ToLower(path[idx+1:])]
	return mimeType, ok
}
