package web

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

const (
	maxUploadSize = 10 << 20 // 10 MiB
	maxJSONBody   = 16 << 20 // room for a base64 preview of a full-size upload
)

var errBadDataURI = errors.New("image preview must be a base64 data URI")

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the stdlib sniffer does not
// know its signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// decodeDataURI decodes a "data:<mime>;base64,<payload>" image preview. The
// declared type is ignored in favour of the sniffed one.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", errBadDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errBadDataURI
	}
	mime, ok := allowedImageMIME(data)
	if !ok {
		return nil, "", errors.New("unsupported image format")
	}
	return data, mime, nil
}
