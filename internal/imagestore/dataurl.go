package imagestore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDataURL is returned when an image payload is not a base64 data URL
var ErrInvalidDataURL = errors.New("invalid image data URL")

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// Image is a decoded data URL
type Image struct {
	ContentType string
	Extension   string
	Data        []byte
}

// ParseDataURL decodes "data:<mime>;base64,<payload>". Unknown mime types
// are kept and stored with the "bin" extension.
func ParseDataURL(dataURL string) (*Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return nil, ErrInvalidDataURL
	}
	contentType, ok := strings.CutSuffix(header, ";base64")
	if !ok || contentType == "" {
		return nil, ErrInvalidDataURL
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}

	ext, known := extensions[strings.ToLower(contentType)]
	if !known {
		ext = "bin"
	}
	return &Image{ContentType: contentType, Extension: ext, Data: data}, nil
}
