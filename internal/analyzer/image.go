package analyzer

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
)

var ErrProcessImage = errors.New("Failed to process image")

const (
	MaxImageBytes = 10 << 20
	// MaxRequestBytes fits a base64 body of MaxImageBytes plus form or
	// JSON framing.
	MaxRequestBytes = (MaxImageBytes+2)/3*4 + 1<<20
)

// Image is a room photo ready to inline into a vision request.
type Image struct {
	Data []byte
	MIME string
}

// Format is the MIME subtype, e.g. "jpeg".
func (i Image) Format() string { return strings.TrimPrefix(i.MIME, "image/") }

var acceptedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// DecodeImage sniffs raw bytes and rejects empty, oversize or non-photo data.
func DecodeImage(data []byte) (Image, error) {
	if len(data) == 0 || len(data) > MaxImageBytes {
		return Image{}, ErrProcessImage
	}
	mime := http.DetectContentType(data)
	if !acceptedMIME[mime] {
		return Image{}, ErrProcessImage
	}
	return Image{Data: data, MIME: mime}, nil
}

// ReadImage reads at most MaxImageBytes from r.
func ReadImage(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return Image{}, ErrProcessImage
	}
	return DecodeImage(data)
}

// DecodeBase64 accepts plain base64 or a data: URL.
func DecodeBase64(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 {
			return Image{}, ErrProcessImage
		}
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Image{}, ErrProcessImage
	}
	return DecodeImage(data)
}
