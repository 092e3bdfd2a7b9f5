package service

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"cleanCity/pkg/e"
)

const sniffLen = 512

var imageExtensions = map[string]string{
	"image/jpeg":   ".jpg",
	"image/png":    ".png",
	"image/gif":    ".gif",
	"image/webp":   ".webp",
	"image/bmp":    ".bmp",
	"image/x-icon": ".ico",
}

// sniffImage detects the content type from the first bytes of body and
// returns a reader that replays them. SVG sniffs as text/xml and is rejected.
func sniffImage(filename string, body io.Reader) (ext string, rest io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, e.Wrap("sniffImage", err)
	}
	head = head[:n]
	if n == 0 {
		return "", nil, e.NewValidationError("image is empty")
	}

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, e.NewValidationError("only image files are allowed")
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filename))
		if !validExt(ext) {
			ext = ".img"
		}
	}

	return ext, io.MultiReader(bytes.NewReader(head), body), nil
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
