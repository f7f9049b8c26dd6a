package photojobs

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by the thumbnail job for files it cannot
// decode.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// decodableExtensions lists the formats imaging can decode with the
// registered decoders.
var decodableExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// CanThumbnail reports whether the thumbnail job supports the file at path.
func CanThumbnail(path string) bool {
	return decodableExtensions[strings.ToLower(filepath.Ext(path))]
}
