package attachment

import (
	"path/filepath"
	"strings"

	"github.com/sandevgo/tuskctx/internal/core"
)

var knownMimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// resolveMimeType prefers the recorded type and falls back to the file
// extension for common image formats.
func resolveMimeType(rec core.UploadRecord) string {
	if mt := strings.TrimSpace(rec.MimeType); mt != "" {
		return mt
	}
	if mt, ok := knownMimeByExt[strings.ToLower(filepath.Ext(displayName(rec)))]; ok {
		return mt
	}
	return ""
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

func displayName(rec core.UploadRecord) string {
	switch {
	case rec.OriginalName != "":
		return rec.OriginalName
	case rec.StoredName != "":
		return rec.StoredName
	default:
		return rec.FileID
	}
}
