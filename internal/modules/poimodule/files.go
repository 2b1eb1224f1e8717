package poimodule

import (
	"path"
	"strings"

	"github.com/mantonx/mediacat/internal/models"
)

// AttachmentPath returns the relative storage location for a point
// attachment. Images land in the media record's public direct/ directory so
// they are served straight off the CDN; everything else goes to uploads/.
// The same relative path doubles as the pre-resolution url.
func AttachmentPath(mediaID, mimeType, fileName string) string {
	dir := "uploads"
	if strings.HasPrefix(mimeType, "image/") {
		dir = "direct"
	}
	return path.Join("media", mediaID, dir, fileName)
}

// StampAttachment fills the storage-derived fields of an attachment prior to
// persisting it.
func StampAttachment(mediaID string, f *models.PointFile) {
	f.Path = AttachmentPath(mediaID, f.MimeType, f.FileName)
	f.URL = f.Path
}
