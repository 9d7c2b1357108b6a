package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// GenerateKey builds {ownerID}/{yyyy}/{mm}/{dd}/{uuid}-{base}{ext} using the
// current UTC date.
func GenerateKey(originalName, ownerID string) string {
	return generateKeyAt(originalName, ownerID, time.Now().UTC(), uuid.NewString())
}

func generateKeyAt(originalName, ownerID string, now time.Time, id string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)

	return fmt.Sprintf("%s/%s/%s-%s%s",
		sanitizeSegment(ownerID, "owner"),
		now.Format("2006/01/02"),
		id,
		sanitizeSegment(base, "file"),
		sanitizeExt(ext),
	)
}

// sanitizeSegment strips every character outside [A-Za-z0-9_-].
func sanitizeSegment(s, fallback string) string {
	cleaned := unsafeKeyChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

// sanitizeExt keeps the dot and applies the same character set to the rest.
func sanitizeExt(ext string) string {
	cleaned := unsafeKeyChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if cleaned == "" {
		return ""
	}
	return "." + cleaned
}

// StoredName is the generated storage name of a key (its last segment).
func StoredName(key string) string {
	return path.Base(key)
}
