package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// DefaultPrefix is used when a presign request names no prefix
const DefaultPrefix = "merchant-uploads"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SafeName replaces every character outside [a-zA-Z0-9._-] with an underscore
func SafeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// ObjectKey builds "<prefix>/<unixMillis>-<safeName>". Prefix segments are
// sanitized like file names and traversal segments are dropped.
func ObjectKey(prefix, fileName string, at time.Time) string {
	var segments []string
	for _, seg := range strings.Split(prefix, "/") {
		seg = SafeName(strings.TrimSpace(seg))
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		segments = []string{DefaultPrefix}
	}
	return path.Join(append(segments, fmt.Sprintf("%d-%s", at.UnixMilli(), SafeName(fileName)))...)
}

// CleanKey normalizes a key taken from a request path and rejects keys that
// would leave the store.
func CleanKey(raw string) (string, bool) {
	key := strings.TrimPrefix(path.Clean("/"+raw), "/")
	if key == "" || key == "." {
		return "", false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." || strings.HasPrefix(seg, ".upload-") {
			return "", false
		}
	}
	return key, true
}
