package media

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode/utf8"
)

var textExtensions = []string{".txt", ".log"}

// IsTextAttachment reports whether fileName has a plain-text extension.
func IsTextAttachment(fileName string) bool {
	ext := strings.ToLower(path.Ext(fileName))
	for _, e := range textExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// acceptableTextType accepts a missing content type, any text/* type and
// application/octet-stream.
func acceptableTextType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/") || mediaType == "application/octet-stream"
}

// TruncateText keeps the first MaxTextChars characters and appends TruncationMarker
// when anything was cut.
func TruncateText(s string) string {
	if utf8.RuneCountInString(s) <= MaxTextChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxTextChars]) + TruncationMarker
}

// FormatTextAttachment is the text part the model sees for an attached file.
func FormatTextAttachment(fileName, content string) string {
	return fmt.Sprintf("[Attached file: %s]\n%s", fileName, content)
}
