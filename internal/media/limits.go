package media

import (
	"fmt"
	"io"
)

const (
	// MaxImageBytes caps the estimated decoded size of an encoded image part.
	MaxImageBytes = 20 * 1024 * 1024
	// MaxDownloadBytes caps a raw image download before decoding.
	MaxDownloadBytes int64 = 25 * 1024 * 1024
	// MaxImageDimension is the bounding box images are shrunk into.
	MaxImageDimension = 600

	// MaxTextAttachmentBytes rejects text attachments by declared size before fetching.
	MaxTextAttachmentBytes int64 = 32 * 1024
	// MaxTextChars is how much of a text attachment reaches the model.
	MaxTextChars = 3500
	// TruncationMarker is appended to text cut at MaxTextChars.
	TruncationMarker = "\n...[truncated]"
)

// ExceedsImageLimit estimates the decoded size of a base64 payload of length
// base64Len as three quarters of it and compares against MaxImageBytes.
func ExceedsImageLimit(base64Len int) bool {
	return float64(base64Len)*0.75 > MaxImageBytes
}

// readAllWithLimit reads from reader and rejects payloads larger than maxBytes.
func readAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	limited := &io.LimitedReader{
		R: reader,
		N: maxBytes + 1,
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrTooLarge, maxBytes)
	}
	return data, nil
}
