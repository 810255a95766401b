package media

import "errors"

var (
	// ErrNotAllowed indicates a URL outside the ticketing asset host allow-list.
	ErrNotAllowed = errors.New("media url not allowed")
	// ErrUnfetchable indicates a URL that only exists in the author's browser (blob:).
	ErrUnfetchable = errors.New("media url not fetchable")
	// ErrFetchFailed indicates a transport error or non-2xx response.
	ErrFetchFailed = errors.New("media fetch failed")
	// ErrUnsupportedType indicates a content type the resolver does not accept.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge indicates a payload over its size limit.
	ErrTooLarge = errors.New("media too large")
	// ErrDecode indicates bytes that could not be decoded or re-encoded.
	ErrDecode = errors.New("media decode failed")
)

// skipReason is the metrics label for a dropped item.
func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAllowed):
		return "not_allowed"
	case errors.Is(err, ErrUnfetchable):
		return "unfetchable"
	case errors.Is(err, ErrFetchFailed):
		return "fetch_failed"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrDecode):
		return "decode_failed"
	default:
		return "other"
	}
}
