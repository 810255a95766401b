package media

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"basegraph.app/autoresponder/common/httpx"
	"basegraph.app/autoresponder/internal/model"
	"basegraph.app/autoresponder/internal/zendesk"
)

// Doer is satisfied by *http.Client and by a retryablehttp standard client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Resolver turns a comment's attachments and HTML body into model content parts.
// Every URL goes through the allow-list before it is fetched.
type Resolver struct {
	http  Doer
	allow *AllowList
}

func NewResolver(doer Doer, allow *AllowList) *Resolver {
	return &Resolver{http: doer, allow: allow}
}

// Resolve returns the comment's text-attachment parts followed by its image parts:
// attachment images first, then inline images, each in original order.
func (r *Resolver) Resolve(ctx context.Context, attachments []zendesk.Attachment, htmlBody string) []model.ContentPart {
	parts := r.ExtractTextAttachments(ctx, attachments)

	urls := ImageAttachmentURLs(attachments)
	urls = append(urls, ExtractImageURLs(htmlBody, r.allow)...)
	return append(parts, r.EncodeImageURLs(ctx, urls)...)
}

// EncodeImageURLs fetches, shrinks and encodes each URL concurrently. URLs that fail
// at any step are dropped.
func (r *Resolver) EncodeImageURLs(ctx context.Context, urls []string) []model.ContentPart {
	return collect(ctx, "image", urls,
		func(u string) string { return u },
		r.encodeImageURL)
}

// ExtractTextAttachments reads .txt and .log attachments into text parts.
func (r *Resolver) ExtractTextAttachments(ctx context.Context, attachments []zendesk.Attachment) []model.ContentPart {
	var candidates []zendesk.Attachment
	for _, a := range attachments {
		if IsTextAttachment(a.FileName) {
			candidates = append(candidates, a)
		}
	}
	return collect(ctx, "text", candidates,
		func(a zendesk.Attachment) string { return a.FileName },
		r.extractText)
}

func (r *Resolver) encodeImageURL(ctx context.Context, rawURL string) (model.ContentPart, error) {
	resp, err := r.fetch(ctx, rawURL)
	if err != nil {
		return model.ContentPart{}, err
	}
	defer resp.Body.Close()

	mimeType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || (mimeType != mimeJPEG && mimeType != mimePNG) {
		return model.ContentPart{}, fmt.Errorf("%w: %q", ErrUnsupportedType, resp.Header.Get("Content-Type"))
	}

	data, err := readAllWithLimit(resp.Body, MaxDownloadBytes)
	if err != nil {
		return model.ContentPart{}, err
	}

	encoded, err := EncodeImage(data, mimeType)
	if err != nil {
		return model.ContentPart{}, err
	}
	return model.ImageContent(encoded, mimeType), nil
}

func (r *Resolver) extractText(ctx context.Context, a zendesk.Attachment) (model.ContentPart, error) {
	if a.Size > MaxTextAttachmentBytes {
		return model.ContentPart{}, fmt.Errorf("%w: declared size %d", ErrTooLarge, a.Size)
	}

	resp, err := r.fetch(ctx, a.ContentURL)
	if err != nil {
		return model.ContentPart{}, err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !acceptableTextType(ct) {
		return model.ContentPart{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ct)
	}

	data, err := readAllWithLimit(resp.Body, MaxTextAttachmentBytes)
	if err != nil {
		return model.ContentPart{}, err
	}

	content := TruncateText(strings.ToValidUTF8(string(data), "\uFFFD"))
	return model.TextContent(FormatTextAttachment(a.FileName, content)), nil
}

// fetch refuses blob: and non-allow-listed URLs and returns only 2xx responses.
func (r *Resolver) fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(rawURL)), "blob:") {
		return nil, fmt.Errorf("%w: %s", ErrUnfetchable, rawURL)
	}
	if !r.allow.Allows(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if !httpx.IsSuccess(resp.StatusCode) {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	return resp, nil
}
