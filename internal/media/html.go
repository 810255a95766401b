package media

import (
	"strings"

	"golang.org/x/net/html"

	"basegraph.app/autoresponder/internal/zendesk"
)

// ExtractImageURLs returns the src of every <img> in htmlBody that the allow-list
// accepts, in document order. Other URLs are dropped without being fetched.
func ExtractImageURLs(htmlBody string, allow *AllowList) []string {
	if htmlBody == "" {
		return nil
	}

	var urls []string
	tokenizer := html.NewTokenizer(strings.NewReader(htmlBody))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return urls
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			if !hasAttr || !strings.EqualFold(string(name), "img") {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				if strings.EqualFold(string(key), "src") {
					if src := strings.TrimSpace(string(val)); allow.Allows(src) {
						urls = append(urls, src)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// ImageAttachmentURLs returns the content URLs of attachments declared as images.
func ImageAttachmentURLs(attachments []zendesk.Attachment) []string {
	var urls []string
	for _, a := range attachments {
		if strings.HasPrefix(strings.ToLower(a.ContentType), "image/") {
			urls = append(urls, a.ContentURL)
		}
	}
	return urls
}
