package extractor

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/ternarybob/arbor"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// htmlToMarkdown converts the main content HTML to markdown for analysis
// prompts and report rendering. Conversion failures and empty output fall
// back to tag stripping.
func htmlToMarkdown(html, pageURL string, logger arbor.ILogger) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	domain := ""
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		domain = u.Scheme + "://" + u.Host
	}

	converter := md.NewConverter(domain, true, nil)
	converted, err := converter.ConvertString(html)
	if err != nil {
		logger.Warn().Err(err).Msg("Markdown conversion failed, stripping tags instead")
		return stripHTMLTags(html)
	}

	if strings.TrimSpace(converted) == "" {
		logger.Warn().Int("html_length", len(html)).Msg("Markdown conversion produced empty output, stripping tags instead")
		return stripHTMLTags(html)
	}

	return converted
}

// stripHTMLTags removes tags and decodes the common entities for fallback
// cases.
func stripHTMLTags(html string) string {
	stripped := htmlTagRe.ReplaceAllString(html, "")
	cleaned := whitespaceRe.ReplaceAllString(stripped, " ")

	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
