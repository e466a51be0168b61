package linkedin

import (
	"log/slog"
	nurl "net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// RelevantText extracts the job-description text from raw posting HTML.
//
// It gathers the main description section (converted to markdown so list
// structure survives for the LLM) and the job-criteria list. When neither
// known section exists — LinkedIn occasionally reshuffles the guest markup —
// it falls back to readability over the whole document, then to a plain
// text dump. Output is capped at maxChars.
func RelevantText(rawHTML string, maxChars int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		slog.Warn("linkedin: posting HTML unparseable", "error", err)
		return ""
	}

	var parts []string

	description := doc.Find("section.show-more-less-html").First()
	if description.Length() > 0 {
		markup := description.Find(`div[class*="show-more-less-html__markup"]`).First()
		if markup.Length() > 0 {
			if h, err := goquery.OuterHtml(markup); err == nil {
				if md, err := htmltomarkdown.ConvertString(h); err == nil {
					parts = append(parts, strings.TrimSpace(md))
				} else if text := strings.TrimSpace(markup.Text()); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}

	criteria := doc.Find("ul.description__job-criteria-list").First()
	if criteria.Length() > 0 {
		if text := strings.TrimSpace(criteria.Text()); text != "" {
			parts = append(parts, collapseBlankLines(text))
		}
	}

	if len(parts) == 0 {
		return truncate(fallbackText(rawHTML, doc), maxChars)
	}
	return truncate(strings.Join(parts, "\n"), maxChars)
}

// fallbackText tries readability first, then a raw text dump of the document.
func fallbackText(rawHTML string, doc *goquery.Document) string {
	base, _ := nurl.Parse("https://www.linkedin.com/")
	if article, err := readability.FromReader(strings.NewReader(rawHTML), base); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}
	slog.Debug("linkedin: readability fallback empty, using raw text dump")
	return strings.TrimSpace(doc.Text())
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if trimmed := strings.TrimSpace(l); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, maxChars int) string {
	if maxChars > 0 && len(s) > maxChars {
		return s[:maxChars]
	}
	return s
}
