package cleaner

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	htmlPattern       = regexp.MustCompile(`(?i)<(html|body|div|p|ul|li|h[1-6]|section|article|span|br)\b[^>]*>`)
)

type Cleaner struct{}

func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// LooksLikeHTML reports whether s contains common block-level markup, as
// pasted job postings often do.
func (c *Cleaner) LooksLikeHTML(s string) bool {
	return htmlPattern.MatchString(s)
}

// CleanHTML turns a job posting page into plain text, one block per paragraph.
// A dedicated job description container is preferred over the whole body.
func (c *Cleaner) CleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripTags(html)
	}
	doc.Find("script, style, nav, header, footer, iframe, noscript").Remove()
	doc.Find(".menu, .navigation, .social, .banner, .ads, .cookie, .popup").Remove()
	doc.Find("div:empty, span:empty").Remove()

	root := doc.Selection
	if section := doc.Find("div.job-description, section.job-details, #job-content"); section.Length() > 0 {
		root = section.First()
	}

	var textBlocks []string
	root.Find("p, li, h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if len(text) > 0 {
			textBlocks = append(textBlocks, text)
		}
	})
	if len(textBlocks) > 0 {
		return strings.Join(textBlocks, "\n\n")
	}

	if bodyText := cleanText(root.Find("body").Text()); len(bodyText) > 0 {
		return bodyText
	}

	return cleanText(root.Text())
}

// CleanLlmResponse unwraps the first fenced block of a reply, dropping any
// language tag after the opening fence. Unfenced replies are only trimmed.
func (c *Cleaner) CleanLlmResponse(response string) string {
	start := strings.Index(response, "```")
	if start == -1 {
		return strings.TrimSpace(response)
	}
	start += 3

	end := strings.LastIndex(response, "```")
	if end <= start {
		return strings.TrimSpace(strings.Replace(response, "```", "", 1))
	}

	body := response[start:end]
	if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(strings.TrimSpace(body[:nl]), " \t") {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}

func stripTags(html string) string {
	return cleanText(tagPattern.ReplaceAllString(html, " "))
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
