package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	htmlTag        = regexp.MustCompile(`(?i)<(html|body|div|p|a|table|br|span)[\s>/]`)
	spaceRun       = regexp.MustCompile(`[^\S\n]+`)
	blankLines     = regexp.MustCompile(`\n{3,}`)
	invisibleChars = regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}]+`)
)

// LooksLikeHTML reports whether a body carries HTML markup
func LooksLikeHTML(body string) bool {
	return htmlTag.MatchString(body)
}

// HTMLLinks returns the absolute http and https anchor targets of an HTML document
func HTMLLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			links = append(links, href)
		}
	})
	return links, nil
}

// HTMLToText converts an HTML document to plain text, one block per line
func HTMLToText(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head, meta, link").Remove()
	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := invisibleChars.ReplaceAllString(doc.Text(), "")
	text = spaceRun.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	text = blankLines.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(text), nil
}

// Snippet returns the first n runes of a body's visible text on one line
func Snippet(body string, html bool, n int) string {
	if html {
		if text, err := HTMLToText(body); err == nil {
			body = text
		}
	}
	text := strings.Join(strings.Fields(body), " ")
	runes := []rune(text)
	if n > 0 && len(runes) > n {
		return string(runes[:n])
	}
	return text
}
