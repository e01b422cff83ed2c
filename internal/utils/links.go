package utils

import (
	"regexp"
)

// urlLiteral matches http and https URL literals in free text
var urlLiteral = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// ExtractLinks returns the distinct URL literals of text in order of first appearance
func ExtractLinks(text string) []string {
	return dedupe(urlLiteral.FindAllString(text, -1))
}

// CollectLinks returns the URL literals of a body plus, for HTML bodies, the
// targets of its anchors. HTML bodies are matched on their visible text so
// that markup does not run into the literals.
func CollectLinks(body string, html bool) []string {
	if !html {
		return ExtractLinks(body)
	}

	text, err := HTMLToText(body)
	if err != nil {
		return ExtractLinks(body)
	}
	links := urlLiteral.FindAllString(text, -1)
	if hrefs, err := HTMLLinks(body); err == nil {
		links = append(links, hrefs...)
	}
	return dedupe(links)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
