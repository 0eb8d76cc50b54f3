package lib

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var sequentialWhitespacePattern = regexp.MustCompile(`\s+`)

// HTMLToText strips markup from feed descriptions and similar fragments.
func HTMLToText(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	text := sequentialWhitespacePattern.ReplaceAllString(doc.Text(), " ")
	return strings.TrimSpace(html.UnescapeString(text)), nil
}

// FirstImageSrc returns the src of the first <img> in an HTML fragment, or "".
func FirstImageSrc(fragment string) string {
	if !strings.Contains(fragment, "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}
