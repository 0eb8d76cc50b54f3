package lib

import (
	"encoding/xml"
	"fmt"
	"os"
)

// OPML represents the top-level structure of an OPML file
// See: https://opml.org
type OPML struct {
	Head OPMLHead `xml:"head"`
	Body OPMLBody `xml:"body"`
}

// OPMLHead represents the head section of an OPML file
type OPMLHead struct {
	Title string `xml:"title"`
}

// OPMLBody represents the body section of an OPML file
type OPMLBody struct {
	Outlines []OPMLOutline `xml:"outline"`
}

// OPMLOutline represents an outline element in an OPML file
type OPMLOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	Type     string        `xml:"type,attr"`
	XMLUrl   string        `xml:"xmlUrl,attr"`
	Outlines []OPMLOutline `xml:"outline"`
}

// OPMLFeed is a feed outline flattened together with its enclosing category.
type OPMLFeed struct {
	Title    string
	URL      string
	Category string
}

// ParseOPML parses OPML data
func ParseOPML(opmlData []byte) (*OPML, error) {
	var out OPML
	err := xml.Unmarshal(opmlData, &out)
	if err != nil {
		return nil, fmt.Errorf("parse OPML: %w", err)
	}

	return &out, nil
}

func ParseOPMLFile(path string) (*OPML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read OPML file: %w", err)
	}

	return ParseOPML(data)
}

// Feeds walks the outline tree and returns every rss outline with an url.
// The text of the closest non-feed ancestor becomes the category.
func (o *OPML) Feeds() []OPMLFeed {
	var out []OPMLFeed
	for _, outline := range o.Body.Outlines {
		out = collectFeeds(out, outline, "")
	}
	return out
}

func collectFeeds(out []OPMLFeed, outline OPMLOutline, category string) []OPMLFeed {
	if outline.XMLUrl != "" && (outline.Type == "" || outline.Type == "rss") {
		title := outline.Title
		if title == "" {
			title = outline.Text
		}
		return append(out, OPMLFeed{Title: title, URL: outline.XMLUrl, Category: category})
	}

	next := category
	if outline.Text != "" {
		next = outline.Text
	} else if outline.Title != "" {
		next = outline.Title
	}

	for _, child := range outline.Outlines {
		out = collectFeeds(out, child, next)
	}
	return out
}
