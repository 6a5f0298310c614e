package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Document is a fetched page and its parsed tree. Strategies only read it.
type Document struct {
	URL  string
	Body []byte
	dom  *goquery.Document
}

func NewDocument(url string, body []byte) *Document {
	doc := &Document{URL: url, Body: body}
	if len(bytes.TrimSpace(body)) == 0 {
		return doc
	}
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to parse document")
		return doc
	}
	doc.dom = dom
	return doc
}

// EmptyDocument stands in for a page that could not be fetched.
func EmptyDocument(url string) *Document {
	return &Document{URL: url}
}

func (d *Document) DOM() *goquery.Document {
	if d == nil {
		return nil
	}
	return d.dom
}

func (d *Document) IsEmpty() bool {
	return d == nil || d.dom == nil
}
