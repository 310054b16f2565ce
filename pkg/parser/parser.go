package parser

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Mode selects how markup is turned into prose.
type Mode string

const (
	// ModeFull keeps all visible text of the document.
	ModeFull Mode = "full"
	// ModeArticle keeps only the main article found by readability.
	ModeArticle Mode = "article"
	// ModeNone passes the body through untouched.
	ModeNone Mode = "none"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFull, nil
	case ModeFull, ModeArticle, ModeNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown extract mode %q (want full, article or none)", s)
	}
}

// Document is the plain text extracted from a fetched body.
type Document struct {
	Title string
	Text  string
}

type Parser struct{}

// ExtractText returns the prose of body. Plain-text bodies pass through;
// anything else is treated as HTML and stripped according to mode.
func (p *Parser) ExtractText(rawURL string, body []byte, contentType string, mode Mode) (*Document, error) {
	if mode == ModeNone || isPlainText(contentType) {
		return &Document{Text: string(body)}, nil
	}

	if mode == ModeArticle {
		doc, err := p.extractArticle(rawURL, string(body))
		if err == nil && strings.TrimSpace(doc.Text) != "" {
			return doc, nil
		}
		// Pages readability cannot score fall back to the whole document.
	}
	return p.extractFull(string(body))
}

// extractArticle uses go-readability to find the main article content and
// then collects its text with goquery.
func (p *Parser) extractArticle(rawURL, html string) (*Document, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	readabilityParser := readability.NewParser()
	article, err := readabilityParser.Parse(strings.NewReader(html), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("readability failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article HTML: %w", err)
	}

	var blocks []string
	doc.Find("h1,h2,h3,h4,h5,h6,p,li,td,th,pre,blockquote").Each(func(i int, s *goquery.Selection) {
		// Nested matches (li > p) are collected through their innermost block.
		if s.Find("p,li,td,th,pre,blockquote").Length() > 0 {
			return
		}
		if text := normalizeText(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})

	return &Document{
		Title: normalizeText(article.Title),
		Text:  strings.Join(blocks, "\n"),
	}, nil
}

// blockElements end a line of text when stripping markup.
const blockElements = "address,article,aside,blockquote,dd,div,dl,dt,figcaption,footer,form,h1,h2,h3,h4,h5,h6,header,hr,li,main,nav,ol,p,pre,section,table,td,th,tr,ul"

// extractFull drops non-prose elements and returns every remaining text
// node, one line per block element.
func (p *Parser) extractFull(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script,style,noscript,template,svg").Remove()
	title := normalizeText(doc.Find("title").First().Text())
	doc.Find("head").Remove()

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(i int, s *goquery.Selection) {
		s.PrependHtml("\n")
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if text := strings.Join(strings.Fields(line), " "); text != "" {
			lines = append(lines, text)
		}
	}

	return &Document{Title: title, Text: strings.Join(lines, "\n")}, nil
}

func isPlainText(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/plain"
}

// normalizeText folds every run of whitespace, newlines included, into a single space.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
