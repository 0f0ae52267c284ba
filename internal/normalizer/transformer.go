package normalizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SourceTimeLayout is the upstream timestamp format, always in SourceLocation.
const SourceTimeLayout = "2006-01-02 15:04:05"

// SourceLocation is the fixed upstream timezone (JST, no DST).
var SourceLocation = time.FixedZone("JST", 9*60*60)

// Transformation errors.
var (
	ErrBodyNotFound  = errors.New("article body container not found")
	ErrDatetimeParse = errors.New("could not parse datetime")
)

const (
	// BodySelector locates the article body container on the article page.
	BodySelector = "#js-article-body"
	// annotationSelector matches ruby readings and their fallback parentheses.
	annotationSelector = "rt, rp"
)

// Transformer converts upstream markup into the stored text variants.
type Transformer struct{}

// NewTransformer creates a new transformer instance.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// ExtractBody parses an article page and returns its body container.
func (t *Transformer) ExtractBody(page string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	body := doc.Find(BodySelector).First()
	if body.Length() == 0 {
		return nil, ErrBodyNotFound
	}

	return body, nil
}

// AnnotatedHTML removes link targets from body and renders its outer HTML.
// Link text and ruby annotations are kept.
func (t *Transformer) AnnotatedHTML(body *goquery.Selection) (string, error) {
	body.Find("a[href]").RemoveAttr("href")

	out, err := goquery.OuterHtml(body)
	if err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}

	return out, nil
}

// PlainText returns the paragraph-aware text of body without ruby annotations.
// Each non-empty paragraph becomes one line; with no paragraphs the whole
// container's text is returned. body itself is not modified.
func (t *Transformer) PlainText(body *goquery.Selection) string {
	clone := body.Clone()
	clone.Find(annotationSelector).Remove()

	paragraphs := clone.Find("p")
	if paragraphs.Length() == 0 {
		return strippedText(clone)
	}

	var lines []string

	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if line := strippedText(p); line != "" {
			lines = append(lines, line)
		}
	})

	return strings.Join(lines, "\n")
}

// FragmentText returns the text of an HTML fragment without ruby annotations.
func (t *Transformer) FragmentText(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	doc.Find(annotationSelector).Remove()

	return strippedText(doc.Selection)
}

// ParseSourceTime converts an upstream timestamp to UTC. An empty string
// yields nil without error.
func (t *Transformer) ParseSourceTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	local, err := time.ParseInLocation(SourceTimeLayout, value, SourceLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrDatetimeParse, value)
	}

	utc := local.UTC()

	return &utc, nil
}

// strippedText concatenates every text node under sel, each trimmed of
// surrounding whitespace.
func strippedText(sel *goquery.Selection) string {
	var sb strings.Builder

	for _, n := range sel.Nodes {
		collectText(n, &sb)
	}

	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(strings.TrimSpace(n.Data))

		return
	}

	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
