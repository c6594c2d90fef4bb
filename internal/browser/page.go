package browser

import (
	"bytes"
	"net/url"
	"os"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/Laisky/errors/v2"
	"github.com/PuerkitoBio/goquery"
)

// placed before the fragment target so its line can be found after conversion
const anchorMarker = "docgripanchormarker"

const startText = `# docgrip

Type in the search box to look up symbols in every installed docset.
Prefix the query with a docset keyword to narrow it down, as in ` + "`python:split`" + `.

An empty query lists the start page of each docset.

    ctrl+k      focus the search box
    alt+left    back
    alt+right   forward
    ctrl+b      back menu
    ctrl+f      forward menu
    ctrl+s      find in page
    ctrl+o      open the page in the pager
    ctrl+t      new tab
    ctrl+w      close tab
`

// Page is a rendered document
type Page struct {
	URL   string
	Title string
	Text  string
	// AnchorLine is the line of Text holding the URL fragment target, -1 if none
	AnchorLine int
}

// Lines splits the page text for display
func (p Page) Lines() []string {
	return strings.Split(p.Text, "\n")
}

func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}

func (b *Browser) render(rawURL string) Page {
	if rawURL == b.startPage && !strings.HasPrefix(rawURL, "file:") {
		return Page{URL: rawURL, Title: "docgrip", Text: startText, AnchorLine: -1}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errorPage(rawURL, errors.Wrap(err, "parse url"))
	}
	if u.Scheme != "file" {
		return errorPage(rawURL, errors.Errorf("unsupported link scheme %q", u.Scheme))
	}

	data, err := os.ReadFile(u.Path)
	if err != nil {
		return errorPage(rawURL, errors.Wrap(err, "read page"))
	}

	page, err := b.convert(data, u.Fragment)
	if err != nil {
		return errorPage(rawURL, err)
	}
	page.URL = rawURL
	return page
}

func (b *Browser) convert(data []byte, fragment string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Page{}, errors.Wrap(err, "parse page")
	}

	page := Page{
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		AnchorLine: -1,
	}
	doc.Find("head, script, style").Remove()

	marked := false
	if fragment != "" {
		target := doc.Find("[id], [name]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			id, _ := s.Attr("id")
			name, _ := s.Attr("name")
			return id == fragment || name == fragment
		}).First()
		if target.Length() > 0 {
			target.BeforeHtml("<p>" + anchorMarker + "</p>")
			marked = true
		}
	}

	html, err := doc.Html()
	if err != nil {
		return Page{}, errors.Wrap(err, "serialize page")
	}
	text, err := b.conv.ConvertString(html)
	if err != nil {
		return Page{}, errors.Wrap(err, "convert page")
	}

	if marked {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.Contains(line, anchorMarker) {
				page.AnchorLine = i
				lines = append(lines[:i], lines[i+1:]...)
				break
			}
		}
		text = strings.Join(lines, "\n")
	}
	page.Text = text
	return page, nil
}

func errorPage(rawURL string, err error) Page {
	return Page{
		URL:        rawURL,
		Title:      "Page not found",
		Text:       "# Page not found\n\n" + rawURL + "\n\n" + err.Error() + "\n",
		AnchorLine: -1,
	}
}
