package docset

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/PuerkitoBio/goquery"

	"docgrip/internal/domain"
)

// anchorLinks reads the Dash TOC anchors embedded in a page:
//
//	<a name="//apple_ref/cpp/Method/append" class="dashAnchor"></a>
//	<a name="//dash_ref/Method/append/0" class="dashAnchor"></a>
func (d *Docset) anchorLinks(page string) ([]domain.TocEntry, error) {
	f, err := os.Open(filepath.Join(d.docsDir, filepath.FromSlash(page)))
	if err != nil {
		return nil, errors.Wrapf(err, "open page %s", page)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse page %s", page)
	}

	var links []domain.TocEntry
	doc.Find("a.dashAnchor").Each(func(_ int, sel *goquery.Selection) {
		anchor, ok := sel.Attr("name")
		if !ok {
			return
		}
		title, typ, ok := parseAnchor(anchor)
		if !ok {
			return
		}
		links = append(links, domain.TocEntry{
			Title: title,
			URL:   d.pageURL(page + "#" + anchor),
			Type:  typ,
		})
	})
	return links, nil
}

func parseAnchor(anchor string) (title, typ string, ok bool) {
	var parts []string
	switch {
	case strings.HasPrefix(anchor, "//apple_ref/"):
		// //apple_ref/<lang>/<type>/<name>
		parts = strings.Split(strings.TrimPrefix(anchor, "//apple_ref/"), "/")
		if len(parts) < 3 {
			return "", "", false
		}
		typ, title = parts[1], strings.Join(parts[2:], "/")
	case strings.HasPrefix(anchor, "//dash_ref/"):
		// //dash_ref/<type>/<name>/<n>
		parts = strings.Split(strings.TrimPrefix(anchor, "//dash_ref/"), "/")
		if len(parts) < 2 {
			return "", "", false
		}
		typ, title = parts[0], parts[1]
	default:
		return "", "", false
	}

	if unescaped, err := url.PathUnescape(title); err == nil {
		title = unescaped
	}
	return title, typ, title != ""
}
