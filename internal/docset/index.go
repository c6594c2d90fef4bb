package docset

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	_ "github.com/mattn/go-sqlite3"

	"docgrip/internal/domain"
)

type indexLayout int

const (
	layoutDash  indexLayout = iota // searchIndex(id, name, type, path)
	layoutZDash                    // Core Data ztoken tables
)

// candidates fetched per requested result before scoring
const candidateFactor = 4

const zdashSelect = `SELECT ztokenname, ztypename, zpath, zanchor FROM ztoken
LEFT JOIN ztokenmetainformation ON ztoken.zmetainformation = ztokenmetainformation.z_pk
LEFT JOIN zfilepath ON ztokenmetainformation.zfile = zfilepath.z_pk
LEFT JOIN ztokentype ON ztoken.ztokentype = ztokentype.z_pk`

var dashEntryRe = regexp.MustCompile(`<dash_entry_[^>]*>`)

func (d *Docset) openIndex(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrapf(err, "docset index %s", path)
	}

	db, err := sql.Open("sqlite3", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return errors.Wrapf(err, "open docset index %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return errors.Wrapf(err, "connect to docset index %s", path)
	}

	var tables int
	err = db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'searchIndex'`).Scan(&tables)
	if err != nil {
		db.Close()
		return errors.Wrapf(err, "inspect docset index %s", path)
	}
	if tables > 0 {
		d.layout = layoutDash
	} else {
		d.layout = layoutZDash
	}

	d.db = db
	return nil
}

// Search returns up to limit symbols whose name contains text, best first
func (d *Docset) Search(ctx context.Context, text string, limit int) ([]domain.SearchResult, error) {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return nil, nil
	}

	var stmt string
	switch d.layout {
	case layoutDash:
		stmt = `SELECT name, type, path, '' FROM searchIndex WHERE name LIKE ? ESCAPE '\' ORDER BY length(name), lower(name) LIMIT ?`
	default:
		stmt = zdashSelect + ` WHERE ztokenname LIKE ? ESCAPE '\' ORDER BY length(ztokenname), lower(ztokenname) LIMIT ?`
	}

	rows, err := d.db.QueryContext(ctx, stmt, "%"+escapeLike(text)+"%", limit*candidateFactor)
	if err != nil {
		return nil, errors.Wrapf(err, "search docset %s", d.name)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var name, typ, path, anchor sql.NullString
		if err := rows.Scan(&name, &typ, &path, &anchor); err != nil {
			return nil, errors.Wrapf(err, "scan result in docset %s", d.name)
		}
		s := score(name.String, text)
		if s <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{
			Title:  name.String,
			URL:    d.pageURL(joinAnchor(cleanPath(path.String), anchor.String)),
			Docset: d.name,
			Type:   typ.String,
			Icon:   d.icon,
			Score:  s,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate results in docset %s", d.name)
	}

	SortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// RelatedLinks returns the symbols anchored in the page at pageURL. Lookup
// failures degrade to an empty list.
func (d *Docset) RelatedLinks(pageURL string) []domain.TocEntry {
	page, ok := d.relativePage(pageURL)
	if !ok {
		return nil
	}

	links, err := d.indexLinks(page)
	if err != nil {
		d.logger.Debug("related links from index", zap.String("page", page), zap.Error(err))
	}
	if len(links) == 0 {
		links, err = d.anchorLinks(page)
		if err != nil {
			d.logger.Debug("related links from anchors", zap.String("page", page), zap.Error(err))
			return nil
		}
	}

	// a lone entry only points back at the page itself
	if len(links) == 1 {
		return nil
	}
	return links
}

func (d *Docset) indexLinks(page string) ([]domain.TocEntry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch d.layout {
	case layoutDash:
		rows, err = d.db.Query(`SELECT name, type, path, '' FROM searchIndex WHERE path LIKE ? ESCAPE '\' ORDER BY id`,
			"%"+escapeLike(page)+"#%")
	default:
		rows, err = d.db.Query(zdashSelect+` WHERE zpath = ? AND zanchor IS NOT NULL ORDER BY ztoken.z_pk`, page)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query related links in docset %s", d.name)
	}
	defer rows.Close()

	var links []domain.TocEntry
	for rows.Next() {
		var name, typ, path, anchor sql.NullString
		if err := rows.Scan(&name, &typ, &path, &anchor); err != nil {
			return nil, errors.Wrapf(err, "scan related link in docset %s", d.name)
		}
		full := joinAnchor(cleanPath(path.String), anchor.String)
		target, _, _ := strings.Cut(full, "#")
		if target != page {
			continue
		}
		links = append(links, domain.TocEntry{
			Title: name.String,
			URL:   d.pageURL(full),
			Type:  typ.String,
		})
	}
	return links, rows.Err()
}

// SortResults orders results by score, then by title
func SortResults(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return strings.ToLower(results[i].Title) < strings.ToLower(results[j].Title)
	})
}

func cleanPath(p string) string {
	return dashEntryRe.ReplaceAllString(p, "")
}

func joinAnchor(path, anchor string) string {
	if anchor == "" {
		return path
	}
	return path + "#" + anchor
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
