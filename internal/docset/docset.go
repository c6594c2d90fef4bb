// Package docset reads Dash/Zeal documentation sets from disk.
package docset

import (
	"database/sql"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/beevik/etree"

	"docgrip/internal/domain"
	"docgrip/internal/log"
)

// Extension is the directory suffix of a docset bundle
const Extension = ".docset"

var _ domain.Docset = (*Docset)(nil)

// Docset is one opened documentation set
type Docset struct {
	name      string
	title     string
	version   string
	path      string // the <name>.docset directory
	docsDir   string // Contents/Resources/Documents
	indexFile string // index page relative to docsDir
	keywords  []string
	icon      domain.Icon

	db     *sql.DB
	layout indexLayout
	logger *zap.Logger
}

// metadata is the optional Zeal meta.json next to Contents/
type metadata struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Version  string `json:"version"`
	Revision string `json:"revision"`
	Extra    struct {
		IndexFilePath string   `json:"indexFilePath"`
		Keywords      []string `json:"keywords"`
	} `json:"extra"`
}

// Open reads the metadata and opens the search index of the docset at path
func Open(path string) (*Docset, error) {
	path = filepath.Clean(path)
	if !strings.HasSuffix(path, Extension) {
		return nil, errors.Errorf("not a docset directory: %s", path)
	}
	if st, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "stat docset %s", path)
	} else if !st.IsDir() {
		return nil, errors.Errorf("not a docset directory: %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), Extension)
	d := &Docset{
		name:    name,
		title:   name,
		path:    path,
		docsDir: filepath.Join(path, "Contents", "Resources", "Documents"),
		logger:  log.Logger.Named("docset").With(zap.String("docset", name)),
	}

	plist, err := readPlist(filepath.Join(path, "Contents", "Info.plist"))
	if err != nil {
		return nil, err
	}
	if v := plist["CFBundleName"]; v != "" {
		d.title = v
	}
	d.indexFile = plist["dashIndexFilePath"]

	meta, err := readMetadata(filepath.Join(path, "meta.json"))
	if err != nil {
		return nil, err
	}
	if meta != nil {
		if meta.Title != "" {
			d.title = meta.Title
		}
		if meta.Extra.IndexFilePath != "" {
			d.indexFile = meta.Extra.IndexFilePath
		}
		d.version = meta.Version
		d.keywords = append(d.keywords, meta.Extra.Keywords...)
	}

	if len(d.keywords) == 0 {
		if family := plist["DocSetPlatformFamily"]; family != "" {
			d.keywords = []string{family}
		} else {
			d.keywords = []string{strings.ToLower(name)}
		}
	}
	if d.indexFile == "" {
		if _, err := os.Stat(filepath.Join(d.docsDir, "index.html")); err == nil {
			d.indexFile = "index.html"
		}
	}

	d.icon = domain.Icon{Docset: name}
	for _, candidate := range []string{"icon.png", "icon@2x.png"} {
		p := filepath.Join(path, candidate)
		if _, err := os.Stat(p); err == nil {
			d.icon.Path = p
			break
		}
	}

	if err := d.openIndex(filepath.Join(path, "Contents", "Resources", "docSet.dsidx")); err != nil {
		return nil, err
	}

	d.logger.Debug("docset opened",
		zap.String("title", d.title),
		zap.Strings("keywords", d.keywords),
		zap.String("index_file", d.indexFile))
	return d, nil
}

// Name is the bundle directory name without the .docset suffix
func (d *Docset) Name() string { return d.name }

// Title is the human readable name
func (d *Docset) Title() string { return d.title }

// Version is the meta.json version, often empty
func (d *Docset) Version() string { return d.version }

// Path is the docset bundle directory
func (d *Docset) Path() string { return d.path }

// Icon returns the docset icon
func (d *Docset) Icon() domain.Icon { return d.icon }

// Keywords returns the search filter keywords, first one preferred
func (d *Docset) Keywords() []string {
	return append([]string(nil), d.keywords...)
}

// IndexURL returns the docset start page, or "" when it has none
func (d *Docset) IndexURL() string {
	if d.indexFile == "" {
		return ""
	}
	return d.pageURL(d.indexFile)
}

// Close releases the search index
func (d *Docset) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// pageURL turns an index path ("a/b.html#frag") into a file URL
func (d *Docset) pageURL(indexPath string) string {
	page, fragment, _ := strings.Cut(indexPath, "#")
	if unescaped, err := url.PathUnescape(page); err == nil {
		page = unescaped
	}
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Join(d.docsDir, filepath.FromSlash(page))),
	}
	if fragment != "" {
		if unescaped, err := url.PathUnescape(fragment); err == nil {
			fragment = unescaped
		}
		u.Fragment = fragment
	}
	return u.String()
}

// relativePage maps a page URL back to a path relative to the documents
// directory. ok is false for URLs outside this docset.
func (d *Docset) relativePage(pageURL string) (rel string, ok bool) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	rel, err = filepath.Rel(d.docsDir, filepath.FromSlash(u.Path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func readPlist(path string) (map[string]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	dict := doc.FindElement("./plist/dict")
	if dict == nil {
		return nil, errors.Errorf("no plist dict in %s", path)
	}

	values := make(map[string]string)
	children := dict.ChildElements()
	for i := 0; i+1 < len(children); i++ {
		if children[i].Tag != "key" {
			continue
		}
		key, value := children[i].Text(), children[i+1]
		switch value.Tag {
		case "string", "integer", "real":
			values[key] = strings.TrimSpace(value.Text())
		case "true", "false":
			values[key] = value.Tag
		}
		i++
	}
	return values, nil
}

func readMetadata(path string) (*metadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &meta, nil
}
