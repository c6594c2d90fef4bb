package docset

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>go</string>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>DocSetPlatformFamily</key>
	<string>%s</string>
	<key>isDashDocset</key>
	<true/>
	<key>dashIndexFilePath</key>
	<string>index.html</string>
</dict>
</plist>
`

type fixtureRow struct {
	name, typ, path string
}

type fixture struct {
	t    *testing.T
	root string
	dir  string
}

// newFixture lays out <root>/<name>.docset with an Info.plist and empty documents directory
func newFixture(t *testing.T, name, title, family string) *fixture {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, name+Extension)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Contents", "Resources", "Documents"), 0o755))
	plist := []byte(fmt.Sprintf(infoPlist, title, family))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Contents", "Info.plist"), plist, 0o644))
	return &fixture{t: t, root: root, dir: dir}
}

func (f *fixture) page(rel, html string) {
	f.t.Helper()
	p := filepath.Join(f.dir, "Contents", "Resources", "Documents", filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(html), 0o644))
}

func (f *fixture) file(rel, content string) {
	f.t.Helper()
	require.NoError(f.t, os.WriteFile(filepath.Join(f.dir, rel), []byte(content), 0o644))
}

func (f *fixture) indexPath() string {
	return filepath.Join(f.dir, "Contents", "Resources", "docSet.dsidx")
}

func (f *fixture) dashIndex(rows ...fixtureRow) {
	f.t.Helper()
	db, err := sql.Open("sqlite3", f.indexPath())
	require.NoError(f.t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE searchIndex(id INTEGER PRIMARY KEY, name TEXT, type TEXT, path TEXT)`)
	require.NoError(f.t, err)
	for _, r := range rows {
		_, err = db.Exec(`INSERT INTO searchIndex(name, type, path) VALUES (?, ?, ?)`, r.name, r.typ, r.path)
		require.NoError(f.t, err)
	}
}

type zdashRow struct {
	name, typ, path, anchor string
}

func (f *fixture) zdashIndex(rows ...zdashRow) {
	f.t.Helper()
	db, err := sql.Open("sqlite3", f.indexPath())
	require.NoError(f.t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE ztokentype(z_pk INTEGER PRIMARY KEY, ztypename TEXT)`,
		`CREATE TABLE zfilepath(z_pk INTEGER PRIMARY KEY, zpath TEXT)`,
		`CREATE TABLE ztokenmetainformation(z_pk INTEGER PRIMARY KEY, zfile INTEGER, zanchor TEXT)`,
		`CREATE TABLE ztoken(z_pk INTEGER PRIMARY KEY, ztokenname TEXT, ztokentype INTEGER, zmetainformation INTEGER)`,
	} {
		_, err = db.Exec(stmt)
		require.NoError(f.t, err)
	}

	for i, r := range rows {
		pk := i + 1
		var anchor any
		if r.anchor != "" {
			anchor = r.anchor
		}
		_, err = db.Exec(`INSERT INTO ztokentype(z_pk, ztypename) VALUES (?, ?)`, pk, r.typ)
		require.NoError(f.t, err)
		_, err = db.Exec(`INSERT INTO zfilepath(z_pk, zpath) VALUES (?, ?)`, pk, r.path)
		require.NoError(f.t, err)
		_, err = db.Exec(`INSERT INTO ztokenmetainformation(z_pk, zfile, zanchor) VALUES (?, ?, ?)`, pk, pk, anchor)
		require.NoError(f.t, err)
		_, err = db.Exec(`INSERT INTO ztoken(z_pk, ztokenname, ztokentype, zmetainformation) VALUES (?, ?, ?, ?)`, pk, r.name, pk, pk)
		require.NoError(f.t, err)
	}
}

func (f *fixture) open() *Docset {
	f.t.Helper()
	d, err := Open(f.dir)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = d.Close() })
	return d
}
