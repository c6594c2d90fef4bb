//go:build e2e && unix

package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleName</key>
	<string>%s</string>
	<key>DocSetPlatformFamily</key>
	<string>%s</string>
	<key>isDashDocset</key>
	<true/>
</dict>
</plist>
`

// fixtureEntry is one search index row and the page it points to
type fixtureEntry struct {
	Name string
	Type string
	Path string
	Body string
}

// CreateDocset writes <dir>/<name>.docset with an Info.plist, a Dash
// search index and one HTML page per entry
func CreateDocset(t *testing.T, dir, name, family string, entries ...fixtureEntry) string {
	t.Helper()
	root := filepath.Join(dir, name+".docset")
	docs := filepath.Join(root, "Contents", "Resources", "Documents")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Contents", "Info.plist"),
		[]byte(fmt.Sprintf(infoPlist, name, family)), 0o644))

	db, err := sql.Open("sqlite3", filepath.Join(root, "Contents", "Resources", "docSet.dsidx"))
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`CREATE TABLE searchIndex(id INTEGER PRIMARY KEY, name TEXT, type TEXT, path TEXT)`)
	require.NoError(t, err)

	for _, e := range entries {
		_, err = db.Exec(`INSERT INTO searchIndex(name, type, path) VALUES (?, ?, ?)`, e.Name, e.Type, e.Path)
		require.NoError(t, err)
		page := filepath.Join(docs, filepath.FromSlash(stripFragment(e.Path)))
		require.NoError(t, os.MkdirAll(filepath.Dir(page), 0o755))
		html := fmt.Sprintf("<html><head><title>%s</title></head><body><h1 id=%q>%s</h1><p>%s</p></body></html>",
			e.Name, e.Name, e.Name, e.Body)
		require.NoError(t, os.WriteFile(page, []byte(html), 0o644))
	}
	return root
}

func stripFragment(p string) string {
	path, _, _ := strings.Cut(p, "#")
	return path
}

// goDocset is the docset most scenarios search
func goDocset(t *testing.T, dir string) string {
	t.Helper()
	return CreateDocset(t, dir, "Go", "go",
		fixtureEntry{Name: "strings.Split", Type: "Function", Path: "strings/split.html#strings.Split",
			Body: "Split slices s into all substrings separated by sep."},
		fixtureEntry{Name: "strings.Join", Type: "Function", Path: "strings/join.html#strings.Join",
			Body: "Join concatenates the elements of its first argument."},
	)
}
