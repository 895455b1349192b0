// Package catalog lists the layers a user can toggle. A catalog comes from a
// JSON index ([{name, url, group}]) or from scanning a data directory where
// each sub-folder becomes a group.
package catalog

import (
	_ "embed"
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/institutoite/bolivia/pkg/errors"
)

// RootGroup names files found directly under a scanned root.
const RootGroup = "raiz"

// DefaultGroup is used for index entries without a group.
const DefaultGroup = "otros"

//go:embed index.json
var defaultIndex []byte

// Entry is one toggleable layer.
type Entry struct {
	Name  string `json:"name"`
	URL   string `json:"url"`
	Group string `json:"group,omitempty"`
	Path  string `json:"path,omitempty"`
}

// Title is the humanized name shown in listings.
func (e Entry) Title() string { return Humanize(e.Name) }

// Group is a named, ordered list of entries.
type Group struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Catalog is an ordered set of entries.
type Catalog struct {
	Entries []Entry `json:"entries"`
}

// Default returns the built-in catalog of Bolivian boundary layers.
func Default() *Catalog {
	c, err := Parse(defaultIndex)
	if err != nil {
		panic("catalog: embedded index: " + err.Error())
	}
	return c
}

// Parse decodes a JSON index.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid catalog index")
	}
	for i := range entries {
		if entries[i].Group == "" {
			entries[i].Group = DefaultGroup
		}
	}
	return &Catalog{Entries: entries}, nil
}

// LoadFile reads a JSON index from disk.
func LoadFile(name string) (*Catalog, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read catalog %s", name)
	}
	return Parse(data)
}

// Scan walks fsys for .geojson and .json files. Group is the directory of the
// file relative to the root (RootGroup at the root); URL is the file path
// joined to prefix. Entries are sorted by group, then name.
func Scan(fsys fs.FS, prefix string) (*Catalog, error) {
	var entries []Entry
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(path.Ext(p)) {
		case ".geojson", ".json":
		default:
			return nil
		}
		group := path.Dir(p)
		if group == "." {
			group = RootGroup
		}
		entries = append(entries, Entry{
			Name:  path.Base(p),
			URL:   path.Join(prefix, p),
			Group: group,
			Path:  p,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "scan catalog")
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return entries[i].Name < entries[j].Name
	})
	return &Catalog{Entries: entries}, nil
}

// ScanDir scans a directory on disk.
func ScanDir(root, prefix string) (*Catalog, error) {
	st, err := os.Stat(root)
	if err != nil || !st.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", root)
	}
	return Scan(os.DirFS(root), prefix)
}

// Groups returns the entries grouped, groups sorted by name and entries kept
// in catalog order.
func (c *Catalog) Groups() []Group {
	idx := map[string]int{}
	var groups []Group
	for _, e := range c.Entries {
		g := e.Group
		if g == "" {
			g = DefaultGroup
		}
		i, ok := idx[g]
		if !ok {
			i = len(groups)
			idx[g] = i
			groups = append(groups, Group{Name: g})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// Find looks an entry up by URL, then by file name.
func (c *Catalog) Find(key string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.URL == key {
			return e, true
		}
	}
	for _, e := range c.Entries {
		if e.Name == key {
			return e, true
		}
	}
	return Entry{}, false
}
