package fetch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Archive reads page snapshots captured by an earlier crawl from a directory
// tree. File names carry the slug, an optional sub-page tag and the capture
// stamp: <slug>_<stamp>.html is the campaign page itself,
// <slug>_updates_<stamp>.html its updates page, and so on. Community, FAQ and
// comment snapshots carry nothing the extractors read and are skipped.
type Archive struct {
	root string
}

// ArchivedPage is one classified snapshot file.
type ArchivedPage struct {
	Path string
	Dir  string
	Slug string
	Kind PageKind
}

func OpenArchive(root string) (*Archive, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open archive: %s is not a directory", root)
	}
	return &Archive{root: root}, nil
}

// Pages walks the tree and returns every usable snapshot in walk order.
func (a *Archive) Pages() ([]ArchivedPage, error) {
	var pages []ArchivedPage
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		slug, kind, ok := classify(d.Name())
		if !ok {
			return nil
		}
		pages = append(pages, ArchivedPage{
			Path: path,
			Dir:  filepath.Dir(path),
			Slug: slug,
			Kind: kind,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive: %w", err)
	}
	return pages, nil
}

// Load parses a snapshot. The capture time comes from the filename stamp and
// is zero when the stamp does not parse.
func (a *Archive) Load(page ArchivedPage) (*Document, error) {
	f, err := os.Open(page.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", page.Path, err)
	}
	return &Document{Document: doc, AccessedAt: stampTime(page.Path)}, nil
}

// classify splits a snapshot filename into slug and page kind. Slugs never
// contain underscores, so the first underscore separates slug from the rest.
func classify(name string) (string, PageKind, bool) {
	base := strings.TrimSuffix(name, ".html")
	slug, rest, found := strings.Cut(base, "_")
	if !found || slug == "" {
		return "", "", false
	}
	tag, _, _ := strings.Cut(rest, "_")
	switch tag {
	case "community", "faqs", "comments":
		return "", "", false
	case "updates":
		return slug, PageUpdates, true
	case "rewards":
		return slug, PageRewards, true
	}
	if _, err := time.Parse(stampLayout, tag); err == nil {
		return slug, PageCampaign, true
	}
	return "", "", false
}

const stampLayout = "20060102-150405"

func stampTime(path string) time.Time {
	base := strings.TrimSuffix(filepath.Base(path), ".html")
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return time.Time{}
	}
	t, err := time.Parse(stampLayout, base[idx+1:])
	if err != nil {
		return time.Time{}
	}
	return t
}
