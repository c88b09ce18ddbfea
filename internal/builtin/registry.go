// Package builtin holds the read-only prompt lists bundled with the
// application. The registry is built once at process start and injected into
// the session controller; it is never mutated or persisted.
package builtin

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/promptdeck/promptdeck/internal/parser"
)

//go:embed lists/*.md
var listsFS embed.FS

// List is a read-only named prompt collection. Built-in lists carry no
// persisted usage data.
type List struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Prompts []string `json:"prompts"`
}

// Registry is an immutable set of built-in lists in load order.
type Registry struct {
	bySlug map[string]List
	order  []string
}

// Load builds a Registry from the embedded lists, plus any extra markdown
// files found in dir (when non-empty). On-disk lists override embedded ones
// with the same slug. Files that parse to zero prompts are skipped with a
// warning rather than failing the load.
func Load(dir string) (*Registry, error) {
	r := &Registry{bySlug: make(map[string]List)}

	if err := r.loadFS(listsFS, "lists"); err != nil {
		return nil, fmt.Errorf("load embedded lists: %w", err)
	}

	if dir != "" {
		if err := r.loadFS(os.DirFS(dir), "."); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load lists from %s: %w", dir, err)
			}
		}
	}

	return r, nil
}

func (r *Registry) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return err
		}

		slug := strings.TrimSuffix(name, ".md")
		doc, err := parser.Parse(string(data))
		if err != nil {
			log.Warn().Str("file", name).Err(err).Msg("Skipping built-in list with no prompts")
			continue
		}

		title := doc.Title
		if title == "" {
			title = slug
		}

		if _, exists := r.bySlug[slug]; !exists {
			r.order = append(r.order, slug)
		}
		r.bySlug[slug] = List{Slug: slug, Title: title, Prompts: doc.Prompts}
	}
	return nil
}

// Get returns a list by slug.
func (r *Registry) Get(slug string) (List, bool) {
	l, ok := r.bySlug[slug]
	return l, ok
}

// All returns all lists in load order.
func (r *Registry) All() []List {
	lists := make([]List, 0, len(r.order))
	for _, slug := range r.order {
		lists = append(lists, r.bySlug[slug])
	}
	return lists
}

// Len returns how many lists are registered.
func (r *Registry) Len() int { return len(r.order) }
