// Package content serializes draft versions into the files committed to
// the remote repository: Markdown with front matter for documents, a
// _category_.json plus .gitkeep pair for categories.
package content

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"inkwell/api/internal/store"
)

// MaxAncestorDepth bounds the category parent walk. Parent chains deeper
// than this are rejected rather than followed.
const MaxAncestorDepth = 7

// File is one path/content pair destined for a Git tree entry.
type File struct {
	Path    string
	Content string
}

// CategoryResolver loads the work-context version of a category entity.
// It returns nil when the category is not visible.
type CategoryResolver func(entityID string) (*store.CategoryVersion, error)

// ErrCycle is wrapped into errors returned when a parent chain loops.
var ErrCycle = fmt.Errorf("category parent cycle")

// AncestorSlugs walks the parent chain from the given category entity up to
// the root and returns the slugs ordered root-first. The walk is iterative
// with a depth guard and cycle detection; a nil start yields an empty path.
func AncestorSlugs(startEntityID *string, resolve CategoryResolver) ([]string, error) {
	if startEntityID == nil {
		return nil, nil
	}

	var slugs []string
	seen := map[string]bool{}
	entityID := *startEntityID
	for depth := 0; ; depth++ {
		if depth >= MaxAncestorDepth {
			return nil, fmt.Errorf("category chain exceeds depth %d at %s", MaxAncestorDepth, entityID)
		}
		if seen[entityID] {
			return nil, fmt.Errorf("%w at %s", ErrCycle, entityID)
		}
		seen[entityID] = true

		category, err := resolve(entityID)
		if err != nil {
			return nil, fmt.Errorf("resolve category %s: %w", entityID, err)
		}
		if category == nil {
			break
		}
		slugs = append([]string{category.Slug}, slugs...)
		if category.ParentEntityID == nil {
			break
		}
		entityID = *category.ParentEntityID
	}
	return slugs, nil
}

// DocumentFile renders a document version at its repository path.
// categorySlugs is the root-first slug path of its ancestor categories.
func DocumentFile(v store.DocumentVersion, categorySlugs []string) File {
	return File{
		Path:    DocumentPath(v.Slug, categorySlugs),
		Content: DocumentMarkdown(v, categorySlugs),
	}
}

func DocumentPath(slug string, categorySlugs []string) string {
	parts := append([]string{"docs"}, categorySlugs...)
	return path.Join(append(parts, slug+".md")...)
}

// DocumentMarkdown produces the front-matter header followed by the raw
// body. `draft` is the inverse of the published flag; `last_edited_by` is
// omitted when unknown.
func DocumentMarkdown(v store.DocumentVersion, categorySlugs []string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "slug: %s\n", v.Slug)
	if len(categorySlugs) > 0 {
		fmt.Fprintf(&b, "category: %s\n", categorySlugs[len(categorySlugs)-1])
	}
	fmt.Fprintf(&b, "sidebar_label: %s\n", v.SidebarLabel)
	fmt.Fprintf(&b, "file_order: %d\n", v.FileOrder)
	fmt.Fprintf(&b, "draft: %t\n", !v.IsPublic)
	if v.LastEditedBy != "" {
		fmt.Fprintf(&b, "last_edited_by: %s\n", v.LastEditedBy)
	}
	b.WriteString("---\n\n")
	b.WriteString(v.Content)
	if !strings.HasSuffix(v.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

type categoryDescriptor struct {
	Label    string       `json:"label"`
	Position int          `json:"position"`
	Link     categoryLink `json:"link"`
}

type categoryLink struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// CategoryFiles renders a category version as its directory descriptor
// pair. ancestorSlugs is the root-first slug path including the category's
// own slug as the last element.
func CategoryFiles(v store.CategoryVersion, ancestorSlugs []string) ([]File, error) {
	descriptor, err := json.MarshalIndent(categoryDescriptor{
		Label:    v.SidebarLabel,
		Position: v.Position,
		Link: categoryLink{
			Type:        "generated-index",
			Description: v.Description,
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal category descriptor: %w", err)
	}

	dir := path.Join(append([]string{"docs"}, ancestorSlugs...)...)
	return []File{
		{Path: path.Join(dir, "_category_.json"), Content: string(descriptor) + "\n"},
		{Path: path.Join(dir, ".gitkeep"), Content: ""},
	}, nil
}
