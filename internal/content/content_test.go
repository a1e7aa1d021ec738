package content

import (
	"strings"
	"testing"

	"inkwell/api/internal/store"
)

func strPtr(s string) *string { return &s }

func chainResolver(categories map[string]store.CategoryVersion) CategoryResolver {
	return func(entityID string) (*store.CategoryVersion, error) {
		v, ok := categories[entityID]
		if !ok {
			return nil, nil
		}
		return &v, nil
	}
}

func TestAncestorSlugsRootFirst(t *testing.T) {
	resolve := chainResolver(map[string]store.CategoryVersion{
		"root":  {EntityID: "root", Slug: "guides"},
		"mid":   {EntityID: "mid", Slug: "http", ParentEntityID: strPtr("root")},
		"child": {EntityID: "child", Slug: "routing", ParentEntityID: strPtr("mid")},
	})

	slugs, err := AncestorSlugs(strPtr("child"), resolve)
	if err != nil {
		t.Fatalf("ancestor slugs: %v", err)
	}
	if got := strings.Join(slugs, "/"); got != "guides/http/routing" {
		t.Fatalf("expected root-first chain, got %q", got)
	}
}

func TestAncestorSlugsNilStart(t *testing.T) {
	slugs, err := AncestorSlugs(nil, chainResolver(nil))
	if err != nil || slugs != nil {
		t.Fatalf("nil start must yield an empty path, got %v %v", slugs, err)
	}
}

func TestAncestorSlugsStopsAtInvisibleParent(t *testing.T) {
	resolve := chainResolver(map[string]store.CategoryVersion{
		"child": {EntityID: "child", Slug: "routing", ParentEntityID: strPtr("gone")},
	})

	slugs, err := AncestorSlugs(strPtr("child"), resolve)
	if err != nil {
		t.Fatalf("ancestor slugs: %v", err)
	}
	if len(slugs) != 1 || slugs[0] != "routing" {
		t.Fatalf("walk must stop at an unresolvable parent, got %v", slugs)
	}
}

func TestAncestorSlugsDetectsCycle(t *testing.T) {
	resolve := chainResolver(map[string]store.CategoryVersion{
		"a": {EntityID: "a", Slug: "a", ParentEntityID: strPtr("b")},
		"b": {EntityID: "b", Slug: "b", ParentEntityID: strPtr("a")},
	})

	if _, err := AncestorSlugs(strPtr("a"), resolve); err == nil {
		t.Fatal("a looping parent chain must error")
	}
}

func TestAncestorSlugsBoundsDepth(t *testing.T) {
	categories := map[string]store.CategoryVersion{"c0": {EntityID: "c0", Slug: "c0"}}
	for i := 1; i <= MaxAncestorDepth; i++ {
		id := "c" + strings.Repeat("x", i)
		parent := "c0"
		if i > 1 {
			parent = "c" + strings.Repeat("x", i-1)
		}
		categories[id] = store.CategoryVersion{EntityID: id, Slug: id, ParentEntityID: strPtr(parent)}
	}
	deepest := "c" + strings.Repeat("x", MaxAncestorDepth)

	if _, err := AncestorSlugs(strPtr(deepest), chainResolver(categories)); err == nil {
		t.Fatal("a chain deeper than the limit must error")
	}
}

func TestDocumentMarkdownFrontMatter(t *testing.T) {
	v := store.DocumentVersion{
		Slug:         "routing",
		SidebarLabel: "Routing",
		FileOrder:    2,
		IsPublic:     true,
		Content:      "# Routing\n\nPaths match longest-prefix.",
		LastEditedBy: "Alice",
	}

	got := DocumentMarkdown(v, []string{"guides", "http"})
	want := strings.Join([]string{
		"---",
		"slug: routing",
		"category: http",
		"sidebar_label: Routing",
		"file_order: 2",
		"draft: false",
		"last_edited_by: Alice",
		"---",
		"",
		"# Routing",
		"",
		"Paths match longest-prefix.",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("markdown mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestDocumentMarkdownUnpublishedIsDraft(t *testing.T) {
	v := store.DocumentVersion{Slug: "wip", SidebarLabel: "WIP", Content: "body\n"}

	got := DocumentMarkdown(v, nil)
	if !strings.Contains(got, "draft: true\n") {
		t.Fatalf("unpublished documents must render as drafts:\n%s", got)
	}
	if strings.Contains(got, "category:") || strings.Contains(got, "last_edited_by:") {
		t.Fatalf("empty optional fields must be omitted:\n%s", got)
	}
	if !strings.HasSuffix(got, "body\n") || strings.HasSuffix(got, "body\n\n") {
		t.Fatalf("a trailing newline must not double up:\n%q", got)
	}
}

func TestDocumentPathNesting(t *testing.T) {
	if got := DocumentPath("routing", []string{"guides", "http"}); got != "docs/guides/http/routing.md" {
		t.Fatalf("unexpected nested path %q", got)
	}
	if got := DocumentPath("intro", nil); got != "docs/intro.md" {
		t.Fatalf("unexpected root path %q", got)
	}
}

func TestCategoryFilesDescriptorPair(t *testing.T) {
	v := store.CategoryVersion{
		SidebarLabel: "HTTP",
		Position:     3,
		Description:  "Transport guides",
	}

	files, err := CategoryFiles(v, []string{"guides", "http"})
	if err != nil {
		t.Fatalf("category files: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected descriptor and keep file, got %d", len(files))
	}
	if files[0].Path != "docs/guides/http/_category_.json" {
		t.Fatalf("unexpected descriptor path %q", files[0].Path)
	}
	for _, want := range []string{`"label": "HTTP"`, `"position": 3`, `"type": "generated-index"`, `"description": "Transport guides"`} {
		if !strings.Contains(files[0].Content, want) {
			t.Fatalf("descriptor missing %s:\n%s", want, files[0].Content)
		}
	}
	if !strings.HasSuffix(files[0].Content, "\n") {
		t.Fatal("descriptor must end with a newline")
	}
	if files[1].Path != "docs/guides/http/.gitkeep" || files[1].Content != "" {
		t.Fatalf("unexpected keep file %+v", files[1])
	}
}
