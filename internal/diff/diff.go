// Package diff reconstructs field-level change sets between the version a
// user started editing from and the version carrying their current edits.
// Given identical input rows it produces identical output; nothing here
// reads clocks or ids.
package diff

import (
	"inkwell/api/internal/store"
)

type FieldStatus string

const (
	FieldAdded    FieldStatus = "added"
	FieldRemoved  FieldStatus = "removed"
	FieldModified FieldStatus = "modified"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// FieldChange is one field's before/after pair. Original is nil for added
// fields, Current is nil for removed ones.
type FieldChange struct {
	Status   FieldStatus `json:"status"`
	Original any         `json:"original"`
	Current  any         `json:"current"`
}

// Entry is the review record for one edited entity.
type Entry struct {
	TargetType    store.TargetType       `json:"target_type"`
	EntityID      string                 `json:"entity_id"`
	Operation     Operation              `json:"operation"`
	IsNewCreation bool                   `json:"is_new_creation"`
	ChangedFields map[string]FieldChange `json:"changed_fields"`
}

// DocumentPair couples an edit-start record with its loaded endpoints.
// Original is nil when the version the arc started from no longer exists.
type DocumentPair struct {
	EditStart store.EditStartVersion
	Original  *store.DocumentVersion
	Current   store.DocumentVersion
}

type CategoryPair struct {
	EditStart store.EditStartVersion
	Original  *store.CategoryVersion
	Current   store.CategoryVersion
}

// Data is the full review payload for a branch or pull request.
type Data struct {
	DocumentVersions           []store.DocumentVersion `json:"document_versions"`
	DocumentCategories         []store.CategoryVersion `json:"document_categories"`
	OriginalDocumentVersions   []store.DocumentVersion `json:"original_document_versions"`
	OriginalDocumentCategories []store.CategoryVersion `json:"original_document_categories"`
	DiffData                   []Entry                 `json:"diff_data"`
}

// Generate builds the review payload for a set of tracked edits.
func Generate(documents []DocumentPair, categories []CategoryPair) Data {
	data := Data{
		DocumentVersions:           make([]store.DocumentVersion, 0, len(documents)),
		DocumentCategories:         make([]store.CategoryVersion, 0, len(categories)),
		OriginalDocumentVersions:   make([]store.DocumentVersion, 0, len(documents)),
		OriginalDocumentCategories: make([]store.CategoryVersion, 0, len(categories)),
		DiffData:                   make([]Entry, 0, len(documents)+len(categories)),
	}
	for _, pair := range documents {
		data.DocumentVersions = append(data.DocumentVersions, pair.Current)
		if pair.Original != nil {
			data.OriginalDocumentVersions = append(data.OriginalDocumentVersions, *pair.Original)
		}
		data.DiffData = append(data.DiffData, DocumentEntry(pair))
	}
	for _, pair := range categories {
		data.DocumentCategories = append(data.DocumentCategories, pair.Current)
		if pair.Original != nil {
			data.OriginalDocumentCategories = append(data.OriginalDocumentCategories, *pair.Original)
		}
		data.DiffData = append(data.DiffData, CategoryEntry(pair))
	}
	return data
}

// DocumentEntry classifies one tracked document edit.
func DocumentEntry(pair DocumentPair) Entry {
	isNew := isNewCreation(pair.EditStart,
		originalBranch(pair.Original), pair.Original != nil, pair.Current.UserBranchID)

	entry := Entry{
		TargetType:    store.TargetDocument,
		EntityID:      pair.EditStart.EntityID,
		IsNewCreation: isNew,
		ChangedFields: map[string]FieldChange{},
	}

	current := documentFields(pair.Current)
	switch {
	case pair.Current.IsDeleted:
		entry.Operation = OpDelete
		original := current
		if pair.Original != nil {
			original = documentFields(*pair.Original)
		}
		for name, value := range original {
			entry.ChangedFields[name] = FieldChange{Status: FieldRemoved, Original: value}
		}
	case isNew:
		entry.Operation = OpCreate
		for name, value := range current {
			entry.ChangedFields[name] = FieldChange{Status: FieldAdded, Current: value}
		}
	default:
		entry.Operation = OpUpdate
		original := documentFields(*pair.Original)
		for name, value := range current {
			if original[name] != value {
				entry.ChangedFields[name] = FieldChange{Status: FieldModified, Original: original[name], Current: value}
			}
		}
	}
	return entry
}

// CategoryEntry classifies one tracked category edit.
func CategoryEntry(pair CategoryPair) Entry {
	isNew := isNewCreation(pair.EditStart,
		categoryBranch(pair.Original), pair.Original != nil, pair.Current.UserBranchID)

	entry := Entry{
		TargetType:    store.TargetCategory,
		EntityID:      pair.EditStart.EntityID,
		IsNewCreation: isNew,
		ChangedFields: map[string]FieldChange{},
	}

	current := categoryFields(pair.Current)
	switch {
	case pair.Current.IsDeleted:
		entry.Operation = OpDelete
		original := current
		if pair.Original != nil {
			original = categoryFields(*pair.Original)
		}
		for name, value := range original {
			entry.ChangedFields[name] = FieldChange{Status: FieldRemoved, Original: value}
		}
	case isNew:
		entry.Operation = OpCreate
		for name, value := range current {
			entry.ChangedFields[name] = FieldChange{Status: FieldAdded, Current: value}
		}
	default:
		entry.Operation = OpUpdate
		original := categoryFields(*pair.Original)
		for name, value := range current {
			if original[name] != value {
				entry.ChangedFields[name] = FieldChange{Status: FieldModified, Original: original[name], Current: value}
			}
		}
	}
	return entry
}

// isNewCreation holds when the arc started at its own first version, when
// the starting version no longer exists, or when the "original" is itself
// an unmerged draft on the same branch (nothing upstream to diff against).
func isNewCreation(esv store.EditStartVersion, originalBranch *string, originalExists bool, currentBranch *string) bool {
	if esv.OriginalVersionID == esv.CurrentVersionID {
		return true
	}
	if !originalExists {
		return true
	}
	if originalBranch != nil && currentBranch != nil && *originalBranch == *currentBranch {
		return true
	}
	return false
}

func originalBranch(v *store.DocumentVersion) *string {
	if v == nil {
		return nil
	}
	return v.UserBranchID
}

func categoryBranch(v *store.CategoryVersion) *string {
	if v == nil {
		return nil
	}
	return v.UserBranchID
}

func documentFields(v store.DocumentVersion) map[string]any {
	return map[string]any{
		"sidebar_label": v.SidebarLabel,
		"slug":          v.Slug,
		"content":       v.Content,
		"category_id":   strOrNil(v.CategoryEntityID),
		"file_order":    v.FileOrder,
		"is_public":     v.IsPublic,
	}
}

func categoryFields(v store.CategoryVersion) map[string]any {
	return map[string]any{
		"sidebar_label": v.SidebarLabel,
		"slug":          v.Slug,
		"description":   v.Description,
		"position":      v.Position,
		"parent_id":     strOrNil(v.ParentEntityID),
	}
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
