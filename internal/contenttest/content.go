package contenttest

import (
	"path"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/masmgr/content-gateway/internal/codec"
)

// Value is one entry value written by AddEntry.
type Value struct {
	FieldDefinitionID string
	ValueType         string
	Content           any
}

func projectDir(projectID string) string {
	return path.Join("projects", projectID)
}

func stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// AddProject writes project.json and commits "create Project <id>".
func (r *Repo) AddProject(id, name string) plumbing.Hash {
	r.tb.Helper()

	now := stamp(r.clock)
	r.WriteJSON(path.Join(projectDir(id), "project.json"), map[string]any{
		"id":          id,
		"objectType":  "project",
		"name":        name,
		"description": "Project " + name,
		"version":     "1.0.0",
		"settings": map[string]any{
			"language": map[string]any{"default": "en", "supported": []string{"en", "de"}},
		},
		"created": now,
		"updated": now,
	})
	return r.CommitOp(codec.MethodCreate, codec.ObjectProject, id)
}

// UpdateProject rewrites the project name and commits "update Project <id>".
func (r *Repo) UpdateProject(id, name string, created time.Time) plumbing.Hash {
	r.tb.Helper()

	r.WriteJSON(path.Join(projectDir(id), "project.json"), map[string]any{
		"id":          id,
		"objectType":  "project",
		"name":        name,
		"description": "Project " + name,
		"version":     "1.0.1",
		"settings": map[string]any{
			"language": map[string]any{"default": "en", "supported": []string{"en"}},
		},
		"created": stamp(created),
		"updated": stamp(r.clock),
	})
	return r.CommitOp(codec.MethodUpdate, codec.ObjectProject, id)
}

// AddCollection writes collection.json with a single text field definition
// and commits "create Collection <id>".
func (r *Repo) AddCollection(projectID, id, singular, plural string) plumbing.Hash {
	r.tb.Helper()

	now := stamp(r.clock)
	r.WriteJSON(path.Join(projectDir(projectID), "collections", id, "collection.json"), map[string]any{
		"id":          id,
		"objectType":  "collection",
		"name":        map[string]string{"singular": singular, "plural": plural},
		"slug":        map[string]string{"singular": singular, "plural": plural},
		"description": map[string]string{"en": "All " + plural},
		"icon":        "home",
		"fieldDefinitions": []map[string]any{
			{
				"id":         ID(9000),
				"valueType":  "string",
				"fieldType":  "text",
				"label":      map[string]string{"en": "Title"},
				"isRequired": true,
				"isDisabled": false,
			},
		},
		"created": now,
		"updated": now,
	})
	return r.CommitOp(codec.MethodCreate, codec.ObjectCollection, id)
}

// AddEntry writes an entry and commits "create Entry <id>".
func (r *Repo) AddEntry(projectID, collectionID, id, language string, values ...Value) plumbing.Hash {
	r.tb.Helper()

	docValues := make([]map[string]any, 0, len(values))
	for _, v := range values {
		docValues = append(docValues, map[string]any{
			"objectType":        "value",
			"fieldDefinitionId": v.FieldDefinitionID,
			"valueType":         v.ValueType,
			"content":           v.Content,
		})
	}

	now := stamp(r.clock)
	r.WriteJSON(path.Join(projectDir(projectID), "collections", collectionID, "entries", id+".json"), map[string]any{
		"id":         id,
		"objectType": "entry",
		"language":   language,
		"values":     docValues,
		"created":    now,
		"updated":    now,
	})
	return r.CommitOp(codec.MethodCreate, codec.ObjectEntry, id)
}

// AddAsset writes asset metadata and its payload and commits
// "create Asset <id>". An empty mimeType leaves detection to the reader.
func (r *Repo) AddAsset(projectID, id, name, extension, mimeType string, payload []byte) plumbing.Hash {
	r.tb.Helper()

	now := stamp(r.clock)
	meta := map[string]any{
		"id":          id,
		"objectType":  "asset",
		"name":        name,
		"description": "Asset " + name,
		"extension":   extension,
		"size":        len(payload),
		"created":     now,
		"updated":     now,
	}
	if mimeType != "" {
		meta["mimeType"] = mimeType
	}
	r.WriteJSON(path.Join(projectDir(projectID), "assets", id+".json"), meta)
	r.Write(path.Join(projectDir(projectID), "lfs", id+"."+extension), payload)
	return r.CommitOp(codec.MethodCreate, codec.ObjectAsset, id)
}

// DeleteAsset removes an asset and commits "delete Asset <id>".
func (r *Repo) DeleteAsset(projectID, id, extension string) plumbing.Hash {
	r.tb.Helper()

	r.Remove(path.Join(projectDir(projectID), "assets", id+".json"))
	r.Remove(path.Join(projectDir(projectID), "lfs", id+"."+extension))
	return r.CommitOp(codec.MethodDelete, codec.ObjectAsset, id)
}
