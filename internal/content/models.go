package content

import (
	stdjson "encoding/json"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LanguageSettings lists the languages a project supports.
type LanguageSettings struct {
	Default   string   `json:"default"`
	Supported []string `json:"supported"`
}

// ProjectSettings holds per-project settings.
type ProjectSettings struct {
	Language LanguageSettings `json:"language"`
}

// Project is the root content container.
type Project struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Version         string          `json:"version"`
	RemoteOriginURL string          `json:"remoteOriginUrl,omitempty"`
	Settings        ProjectSettings `json:"settings"`
	Created         time.Time       `json:"created"`
	Updated         time.Time       `json:"updated"`
}

// Summary returns the list view of the project.
func (p Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Created:     p.Created,
		Updated:     p.Updated,
	}
}

// ProjectSummary is the list view of a project.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// SingularPlural holds the two grammatical forms of a name.
type SingularPlural struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// Translatable maps a language code to text.
type Translatable map[string]string

// FieldDefinition describes one value every entry of a collection carries.
type FieldDefinition struct {
	ID         string       `json:"id"`
	ValueType  string       `json:"valueType"`
	FieldType  string       `json:"fieldType"`
	Label      Translatable `json:"label"`
	IsRequired bool         `json:"isRequired"`
	IsDisabled bool         `json:"isDisabled"`
}

// Collection groups entries sharing one set of field definitions.
type Collection struct {
	ID               string            `json:"id"`
	Name             SingularPlural    `json:"name"`
	Slug             SingularPlural    `json:"slug"`
	Description      Translatable      `json:"description"`
	Icon             string            `json:"icon"`
	FieldDefinitions []FieldDefinition `json:"fieldDefinitions"`
	Created          time.Time         `json:"created"`
	Updated          time.Time         `json:"updated"`
}

// Value is the content of one field of an entry.
type Value struct {
	FieldDefinitionID string             `json:"fieldDefinitionId"`
	ValueType         string             `json:"valueType"`
	Content           stdjson.RawMessage `json:"content"`
}

// Entry is a structured content object inside a collection.
type Entry struct {
	ID       string    `json:"id"`
	Language string    `json:"language"`
	Values   []Value   `json:"values"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

// Asset is a file belonging to a project. The payload is read separately.
type Asset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Extension   string    `json:"extension"`
	MimeType    string    `json:"mimeType"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// FileName returns the payload file name.
func (a Asset) FileName() string {
	return a.ID + "." + a.Extension
}
