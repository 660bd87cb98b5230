package models

// FieldType is the JSON type of a schema field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
)

// FieldLocation is where a request parameter travels in an HTTP call.
type FieldLocation string

const (
	LocationQuery  FieldLocation = "query"
	LocationPath   FieldLocation = "path"
	LocationBody   FieldLocation = "body"
	LocationHeader FieldLocation = "header"
)

// Field is a single entry of a request or response schema.
//
// Fields are produced by the editors or the schema importer and are treated as
// immutable by the core once a mapping references them. Renaming a field means
// every mapping pointing at its ID has to be rewritten as well.
type Field struct {
	// ID is unique within the owning schema
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the wire name (query key, header name, JSON property)
	Name string `json:"name" yaml:"name" validate:"required"`

	// Type is one of string, number, boolean, object, array
	Type FieldType `json:"type" yaml:"type" validate:"required,oneof=string number boolean object array"`

	// Path is the dotted JSON path for nested upstream data (e.g. data.attributes.title)
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Location is where the value goes for request parameters
	Location FieldLocation `json:"in,omitempty" yaml:"in,omitempty" validate:"omitempty,oneof=query path body header"`

	// Required marks a request field that must have a value for the call to fire
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// IsRequired reports whether a request field must be resolved before its
// endpoint can be called. Path parameters are always required.
func (f Field) IsRequired() bool {
	return f.Required || f.Location == LocationPath
}

// WirePath returns the path used to address the field inside a JSON document.
func (f Field) WirePath() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// FindField returns the field with the given ID from a schema.
func FindField(fields []Field, id string) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}
