package models

import (
	"sync"

	"gorm.io/gorm/schema"
)

// FieldSchema describes one editable catalog column for form rendering.
type FieldSchema struct {
	Type      string         `json:"type"`
	DataType  string         `json:"data_type"`
	Nullable  bool           `json:"nullable"`
	MaxLength int            `json:"max_length"`
	Metadata  map[string]any `json:"metadata"`
}

// comboboxFields maps enum-backed columns to their allowed values.
var comboboxFields = map[string][]string{
	"is_eol":                  IsEolValues,
	"patching_responsibility": PatchingResponsibilityValues,
	"device_type":             DeviceTypeValues,
}

// schemaExcludedColumns are never editable through the portal.
var schemaExcludedColumns = map[string]bool{
	"device_uuid": true,
	"created_at":  true,
	"updated_at":  true,
}

// GetTableSchema introspects the gold device model and returns a column
// name to FieldSchema map the frontend uses to build edit forms.
func (r *Repository) GetTableSchema() (map[string]FieldSchema, error) {
	s, err := schema.Parse(&GoldDevice{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]FieldSchema, len(s.Fields))
	for _, field := range s.Fields {
		if schemaExcludedColumns[field.DBName] {
			continue
		}
		out[field.DBName] = fieldSchemaFor(field)
	}
	return out, nil
}

func fieldSchemaFor(field *schema.Field) FieldSchema {
	fs := FieldSchema{
		DataType: string(field.DataType),
		Nullable: !field.NotNull,
		Metadata: map[string]any{},
	}
	if field.DataType == schema.String && field.Size > 0 {
		fs.MaxLength = field.Size
	}
	if options, ok := comboboxFields[field.DBName]; ok {
		fs.Type = "combobox"
		fs.Metadata["options"] = options
		return fs
	}
	switch field.DataType {
	case schema.Time:
		fs.Type = "datetime-local"
	case schema.Int, schema.Uint:
		fs.Type = "number"
		fs.Metadata["step"] = 1
	case schema.Float:
		fs.Type = "number"
		fs.Metadata["step"] = 0.01
	case schema.Bool:
		fs.Type = "checkbox"
	case schema.String:
		if field.Size > 200 {
			fs.Type = "textarea"
		} else {
			fs.Type = "text"
		}
	default:
		// text columns carry JSON blobs or long free-form content
		fs.Type = "textarea"
	}
	return fs
}
