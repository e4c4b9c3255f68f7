package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/localnerve/recordsdb/internal/types"
)

// StringList is an ordered list of strings stored as a JSON array column
// (labels, tags, plan values, document types).
type StringList []string

// Value encodes the list through datatypes.JSON so every driver receives the
// same textual representation.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw).Value()
}

// Scan decodes a JSON array column.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var raw datatypes.JSON
	if err := raw.Scan(value); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	*l = StringList(out)
	return nil
}

// UnmarshalJSON accepts an array, a single string or a comma separated
// string.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var f types.FlexList[string]
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = StringList(f.Slice())
	return nil
}

// GormDBDataType ensures the correct data type is used for each database driver.
// MSSQL does not support the 'json' data type.
func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
