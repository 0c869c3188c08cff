package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScanJSONB decodes a JSONB column into dest. A NULL column leaves dest untouched.
func ScanJSONB(value any, dest any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}
	return json.Unmarshal(bytes, dest)
}

// JSONBValue encodes v for a JSONB column
func JSONBValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// StringList is a JSONB array of strings
type StringList []string

func (l *StringList) Scan(value any) error {
	result := StringList{}
	if err := ScanJSONB(value, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return JSONBValue([]string{})
	}
	return JSONBValue([]string(l))
}
