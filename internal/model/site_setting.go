package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var ErrSettingValueKind = errors.New("setting value does not match its kind")

// SiteSetting is one pre-seeded row per well-known key. Rows are never
// created or deleted at runtime.
type SiteSetting struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Key         SettingKey     `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Value       datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	Description *string        `gorm:"type:text" json:"description"`
	UpdatedAt   time.Time      `json:"updated_at"`
	UpdatedBy   *uuid.UUID     `gorm:"type:uuid" json:"updated_by"`
}

func (SiteSetting) TableName() string { return "site_settings" }

// SettingValue is the decoded form of a setting's JSON payload.
// Exactly one of Text or Bool is meaningful, chosen by Kind.
type SettingValue struct {
	Kind SettingKind
	Text string
	Bool bool
}

func TextValue(s string) SettingValue          { return SettingValue{Kind: SettingKindText, Text: s} }
func MultilineTextValue(s string) SettingValue { return SettingValue{Kind: SettingKindMultilineText, Text: s} }
func BoolValue(b bool) SettingValue            { return SettingValue{Kind: SettingKindBoolean, Bool: b} }

// Interface returns the plain Go value (string or bool).
func (v SettingValue) Interface() any {
	if v.Kind == SettingKindBoolean {
		return v.Bool
	}
	return v.Text
}

// Encode returns the single-encoded JSON stored in the value column.
func (v SettingValue) Encode() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v SettingValue) MarshalJSON() ([]byte, error) {
	return v.Encode()
}

func (v SettingValue) String() string {
	if v.Kind == SettingKindBoolean {
		return fmt.Sprintf("%t", v.Bool)
	}
	return v.Text
}

// DecodeSettingValue decodes raw column or request JSON into a value of the
// given kind. JSON-encoded strings holding a second JSON layer are unwrapped
// once. Text kinds fall back to the raw string when the input is not JSON.
func DecodeSettingValue(kind SettingKind, raw []byte) (SettingValue, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return SettingValue{}, fmt.Errorf("%w: empty value", ErrSettingValueKind)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if kind.IsText() {
			return SettingValue{Kind: kind, Text: string(raw)}, nil
		}
		return SettingValue{}, fmt.Errorf("%w: %s is not valid JSON", ErrSettingValueKind, kind)
	}

	// Values written by older clients may be JSON strings wrapping JSON.
	if s, ok := decoded.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			switch inner.(type) {
			case bool:
				if kind == SettingKindBoolean {
					decoded = inner
				}
			case string:
				decoded = inner
			}
		}
	}

	switch kind {
	case SettingKindBoolean:
		b, ok := decoded.(bool)
		if !ok {
			return SettingValue{}, fmt.Errorf("%w: expected boolean", ErrSettingValueKind)
		}
		return BoolValue(b), nil
	case SettingKindText, SettingKindMultilineText:
		s, ok := decoded.(string)
		if !ok {
			return SettingValue{}, fmt.Errorf("%w: expected string", ErrSettingValueKind)
		}
		return SettingValue{Kind: kind, Text: s}, nil
	default:
		return SettingValue{}, fmt.Errorf("%w: unknown kind %q", ErrSettingValueKind, kind)
	}
}
