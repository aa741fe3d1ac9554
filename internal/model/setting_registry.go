package model

import "sort"

type SettingKey string

const (
	SettingSiteName                 SettingKey = "site_name"
	SettingTagline                  SettingKey = "tagline"
	SettingMaintenanceMode          SettingKey = "maintenance_mode"
	SettingAllowSignups             SettingKey = "allow_signups"
	SettingRequireEmailVerification SettingKey = "require_email_verification"
)

type SettingKind string

const (
	SettingKindText          SettingKind = "text"
	SettingKindBoolean       SettingKind = "boolean"
	SettingKindMultilineText SettingKind = "textarea"
)

func (k SettingKind) IsText() bool {
	return k == SettingKindText || k == SettingKindMultilineText
}

type SettingSection string

const (
	SectionGeneral       SettingSection = "General"
	SectionAccessControl SettingSection = "Access Control"
)

// SettingMeta is the static, code-owned description of a setting key.
type SettingMeta struct {
	Key         SettingKey     `json:"key"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Kind        SettingKind    `json:"type"`
	Section     SettingSection `json:"section"`
	Default     SettingValue   `json:"default"`
}

var settingRegistry = []SettingMeta{
	{
		Key:         SettingSiteName,
		Label:       "Site Name",
		Description: "The name displayed across the site",
		Kind:        SettingKindText,
		Section:     SectionGeneral,
		Default:     TextValue("My Channel"),
	},
	{
		Key:         SettingTagline,
		Label:       "Tagline",
		Description: "The main tagline shown on the homepage",
		Kind:        SettingKindMultilineText,
		Section:     SectionGeneral,
		Default:     MultilineTextValue("Building something amazing"),
	},
	{
		Key:         SettingMaintenanceMode,
		Label:       "Maintenance Mode",
		Description: "When enabled, only admins can access the site",
		Kind:        SettingKindBoolean,
		Section:     SectionAccessControl,
		Default:     BoolValue(false),
	},
	{
		Key:         SettingAllowSignups,
		Label:       "Allow Signups",
		Description: "Whether new user signups are allowed",
		Kind:        SettingKindBoolean,
		Section:     SectionAccessControl,
		Default:     BoolValue(true),
	},
	{
		Key:         SettingRequireEmailVerification,
		Label:       "Require Email Verification",
		Description: "Whether users must verify their email before accessing the site",
		Kind:        SettingKindBoolean,
		Section:     SectionAccessControl,
		Default:     BoolValue(true),
	},
}

// LookupSetting returns the metadata for a known key.
func LookupSetting(key string) (SettingMeta, bool) {
	for _, meta := range settingRegistry {
		if string(meta.Key) == key {
			return meta, true
		}
	}
	return SettingMeta{}, false
}

// KnownSettings returns all registered settings ordered by key.
func KnownSettings() []SettingMeta {
	out := make([]SettingMeta, len(settingRegistry))
	copy(out, settingRegistry)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Sections returns section names in display order.
func Sections() []SettingSection {
	return []SettingSection{SectionGeneral, SectionAccessControl}
}

// SiteSnapshot is the typed view of all settings used by request gates.
type SiteSnapshot struct {
	SiteName                 string `json:"site_name"`
	Tagline                  string `json:"tagline"`
	MaintenanceMode          bool   `json:"maintenance_mode"`
	AllowSignups             bool   `json:"allow_signups"`
	RequireEmailVerification bool   `json:"require_email_verification"`
}

// DefaultSiteSnapshot is built from registry defaults.
func DefaultSiteSnapshot() SiteSnapshot {
	var s SiteSnapshot
	for _, meta := range settingRegistry {
		s.Apply(meta.Key, meta.Default)
	}
	return s
}

// Apply copies one decoded value into the snapshot field for key.
func (s *SiteSnapshot) Apply(key SettingKey, v SettingValue) {
	switch key {
	case SettingSiteName:
		s.SiteName = v.Text
	case SettingTagline:
		s.Tagline = v.Text
	case SettingMaintenanceMode:
		s.MaintenanceMode = v.Bool
	case SettingAllowSignups:
		s.AllowSignups = v.Bool
	case SettingRequireEmailVerification:
		s.RequireEmailVerification = v.Bool
	}
}
