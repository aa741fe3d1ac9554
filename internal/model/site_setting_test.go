package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettingValue(t *testing.T) {
	tests := []struct {
		name    string
		kind    SettingKind
		raw     string
		want    SettingValue
		wantErr bool
	}{
		{"plain string", SettingKindText, `"Hello"`, TextValue("Hello"), false},
		{"double encoded string", SettingKindText, `"\"Hello\""`, TextValue("Hello"), false},
		{"bare text", SettingKindMultilineText, `not json`, MultilineTextValue("not json"), false},
		{"bool", SettingKindBoolean, `true`, BoolValue(true), false},
		{"stringified bool", SettingKindBoolean, `"false"`, BoolValue(false), false},
		{"string that looks like a bool stays text", SettingKindText, `"true"`, TextValue("true"), false},
		{"number for text", SettingKindText, `12`, SettingValue{}, true},
		{"string for bool", SettingKindBoolean, `"yes"`, SettingValue{}, true},
		{"bare word for bool", SettingKindBoolean, `yes`, SettingValue{}, true},
		{"empty", SettingKindText, ``, SettingValue{}, true},
		{"unknown kind", SettingKind("color"), `"red"`, SettingValue{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSettingValue(tt.kind, []byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSettingValueKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingValueEncode(t *testing.T) {
	raw, err := TextValue("Hi").Encode()
	require.NoError(t, err)
	assert.Equal(t, `"Hi"`, string(raw))

	raw, err = BoolValue(true).Encode()
	require.NoError(t, err)
	assert.Equal(t, `true`, string(raw))

	assert.Equal(t, "false", BoolValue(false).String())
}

func TestKnownSettings_OrderedWithValidDefaults(t *testing.T) {
	known := KnownSettings()
	require.Len(t, known, 5)
	for i, meta := range known {
		if i > 0 {
			assert.Less(t, known[i-1].Key, meta.Key)
		}
		assert.Equal(t, meta.Kind, meta.Default.Kind, meta.Key)

		raw, err := meta.Default.Encode()
		require.NoError(t, err)
		decoded, err := DecodeSettingValue(meta.Kind, raw)
		require.NoError(t, err)
		assert.Equal(t, meta.Default, decoded)
	}

	known[0].Label = "mutated"
	assert.NotEqual(t, "mutated", KnownSettings()[0].Label)
}

func TestLookupSetting(t *testing.T) {
	meta, ok := LookupSetting("maintenance_mode")
	require.True(t, ok)
	assert.Equal(t, SettingKindBoolean, meta.Kind)
	assert.Equal(t, SectionAccessControl, meta.Section)

	_, ok = LookupSetting("bogus_key")
	assert.False(t, ok)
}

func TestDefaultSiteSnapshot(t *testing.T) {
	assert.Equal(t, SiteSnapshot{
		SiteName:                 "My Channel",
		Tagline:                  "Building something amazing",
		MaintenanceMode:          false,
		AllowSignups:             true,
		RequireEmailVerification: true,
	}, DefaultSiteSnapshot())
}
