package directive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEmptyTabsIsBootstrap(t *testing.T) {
	d, err := Decode([]byte(`{"active":"home","tabs":[]}`))
	require.NoError(t, err)
	require.Equal(t, Bootstrap{}, d)

	d, err = Decode([]byte(`{"active":null,"tabs":[]}`))
	require.NoError(t, err)
	require.Equal(t, "bootstrap", d.Kind())
}

func TestDecodeTabbed(t *testing.T) {
	raw := `{"active":"home","tabs":[
		{"id":"home","title":"Home","icon":"house","path":"/","badge":3},
		{"id":"explore","title":"Explore","icon":"compass","path":"/explore","deprecated":"soft"},
		{"id":"favorites","title":"Favorites","icon":"star","path":"/fav","replaces":"explore"}
	],"version":7}`
	d, err := Decode([]byte(raw))
	require.NoError(t, err)

	tabbed, ok := d.(Tabbed)
	require.True(t, ok)
	require.Equal(t, "home", tabbed.Active)
	require.Equal(t, []string{"home", "explore", "favorites"}, tabbed.ServedIDs())

	explore, ok := tabbed.Find("explore")
	require.True(t, ok)
	require.Equal(t, Soft, explore.Deprecated)
	require.True(t, explore.IsDeprecated())

	fav, _ := tabbed.Find("favorites")
	require.Equal(t, "explore", fav.Replaces)
	require.False(t, fav.IsDeprecated())

	_, ok = tabbed.Find("missing")
	require.False(t, ok)
}

func TestDecodeRejectsMissingActive(t *testing.T) {
	_, err := Decode([]byte(`{"tabs":[{"id":"a"},{"id":"b"}]}`))
	require.ErrorIs(t, err, ErrMissingActive)

	_, err = Decode([]byte(`{"active":null,"tabs":[{"id":"a"},{"id":"b"}]}`))
	require.ErrorIs(t, err, ErrMissingActive)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`{"tabs":`,
		`{}`,
		`null`,
		`{"active":"home"}`,
		`{"active":"home","tabs":null}`,
		`{"active":"home","tab":[{"id":"a"}]}`,
	} {
		d, err := Decode([]byte(raw))
		require.ErrorIs(t, err, ErrMalformed, raw)
		require.Nil(t, d, raw)
	}
}

func TestValidateRules(t *testing.T) {
	cases := map[string]struct {
		tabs []TabDescriptor
		want error
	}{
		"empty id": {
			tabs: []TabDescriptor{{ServedID: "a"}, {ServedID: ""}},
			want: ErrEmptyID,
		},
		"duplicate id": {
			tabs: []TabDescriptor{{ServedID: "a"}, {ServedID: "a"}},
			want: ErrDuplicateTab,
		},
		"unknown level": {
			tabs: []TabDescriptor{{ServedID: "a", Deprecated: "urgent"}, {ServedID: "b"}},
			want: ErrUnknownDeprecation,
		},
		"two replacements": {
			tabs: []TabDescriptor{
				{ServedID: "old", Deprecated: Soft},
				{ServedID: "n1", Replaces: "old"},
				{ServedID: "n2", Replaces: "old"},
			},
			want: ErrConflictingReplacement,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(Tabbed{Active: "a", Tabs: tc.tabs})
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	require.NoError(t, Validate(Bootstrap{}))
}

func TestEncodeDecodeTabbed(t *testing.T) {
	in := Tabbed{Active: "b", Tabs: []TabDescriptor{
		{ServedID: "a", Title: "A", Icon: "i", Path: "/a", Deprecated: Hard},
		{ServedID: "b", Title: "B", Path: "/b", Replaces: "a"},
	}}
	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, in, out)

	data, err = Encode(Bootstrap{})
	require.NoError(t, err)
	out, err = Decode(data)
	require.NoError(t, err)
	require.Equal(t, Bootstrap{}, out)
}
