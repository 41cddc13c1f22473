package params

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "empty",
			raw:  "",
			want: map[string]string{},
		},
		{
			name: "default section",
			raw:  "[DEFAULT]\nquery = laptops\nMaxPages = 5\n",
			want: map[string]string{"query": "laptops", "MaxPages": "5"},
		},
		{
			name: "keys are case sensitive",
			raw:  "[DEFAULT]\nKey = upper\nkey = lower\n",
			want: map[string]string{"Key": "upper", "key": "lower"},
		},
		{
			name: "hash inside value is kept",
			raw:  "[DEFAULT]\nselector = div#main ; article\n",
			want: map[string]string{"selector": "div#main ; article"},
		},
		{
			name: "other sections ignored",
			raw:  "[DEFAULT]\na = 1\n[extra]\nb = 2\n",
			want: map[string]string{"a": "1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeWritesDefaultHeader(t *testing.T) {
	t.Parallel()

	got, err := Encode(map[string]string{"b": "2", "a": "1"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "[DEFAULT]\n"), "got %q", got)
	assert.Less(t, strings.Index(got, "a"), strings.Index(got, "b"), "keys must be sorted")
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got, err := Encode(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[string]string{
		"query":    "coffee beans",
		"MaxPages": "10",
		"region":   "us-east",
	}
	raw, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeSingleHeader(t *testing.T) {
	t.Parallel()

	got, err := Encode(map[string]string{"query": "laptops"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(got, "[DEFAULT]"), "got %q", got)
	assert.Contains(t, got, "query = laptops")
}
