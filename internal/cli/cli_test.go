package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want Args
	}{
		{name: "run", argv: []string{"job.json"}, want: Args{File: "job.json", Mode: ModeRun}},
		{name: "describe", argv: []string{"--help", "job.json"}, want: Args{File: "job.json", Mode: ModeDescribe}},
		{name: "describe after file", argv: []string{"job.json", "--help"}, want: Args{File: "job.json", Mode: ModeDescribe}},
		{name: "features", argv: []string{"--features", "job.json"}, want: Args{File: "job.json", Mode: ModeFeatures}},
		{name: "usage short", argv: []string{"-h"}, want: Args{Mode: ModeUsage}},
		{name: "usage long", argv: []string{"--usage", "job.json"}, want: Args{Mode: ModeUsage}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NewParser("scraper").Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{name: "mutually exclusive", argv: []string{"--help", "--features", "job.json"}, want: "mutually exclusive"},
		{name: "missing file", argv: []string{}, want: "exactly one FILE"},
		{name: "two files", argv: []string{"a.json", "b.json"}, want: "exactly one FILE"},
		{name: "unknown flag", argv: []string{"--verbose", "job.json"}, want: "verbose"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewParser("scraper").Parse(tt.argv)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUsage)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUsageMentionsFlags(t *testing.T) {
	t.Parallel()

	usage := NewParser("shop_scraper").Usage()
	assert.Contains(t, usage, "usage: shop_scraper")
	assert.Contains(t, usage, "--features")
	assert.Contains(t, usage, "--help")
	assert.Contains(t, usage, "-h, --usage")
}

func TestModeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "run", ModeRun.String())
	assert.Equal(t, "features", ModeFeatures.String())
	assert.Equal(t, "mode(42)", Mode(42).String())
}
