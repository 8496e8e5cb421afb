package memgraph

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCountryCode(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"France", "FR"},
		{"Germany", "GE"},
		{"US", "US"},
		{"Österreich", "ÖS"},
		{"日本", "日本"},
		{"X", "X"},
		{"", ""},
	}
	for _, tc := range cases {
		got := countryCode(tc.country)
		assert.Equal(t, tc.want, got, "country %q", tc.country)
		assert.True(t, utf8.ValidString(got), "country %q", tc.country)
	}
}
