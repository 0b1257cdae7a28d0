package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
}

func TestETag(t *testing.T) {
	a := ETag("doc", "year=2025")
	assert.Equal(t, a, ETag("doc", "year=2025"))
	assert.NotEqual(t, a, ETag("doc", "year=2024"))
	assert.NotEqual(t, ETag("ab", "c"), ETag("a", "bc"))
	assert.Len(t, a, 34)
	assert.Equal(t, byte('"'), a[0])
}

func TestMatch(t *testing.T) {
	tag := ETag("doc")
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{tag, true},
		{"W/" + tag, true},
		{`"other", ` + tag, true},
		{`"other"`, false},
		{"*", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Match(tc.header, tag), "header %q", tc.header)
	}
}
