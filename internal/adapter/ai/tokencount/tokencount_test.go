package tokencount

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeModelName(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"gpt-4o-mini", "gpt-4"},
		{"GPT-4", "gpt-4"},
		{"gpt-3.5-turbo-0125", "gpt-3.5-turbo"},
		{"openai/gpt-3.5-turbo", "gpt-3.5-turbo"},
		{"some-unknown-model", "gpt-4"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeModelName(tc.in), tc.in)
	}
}
