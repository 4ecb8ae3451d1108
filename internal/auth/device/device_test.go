package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "desktop browser",
			ua:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: "Chrome on Linux",
		},
		{
			name: "empty",
			ua:   "",
			want: "unknown device",
		},
		{
			name: "whitespace only",
			ua:   "   ",
			want: "unknown device",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayName(tc.ua))
		})
	}
}

func TestDisplayName_NeverEmpty(t *testing.T) {
	for _, ua := range []string{"curl/8.0.1", "totally made up agent", "Mozilla/5.0"} {
		assert.NotEmpty(t, DisplayName(ua))
	}
}
