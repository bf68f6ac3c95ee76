package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextCleanerClean(t *testing.T) {
	tc := NewTextCleaner()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ligatures", "ﬁnal ﬂow", "final flow"},
		{"hyphenation", "inter-\nnational trade", "international trade"},
		{"keeps capitalised hyphen", "North-\nAmerica", "North-\nAmerica"},
		{"drops page numbers and crumbs", "Intro text here\n12\n>>\nPage 3/10\nMore text", "Intro text here\nMore text"},
		{"collapses spaces", "a  lot\tof   space", "a lot of space"},
		{"limits blank lines", "first para\n\n\n\n\nsecond para", "first para\n\nsecond para"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tc.Clean(tt.in))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", truncateRunes("héllo", 4))
	assert.Equal(t, "héllo", truncateRunes("héllo", 10))
	assert.Equal(t, "", truncateRunes("héllo", 0))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}
