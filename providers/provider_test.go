package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://doi.org/10.1000/xyz", "10.1000/xyz"},
		{"https://dx.doi.org/10.1000/xyz", "10.1000/xyz"},
		{"https://doi.org/10.1/abc?utm_source=x", "10.1/abc"},
		{"https://doi.org/10.1/abc#refs", "10.1/abc"},
		{"https://proxy.example/doi.org/https://doi.org/10.2/b ", "10.2/b"},
		{"https://arxiv.org/abs/1706.03762", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDOI(tt.link), tt.link)
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("get: %w", context.DeadlineExceeded)))
	assert.False(t, IsTimeout(errors.New("connection refused")))
}
