package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "single digit", input: "img1.png", expected: 1},
		{name: "multi digit", input: "img10.png", expected: 10},
		{name: "leading zeros", input: "page_007.jpg", expected: 7},
		{name: "first run wins", input: "ch2_page15.webp", expected: 2},
		{name: "no digits", input: "cover.png", expected: 0},
		{name: "empty", input: "", expected: 0},
		{name: "only digits", input: "001", expected: 1},
		{name: "overflow saturates", input: "p99999999999999999999999.png", expected: int(^uint(0) >> 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FirstNumber(tt.input))
		})
	}
}

func TestFirstNumber_NumericNotLexicographic(t *testing.T) {
	assert.Less(t, FirstNumber("img2.png"), FirstNumber("img10.png"))
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("page1.PNG"))
	assert.True(t, IsImageFile("/tmp/scans/page2.jpeg"))
	assert.False(t, IsImageFile("chapter.pdf"))
	assert.False(t, IsImageFile("README"))
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/downloads/Chapter_12-The_Eclipse.pdf", "Chapter 12 The Eclipse"},
		{"volume 1.pdf", "volume 1"},
		{"no_extension", "no extension"},
		{"  __spaced__  .pdf", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromFilename(tt.input))
		})
	}
}
