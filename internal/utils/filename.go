package utils

import (
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// First run of decimal digits in a name
	firstDigits = regexp.MustCompile(`\d+`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// FirstNumber returns the value of the first run of decimal digits in name,
// or 0 when name contains no digits. Runs too long for an int saturate.
//
//	FirstNumber("img10.png")      // 10
//	FirstNumber("ch2_page007.jpg") // 2
//	FirstNumber("cover.png")      // 0
func FirstNumber(name string) int {
	digits := firstDigits.FindString(name)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		// only ErrRange is possible for a pure digit string
		return int(^uint(0) >> 1)
	}
	return n
}

// KnownImageExtensions contains file extensions accepted as page images.
var KnownImageExtensions = []string{
	".jpg",
	".jpeg",
	".png",
	".webp",
	".gif",
	".avif",
	".bmp",
}

// IsImageFile reports whether name has one of KnownImageExtensions, ignoring case.
func IsImageFile(name string) bool {
	return slices.Contains(KnownImageExtensions, strings.ToLower(filepath.Ext(name)))
}

// TitleFromFilename derives a display title from a file name: the directory
// and extension are dropped, and underscores and dashes become spaces.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.TrimSpace(multipleSpaces.ReplaceAllString(base, " "))
}
