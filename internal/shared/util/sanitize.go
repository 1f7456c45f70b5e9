package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 200

// ErrInvalidFileName is returned for names that cannot be stored safely.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName flattens path separators, drops control characters and
// rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidFileName
	}
	if runes := []rune(s); len(runes) > maxFileNameLen {
		s = string(runes[:maxFileNameLen])
	}
	return s, nil
}
