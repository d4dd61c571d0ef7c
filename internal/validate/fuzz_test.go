package validate

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

// FuzzSanitizeName tests name sanitization with fuzz inputs.
// Run with: go test ./internal/validate -fuzz=FuzzSanitizeName -fuzztime=30s
func FuzzSanitizeName(f *testing.F) {
	seeds := []string{
		"Boston Fern",
		"hello\x00world",
		"test\x1b[31mred",
		"café résumé",
		"日本語テスト",
		"emoji 🌵🌿",
		"'; DROP TABLE vessels;--",
		string(make([]byte, 10000)), // Large input
		"",
		"   ",
		"\t\n\r",
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		out := SanitizeName(input)
		if strings.ContainsFunc(out, unicode.IsControl) {
			t.Fatalf("SanitizeName(%q) = %q keeps control characters", input, out)
		}
		if utf8.ValidString(input) && out != strings.TrimSpace(out) {
			t.Fatalf("SanitizeName(%q) = %q is not trimmed", input, out)
		}
	})
}

// FuzzSanitizeNote tests note sanitization with fuzz inputs.
func FuzzSanitizeNote(f *testing.F) {
	seeds := []string{
		"line one\r\nline two",
		"tab\tkept",
		"bell\x07",
		"",
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		out := SanitizeNote(input)
		if strings.Contains(out, "\r") {
			t.Fatalf("SanitizeNote(%q) = %q keeps carriage returns", input, out)
		}
	})
}

// FuzzIdentifier checks that accepted identifiers are trimmed and bounded.
func FuzzIdentifier(f *testing.F) {
	for _, seed := range []string{"abc", "  x-waterme://reminder/1  ", "", "a b"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		id, err := Identifier(input)
		if err != nil {
			return
		}
		s := id.String()
		if s == "" || s != strings.TrimSpace(s) || len(s) > MaxIdentifierLength {
			t.Fatalf("Identifier(%q) accepted %q", input, s)
		}
	})
}
