package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// HomeRelative shortens a path inside the home directory to "~/...".
func HomeRelative(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(home, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return "~"
	}
	return "~" + string(filepath.Separator) + rel
}

func replacePathAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString && strings.HasSuffix(a.Key, "path") {
		a.Value = slog.StringValue(HomeRelative(a.Value.String()))
	}
	return a
}
