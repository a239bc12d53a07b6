//go:build windows

package source

import (
	"os"
	"path/filepath"
	"strings"
)

// isExecutableFile reports whether path is a regular file with an
// executable extension.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".com", ".bat", ".cmd", ".ps1":
		return true
	}
	return false
}
