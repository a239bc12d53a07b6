//go:build unix

package source

import (
	"os"
)

// isExecutableFile reports whether path is a regular file with an
// executable bit set.
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
