// Package filex has small filesystem helpers for the local blob store.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirs resolves root against the working directory when it is relative
// and creates root/sub for every sub. It returns the absolute root.
func EnsureDirs(root string, subs ...string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}

	if len(subs) == 0 {
		subs = []string{"."}
	}
	for _, sub := range subs {
		dir := filepath.Join(abs, sub)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	return abs, nil
}
