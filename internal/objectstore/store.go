// Package objectstore holds encrypted blobs by path. Implementations never
// see plaintext.
//
// All implementations report a missing object as common.ErrorNotFound and
// treat deleting a missing object as success.
package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

type Store interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

const maxPathLength = 1024

// ValidatePath rejects object paths that could escape a storage root or that
// S3 and the local filesystem would disagree on.
func ValidatePath(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("%w: empty object path", common.ErrInvalidName)
	case len(p) > maxPathLength:
		return fmt.Errorf("%w: object path too long", common.ErrInvalidName)
	case strings.HasPrefix(p, "/"), strings.HasSuffix(p, "/"), strings.Contains(p, "//"):
		return fmt.Errorf("%w: malformed object path %q", common.ErrInvalidName, p)
	case strings.Contains(p, ".."):
		return fmt.Errorf("%w: path traversal in %q", common.ErrInvalidName, p)
	}
	for i, r := range p {
		if !isPathChar(r) {
			return fmt.Errorf("%w: invalid character %q at %d", common.ErrInvalidName, r, i)
		}
	}
	return nil
}

func isPathChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '-' || r == '_' || r == '.' || r == '/'
}
