package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
)

type Folder struct {
	ID           string
	OwnerID      string
	Name         string
	ParentID     *string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessLevel of a folder grant. Levels are ordered: admin implies write,
// write implies read.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// ParseAccessLevel validates a level coming from user input.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch l := AccessLevel(s); l {
	case AccessRead, AccessWrite, AccessAdmin:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidAccessLevel, s)
	}
}

func (l AccessLevel) rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessAdmin:
		return 3
	default:
		return 0
	}
}

func (l AccessLevel) CanRead() bool  { return l.rank() >= 1 }
func (l AccessLevel) CanWrite() bool { return l.rank() >= 2 }
func (l AccessLevel) CanAdmin() bool { return l.rank() >= 3 }

// FolderAccess is a grant row. There is at most one per (FolderID, UserID).
type FolderAccess struct {
	FolderID    string
	UserID      string
	AccessLevel AccessLevel
	GrantedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LinkKind tells what kind of external collaborator references a folder.
type LinkKind string

const (
	LinkWorkspace LinkKind = "workspace"
	LinkChannel   LinkKind = "channel"
)

func ParseLinkKind(s string) (LinkKind, error) {
	switch k := LinkKind(s); k {
	case LinkWorkspace, LinkChannel:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown link kind %q", common.ErrConstraintViolation, s)
	}
}

// FolderLink records that a workspace (or one of its channels) references a
// folder. Linked folders cannot be deleted and receive workspace grants.
type FolderLink struct {
	FolderID    string
	WorkspaceID string
	Kind        LinkKind
	CreatedAt   time.Time
}
