package history

import (
	"fmt"
	"strings"
	"time"
)

// Type is the logical tag that routes a record to its history table.
type Type string

const (
	TypeProject              Type = "PROJECT"
	TypeProjectNode          Type = "PROJECT_NODE"
	TypePost                 Type = "POST"
	TypePostComment          Type = "POST_COMMENT"
	TypeCsPost               Type = "CS_POST"
	TypeCsQna                Type = "CS_QNA"
	TypeCheckListItem        Type = "CHECK_LIST_ITEM"
	TypeCheckListItemComment Type = "CHECK_LIST_ITEM_COMMENT"
	TypeProjectClientMember  Type = "PROJECT_CLIENT_MEMBER"
	TypeProjectDevMember     Type = "PROJECT_DEV_MEMBER"
)

var allTypes = []Type{
	TypeProject,
	TypeProjectNode,
	TypePost,
	TypePostComment,
	TypeCsPost,
	TypeCsQna,
	TypeCheckListItem,
	TypeCheckListItemComment,
	TypeProjectClientMember,
	TypeProjectDevMember,
}

// Types returns every known tag in declaration order.
func Types() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

func (t Type) Valid() bool {
	for _, v := range allTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ParseType accepts tags case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown history type %q", ErrInvalidArgument, s)
	}
	return t, nil
}

// Action is the kind of mutation a record describes.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is one of CREATE, UPDATE, DELETE.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	default:
		return false
	}
}

// ParseAction accepts any letter case and surrounding spaces.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidArgument, s)
	}
	return a, nil
}

// Record is one append-only audit row.
// ChangeLogID is scoped to the table selected by Type, so Key is the identity.
type Record struct {
	ChangeLogID int64
	Type        Type
	TargetID    int64
	Action      Action
	BeforeData  string
	CreatedBy   int64
	UpdatedBy   int64
	UpdatedAt   time.Time
	ClientIP    string
	ClientAgent string
}

type Key struct {
	ChangeLogID int64
	Type        Type
}

func (r Record) Key() Key {
	return Key{ChangeLogID: r.ChangeLogID, Type: r.Type}
}

// Meta describes the request performing the action being recorded.
type Meta struct {
	UpdatedBy   int64
	ClientIP    string
	ClientAgent string
	At          time.Time
}
