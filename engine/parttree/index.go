package parttree

import "github.com/Carmen-Shannon/oxy-cad/engine/part"

// Index is a handle to one cell of the tree: a part and a display column. The zero
// Index is invalid and stands for the (hidden) root. The row is derived from the part,
// so a handle stays correct when earlier siblings are removed.
type Index struct {
	column int
	part   *part.Part
}

// Valid reports whether the index refers to a non-root part.
func (i Index) Valid() bool {
	return i.part != nil
}

func (i Index) Row() int {
	if !i.Valid() {
		return -1
	}
	return i.part.Row()
}

func (i Index) Column() int {
	if !i.Valid() {
		return -1
	}
	return i.column
}

// Sibling returns the index of another column on the same row.
func (i Index) Sibling(column int) Index {
	if !i.Valid() || column < 0 || column >= i.part.ColumnCount() {
		return Index{}
	}
	return Index{column: column, part: i.part}
}

// Role selects which aspect of a cell Data returns.
type Role int

const (
	// RoleDisplay is the cell text.
	RoleDisplay Role = iota
	// RoleBackground is the part colour as a common.Color.
	RoleBackground
	// RoleForeground is the text colour as a common.Color.
	RoleForeground
)

func (r Role) String() string {
	switch r {
	case RoleDisplay:
		return "display"
	case RoleBackground:
		return "background"
	case RoleForeground:
		return "foreground"
	default:
		return "unknown"
	}
}

// ItemFlags describe how a view may interact with a cell.
type ItemFlags uint8

const (
	FlagSelectable ItemFlags = 1 << iota
	FlagEnabled
)

// NoItemFlags is returned for invalid indexes.
const NoItemFlags ItemFlags = 0

// Has reports whether every bit of f2 is set in f.
func (f ItemFlags) Has(f2 ItemFlags) bool {
	return f&f2 == f2
}
