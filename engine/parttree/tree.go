// Package parttree adapts the part ownership tree to a hierarchical-table contract:
// rows are children, columns are the fixed display fields of a part, and every
// structural change is bracketed by begin/end notifications.
package parttree

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
)

// tree is the implementation of the Tree interface.
type tree struct {
	root *part.Part

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObsID int
}

// Tree exposes the part hierarchy to a tree view. Structural calls are not safe for
// concurrent use; callers serialize them, as the viewer does with its own lock.
type Tree interface {
	// Root returns the header-only root part.
	//
	// Returns:
	//   - *part.Part: the root
	Root() *part.Part

	// ColumnCount returns the number of display columns.
	//
	// Returns:
	//   - int: the column count
	ColumnCount() int

	// RowCount returns the number of children under parent. An invalid parent means the
	// root. Only column 0 has children.
	//
	// Parameters:
	//   - parent: the parent index
	//
	// Returns:
	//   - int: the child count
	RowCount(parent Index) int

	// Index returns the handle of the cell at row/column under parent, or an invalid
	// Index when out of range.
	//
	// Parameters:
	//   - row: the child row
	//   - column: the display column
	//   - parent: the parent index; invalid means the root
	//
	// Returns:
	//   - Index: the cell handle
	Index(row, column int, parent Index) Index

	// IndexOf returns the column-0 handle of p, or an invalid Index for the root or a
	// part outside this tree.
	//
	// Parameters:
	//   - p: the part to locate
	//
	// Returns:
	//   - Index: the handle
	IndexOf(p *part.Part) Index

	// Parent returns the handle of child's parent; top-level parts report an invalid Index.
	//
	// Parameters:
	//   - child: the child index
	//
	// Returns:
	//   - Index: the parent handle
	Parent(child Index) Index

	// Data returns the value of a cell for role: a string for RoleDisplay, a
	// common.Color for RoleBackground and RoleForeground, nil for invalid input.
	//
	// Parameters:
	//   - idx: the cell
	//   - role: the data role
	//
	// Returns:
	//   - any: the value or nil
	Data(idx Index, role Role) any

	// HeaderData returns the column header text, or "" out of range.
	//
	// Parameters:
	//   - section: the column
	//
	// Returns:
	//   - string: the header text
	HeaderData(section int) string

	// Flags returns the interaction flags of a cell.
	//
	// Parameters:
	//   - idx: the cell
	//
	// Returns:
	//   - ItemFlags: the flags, NoItemFlags for an invalid index
	Flags(idx Index) ItemFlags

	// HasChildren reports whether parent has at least one child.
	//
	// Parameters:
	//   - parent: the parent index; invalid means the root
	//
	// Returns:
	//   - bool: true if RowCount(parent) > 0
	HasChildren(parent Index) bool

	// AppendChild creates a part under the root, bracketed by insert notifications.
	//
	// Parameters:
	//   - name: the display name
	//   - visible: the initial visibility
	//   - options: further part options (colour, source)
	//
	// Returns:
	//   - Index: the handle of the new part
	AppendChild(name string, visible bool, options ...part.PartBuilderOption) Index

	// AppendChildTo creates a part under parent, bracketed by insert notifications.
	//
	// Parameters:
	//   - parent: the parent index; invalid means the root
	//   - name: the display name
	//   - visible: the initial visibility
	//   - options: further part options
	//
	// Returns:
	//   - Index: the handle of the new part, or an invalid Index when parent refers to a
	//     removed part
	AppendChildTo(parent Index, name string, visible bool, options ...part.PartBuilderOption) Index

	// RemoveRows destroys count children of parent starting at row. When the range is
	// out of bounds nothing changes, no notification is sent, and false is returned.
	//
	// Parameters:
	//   - row: the first row to remove
	//   - count: the number of rows, at least 1
	//   - parent: the parent index; invalid means the root
	//
	// Returns:
	//   - bool: true if the rows were removed
	RemoveRows(row, count int, parent Index) bool

	// RemoveRow is RemoveRows(row, 1, parent).
	//
	// Parameters:
	//   - row: the row to remove
	//   - parent: the parent index
	//
	// Returns:
	//   - bool: true if the row was removed
	RemoveRow(row int, parent Index) bool

	// Item resolves a handle to its part. Invalid handles resolve to the root, never nil.
	//
	// Parameters:
	//   - idx: the handle
	//
	// Returns:
	//   - *part.Part: the part or the root
	Item(idx Index) *part.Part

	// NotifyDataChanged tells observers that cells in [topLeft, bottomRight] changed.
	//
	// Parameters:
	//   - topLeft: the first changed cell
	//   - bottomRight: the last changed cell
	//   - roles: the affected roles
	NotifyDataChanged(topLeft, bottomRight Index, roles ...Role)

	// Subscribe registers an observer.
	//
	// Parameters:
	//   - o: the observer
	//
	// Returns:
	//   - func(): removes the observer
	Subscribe(o Observer) func()

	// FindTopLevel returns the first top-level part named name.
	//
	// Parameters:
	//   - name: the display name
	//
	// Returns:
	//   - Index: its handle
	//   - bool: false if no top-level part has that name
	FindTopLevel(name string) (Index, bool)

	// Destroy tears down every part. The tree is empty afterwards.
	Destroy()
}

var _ Tree = &tree{}

// NewTree creates a Tree with a fresh root.
//
// Returns:
//   - Tree: the new tree
func NewTree() Tree {
	return &tree{
		root:      part.NewRoot(),
		observers: make(map[int]Observer),
	}
}

func (t *tree) Root() *part.Part {
	return t.root
}

func (t *tree) ColumnCount() int {
	return t.root.ColumnCount()
}

func (t *tree) RowCount(parent Index) int {
	if parent.Valid() && parent.column > 0 {
		return 0
	}
	return t.Item(parent).ChildCount()
}

func (t *tree) Index(row, column int, parent Index) Index {
	if column < 0 || column >= t.ColumnCount() {
		return Index{}
	}
	if parent.Valid() && parent.column > 0 {
		return Index{}
	}
	child := t.Item(parent).Child(row)
	if child == nil {
		return Index{}
	}
	return Index{column: column, part: child}
}

func (t *tree) IndexOf(p *part.Part) Index {
	if p == nil || p == t.root || !t.contains(p) {
		return Index{}
	}
	return Index{column: 0, part: p}
}

func (t *tree) contains(p *part.Part) bool {
	for cur := p; cur != nil; cur = cur.Parent() {
		if cur == t.root {
			return true
		}
	}
	return false
}

func (t *tree) Parent(child Index) Index {
	if !child.Valid() {
		return Index{}
	}
	return t.IndexOf(child.part.Parent())
}

func (t *tree) Data(idx Index, role Role) any {
	if !idx.Valid() {
		return nil
	}
	switch role {
	case RoleDisplay:
		return idx.part.Data(idx.column)
	case RoleBackground:
		return idx.part.Color()
	case RoleForeground:
		return common.Color{}
	default:
		return nil
	}
}

func (t *tree) HeaderData(section int) string {
	return t.root.Data(section)
}

func (t *tree) Flags(idx Index) ItemFlags {
	if !idx.Valid() {
		return NoItemFlags
	}
	return FlagSelectable | FlagEnabled
}

func (t *tree) HasChildren(parent Index) bool {
	return t.RowCount(parent) > 0
}

func (t *tree) AppendChild(name string, visible bool, options ...part.PartBuilderOption) Index {
	return t.AppendChildTo(Index{}, name, visible, options...)
}

func (t *tree) AppendChildTo(parent Index, name string, visible bool, options ...part.PartBuilderOption) Index {
	parentPart := t.Item(parent)
	if parentPart.Destroyed() || !t.contains(parentPart) {
		common.Logger().Warn("append under a removed part ignored", "name", name, "parent", parentPart.Name())
		return Index{}
	}
	opts := append([]part.PartBuilderOption{part.WithName(name), part.WithVisible(visible)}, options...)
	child := part.NewPart(opts...)

	row := parentPart.ChildCount()
	parentIdx := t.IndexOf(parentPart)
	for _, o := range t.snapshotObservers() {
		o.BeginInsertRows(parentIdx, row, row)
	}
	parentPart.AppendChild(child)
	for _, o := range t.snapshotObservers() {
		o.EndInsertRows()
	}

	common.Logger().Debug("part appended", "name", name, "row", row)
	return Index{column: 0, part: child}
}

func (t *tree) RemoveRows(row, count int, parent Index) bool {
	parentPart := t.Item(parent)
	if row < 0 || count < 1 || row+count > parentPart.ChildCount() {
		common.Logger().Warn("remove rows out of range", "row", row, "count", count, "children", parentPart.ChildCount())
		return false
	}

	parentIdx := t.IndexOf(parentPart)
	observers := t.snapshotObservers()
	for _, o := range observers {
		o.BeginRemoveRows(parentIdx, row, row+count-1)
	}
	// each removal shifts the following rows down, so the same row is removed count times
	for i := 0; i < count; i++ {
		parentPart.RemoveChild(row)
	}
	for _, o := range observers {
		o.EndRemoveRows()
	}
	return true
}

func (t *tree) RemoveRow(row int, parent Index) bool {
	return t.RemoveRows(row, 1, parent)
}

func (t *tree) Item(idx Index) *part.Part {
	if idx.Valid() {
		return idx.part
	}
	return t.root
}

func (t *tree) NotifyDataChanged(topLeft, bottomRight Index, roles ...Role) {
	if !topLeft.Valid() || !bottomRight.Valid() {
		return
	}
	for _, o := range t.snapshotObservers() {
		o.DataChanged(topLeft, bottomRight, roles)
	}
}

func (t *tree) Subscribe(o Observer) func() {
	t.obsMu.Lock()
	id := t.nextObsID
	t.nextObsID++
	t.observers[id] = o
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		delete(t.observers, id)
		t.obsMu.Unlock()
	}
}

// snapshotObservers returns the observers in subscription order.
func (t *tree) snapshotObservers() []Observer {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	out := make([]Observer, 0, len(t.observers))
	for id := 0; id < t.nextObsID; id++ {
		if o, ok := t.observers[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

func (t *tree) FindTopLevel(name string) (Index, bool) {
	for _, c := range t.root.Children() {
		if c.Name() == name {
			return Index{column: 0, part: c}, true
		}
	}
	return Index{}, false
}

func (t *tree) Destroy() {
	if n := t.root.ChildCount(); n > 0 {
		t.RemoveRows(0, n, Index{})
	}
	t.root.Destroy()
}
