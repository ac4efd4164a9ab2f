package parttree

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-cad/common"
	"github.com/Carmen-Shannon/oxy-cad/engine/part"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs notifications and, on every End call, checks that the row count it
// sees matches what the Begin call announced.
type recorder struct {
	t      *testing.T
	tree   Tree
	events []string
	parent Index
	want   int
}

func (r *recorder) BeginInsertRows(parent Index, first, last int) {
	r.events = append(r.events, fmt.Sprintf("begin-insert %d-%d", first, last))
	r.parent = parent
	r.want = r.tree.RowCount(parent) + last - first + 1
}

func (r *recorder) EndInsertRows() {
	r.events = append(r.events, "end-insert")
	r.check()
}

func (r *recorder) BeginRemoveRows(parent Index, first, last int) {
	r.events = append(r.events, fmt.Sprintf("begin-remove %d-%d", first, last))
	r.parent = parent
	r.want = r.tree.RowCount(parent) - (last - first + 1)
}

func (r *recorder) EndRemoveRows() {
	r.events = append(r.events, "end-remove")
	r.check()
}

func (r *recorder) DataChanged(topLeft, bottomRight Index, roles []Role) {
	r.events = append(r.events, fmt.Sprintf("data %d:%d-%d:%d %v", topLeft.Row(), topLeft.Column(), bottomRight.Row(), bottomRight.Column(), roles))
}

func (r *recorder) check() {
	assert.Equal(r.t, r.want, r.tree.RowCount(r.parent))
}

func newRecordedTree(t *testing.T) (Tree, *recorder) {
	tr := NewTree()
	rec := &recorder{t: t, tree: tr}
	tr.Subscribe(rec)
	return tr, rec
}

func TestHeaders(t *testing.T) {
	tr := NewTree()
	assert.Equal(t, 2, tr.ColumnCount())
	assert.Equal(t, "Name", tr.HeaderData(0))
	assert.Equal(t, "Visible", tr.HeaderData(1))
	assert.Equal(t, "", tr.HeaderData(2))
}

func TestAppendChildNotifies(t *testing.T) {
	tr, rec := newRecordedTree(t)
	a := tr.AppendChild("a.stl", true)
	b := tr.AppendChild("b.stl", false)

	assert.Equal(t, []string{"begin-insert 0-0", "end-insert", "begin-insert 1-1", "end-insert"}, rec.events)
	assert.Equal(t, 2, tr.RowCount(Index{}))
	assert.Equal(t, 0, a.Row())
	assert.Equal(t, 1, b.Row())
	assert.Equal(t, "b.stl", tr.Data(b, RoleDisplay))
	assert.Equal(t, "false", tr.Data(b.Sibling(1), RoleDisplay))
	assert.Equal(t, part.NewPart().Color(), tr.Data(a, RoleBackground))
	assert.Equal(t, common.Color{}, tr.Data(a, RoleForeground))
	assert.Nil(t, tr.Data(Index{}, RoleDisplay))
}

func TestAppendUnderRemovedPartIsRejected(t *testing.T) {
	tr, rec := newRecordedTree(t)
	a := tr.AppendChild("a.stl", true)
	require.True(t, tr.RemoveRow(0, Index{}))
	rec.events = nil

	idx := tr.AppendChildTo(a, "child.stl", true)

	assert.False(t, idx.Valid())
	assert.Empty(t, rec.events)
	assert.Zero(t, tr.RowCount(Index{}))
}

func TestIndexAndParent(t *testing.T) {
	tr := NewTree()
	top := tr.AppendChild("top", true)
	nested := tr.AppendChildTo(top, "nested", true)

	assert.Equal(t, top, tr.Index(0, 0, Index{}))
	assert.Equal(t, nested, tr.Index(0, 0, top))
	assert.False(t, tr.Index(1, 0, Index{}).Valid())
	assert.False(t, tr.Index(0, 2, Index{}).Valid())
	assert.False(t, tr.Index(0, 0, top.Sibling(1)).Valid())
	assert.Equal(t, 0, tr.RowCount(top.Sibling(1)))

	assert.Equal(t, top, tr.Parent(nested))
	assert.False(t, tr.Parent(top).Valid())
	assert.True(t, tr.HasChildren(top))
	assert.False(t, tr.HasChildren(nested))
	assert.Equal(t, FlagSelectable|FlagEnabled, tr.Flags(top))
	assert.Equal(t, NoItemFlags, tr.Flags(Index{}))
}

func TestItemFallsBackToRoot(t *testing.T) {
	tr := NewTree()
	assert.Same(t, tr.Root(), tr.Item(Index{}))
	idx := tr.AppendChild("a", true)
	assert.Equal(t, "a", tr.Item(idx).Name())
}

func TestRemoveRowsOutOfRangeIsRejected(t *testing.T) {
	tr, rec := newRecordedTree(t)
	tr.AppendChild("a", true)
	tr.AppendChild("b", true)
	rec.events = nil

	assert.False(t, tr.RemoveRows(2, 1, Index{}))
	assert.False(t, tr.RemoveRows(1, 2, Index{}))
	assert.False(t, tr.RemoveRows(-1, 1, Index{}))
	assert.False(t, tr.RemoveRows(0, 0, Index{}))
	assert.Equal(t, 2, tr.RowCount(Index{}))
	assert.Empty(t, rec.events)
}

func TestRemoveRowsShiftsAndDestroys(t *testing.T) {
	tr, rec := newRecordedTree(t)
	var parts []*part.Part
	for i := 0; i < 4; i++ {
		parts = append(parts, tr.Item(tr.AppendChild(fmt.Sprintf("p%d", i), true)))
	}
	last := tr.IndexOf(parts[3])
	rec.events = nil

	require.True(t, tr.RemoveRows(1, 2, Index{}))
	assert.Equal(t, []string{"begin-remove 1-2", "end-remove"}, rec.events)
	assert.Equal(t, 2, tr.RowCount(Index{}))
	assert.Equal(t, "p0", tr.Item(tr.Index(0, 0, Index{})).Name())
	assert.Equal(t, "p3", tr.Item(tr.Index(1, 0, Index{})).Name())
	assert.True(t, parts[1].Destroyed())
	assert.True(t, parts[2].Destroyed())
	assert.Equal(t, 1, last.Row())

	require.True(t, tr.RemoveRow(0, Index{}))
	assert.Equal(t, 0, last.Row())
}

func TestNotifyDataChanged(t *testing.T) {
	tr, rec := newRecordedTree(t)
	idx := tr.AppendChild("a", true)
	rec.events = nil

	tr.NotifyDataChanged(idx, idx.Sibling(1), RoleDisplay, RoleBackground)
	tr.NotifyDataChanged(Index{}, idx)
	assert.Equal(t, []string{"data 0:0-0:1 [display background]"}, rec.events)
}

func TestUnsubscribe(t *testing.T) {
	tr := NewTree()
	inserts := 0
	stop := tr.Subscribe(ObserverFuncs{OnEndInsertRows: func() { inserts++ }})
	tr.AppendChild("a", true)
	stop()
	tr.AppendChild("b", true)
	assert.Equal(t, 1, inserts)
}

func TestFindTopLevel(t *testing.T) {
	tr := NewTree()
	tr.AppendChild("a.stl", true)
	b := tr.AppendChild("b.stl", true)

	got, ok := tr.FindTopLevel("b.stl")
	require.True(t, ok)
	assert.Equal(t, b, got)
	_, ok = tr.FindTopLevel("c.stl")
	assert.False(t, ok)
}

func TestIndexOfForeignPart(t *testing.T) {
	tr := NewTree()
	assert.False(t, tr.IndexOf(part.NewPart()).Valid())
	assert.False(t, tr.IndexOf(tr.Root()).Valid())
}

func TestDestroyEmptiesTree(t *testing.T) {
	tr := NewTree()
	p := tr.Item(tr.AppendChild("a", true))
	tr.Destroy()
	assert.Equal(t, 0, tr.RowCount(Index{}))
	assert.True(t, p.Destroyed())
	assert.True(t, tr.Root().Destroyed())
}
