package parttree

// Observer receives structural and data change notifications. Begin and End calls
// always come in matching pairs, and the tree is unchanged until the End call's
// matching Begin has returned.
type Observer interface {
	// BeginInsertRows is called before rows first..last are inserted under parent.
	BeginInsertRows(parent Index, first, last int)
	// EndInsertRows is called once the insertion is complete.
	EndInsertRows()
	// BeginRemoveRows is called before rows first..last are removed from parent.
	BeginRemoveRows(parent Index, first, last int)
	// EndRemoveRows is called once the removal is complete.
	EndRemoveRows()
	// DataChanged reports that cells in [topLeft, bottomRight] changed for roles.
	DataChanged(topLeft, bottomRight Index, roles []Role)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnBeginInsertRows func(parent Index, first, last int)
	OnEndInsertRows   func()
	OnBeginRemoveRows func(parent Index, first, last int)
	OnEndRemoveRows   func()
	OnDataChanged     func(topLeft, bottomRight Index, roles []Role)
}

var _ Observer = ObserverFuncs{}

func (o ObserverFuncs) BeginInsertRows(parent Index, first, last int) {
	if o.OnBeginInsertRows != nil {
		o.OnBeginInsertRows(parent, first, last)
	}
}

func (o ObserverFuncs) EndInsertRows() {
	if o.OnEndInsertRows != nil {
		o.OnEndInsertRows()
	}
}

func (o ObserverFuncs) BeginRemoveRows(parent Index, first, last int) {
	if o.OnBeginRemoveRows != nil {
		o.OnBeginRemoveRows(parent, first, last)
	}
}

func (o ObserverFuncs) EndRemoveRows() {
	if o.OnEndRemoveRows != nil {
		o.OnEndRemoveRows()
	}
}

func (o ObserverFuncs) DataChanged(topLeft, bottomRight Index, roles []Role) {
	if o.OnDataChanged != nil {
		o.OnDataChanged(topLeft, bottomRight, roles)
	}
}
