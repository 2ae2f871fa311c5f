package resolver

// Selection tracks at most one selected node.
// The zero value is the NoneSelected state.
type Selection struct {
	id  string
	set bool
}

// ClickNode selects id, replacing any previous selection.
func (s *Selection) ClickNode(id string) {
	s.id, s.set = id, true
}

// ClickStage clears the selection.
func (s *Selection) ClickStage() {
	s.id, s.set = "", false
}

// Selected returns the selected node, if any.
func (s Selection) Selected() (string, bool) {
	return s.id, s.set
}
