package dictation

// View renders controller state. Render runs on the controller's event
// loop and must not block for long.
type View interface {
	Render(State)
}

// ViewFunc adapts a function to View.
type ViewFunc func(State)

func (f ViewFunc) Render(s State) { f(s) }

// Views fans a state out to several views in order.
type Views []View

func (vs Views) Render(s State) {
	for _, v := range vs {
		v.Render(s)
	}
}
