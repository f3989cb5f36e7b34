//go:build gui

package gui

import (
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"limbo/dictation"
)

const (
	statusWidth  = 360
	statusHeight = 120
	dotSize      = 14
	margin       = 16
)

// StatusWidget is the floating card: a coloured dot, a status label and
// the message below it.
type StatusWidget struct {
	widget.BaseWidget
	mu     sync.Mutex
	state  dictation.State
	frame  int
	stopCh chan struct{}
}

func NewStatusWidget() *StatusWidget {
	s := &StatusWidget{stopCh: make(chan struct{})}
	s.ExtendBaseWidget(s)
	go s.animate()
	return s
}

func (s *StatusWidget) SetState(st dictation.State) {
	s.mu.Lock()
	s.state = st
	s.frame = 0
	s.mu.Unlock()
	fyne.Do(s.Refresh)
}

func (s *StatusWidget) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
}

// animate drives the dot pulse while a phase asks for it.
func (s *StatusWidget) animate() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			pulse := s.state.Look().Pulse
			if pulse {
				s.frame++
			}
			s.mu.Unlock()
			if pulse {
				fyne.Do(s.Refresh)
			}
		}
	}
}

func (s *StatusWidget) MinSize() fyne.Size {
	return fyne.NewSize(statusWidth, statusHeight)
}

func (s *StatusWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &statusRenderer{
		status:  s,
		bg:      canvas.NewRectangle(mustHex(dictation.ColorBackground)),
		dot:     canvas.NewCircle(mustHex(dictation.ColorReady)),
		label:   canvas.NewText("", mustHex(dictation.ColorReady)),
		message: widget.NewLabel(""),
	}
	r.bg.CornerRadius = 12
	r.label.TextStyle = fyne.TextStyle{Bold: true}
	r.label.TextSize = 16
	r.message.Wrapping = fyne.TextWrapWord
	r.Refresh()
	return r
}

type statusRenderer struct {
	status  *StatusWidget
	bg      *canvas.Rectangle
	dot     *canvas.Circle
	label   *canvas.Text
	message *widget.Label
}

func (r *statusRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.dot.Move(fyne.NewPos(margin, margin+3))
	r.dot.Resize(fyne.NewSize(dotSize, dotSize))
	r.label.Move(fyne.NewPos(margin+dotSize+10, margin))
	r.label.Resize(fyne.NewSize(size.Width-2*margin-dotSize-10, 20))
	r.message.Move(fyne.NewPos(margin-8, margin+28))
	r.message.Resize(fyne.NewSize(size.Width-2*margin+16, size.Height-margin-36))
}

func (r *statusRenderer) MinSize() fyne.Size {
	return r.status.MinSize()
}

func (r *statusRenderer) Refresh() {
	r.status.mu.Lock()
	st := r.status.state
	frame := r.status.frame
	r.status.mu.Unlock()

	look := st.Look()
	accent := mustHex(look.Accent)
	dot := accent
	if look.Pulse {
		dot = withAlpha(accent, 0.55+0.45*math.Cos(float64(frame)*0.25))
	}

	r.dot.FillColor = dot
	r.label.Text = look.Label
	r.label.Color = accent
	r.message.SetText(look.Message)
	if st.Phase == dictation.Idle {
		r.message.Importance = widget.LowImportance
	} else {
		r.message.Importance = widget.MediumImportance
	}

	r.bg.Refresh()
	r.dot.Refresh()
	r.label.Refresh()
	r.message.Refresh()
}

func (r *statusRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.dot, r.label, r.message}
}

func (r *statusRenderer) Destroy() {
	r.status.Stop()
}
