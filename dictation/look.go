package dictation

import "limbo/hotkey"

// Colours shared by the terminal and window views.
const (
	ColorBackground = "#1a1a2e"
	ColorReady      = "#00ff9f"
	ColorAlert      = "#ff3366"
	ColorBusy       = "#ffaa00"
	ColorHint       = "#a0a0a0"
	ColorText       = "#ffffff"
)

// Look is how one state is presented: a short status label, the body
// message and the accent colour for both.
type Look struct {
	Label   string
	Message string
	Accent  string
	Pulse   bool
}

func (s State) Look() Look {
	switch s.Phase {
	case Listening:
		return Look{Label: "LISTENING...", Message: "Speak now...", Accent: ColorAlert, Pulse: true}
	case Processing:
		return Look{Label: "PROCESSING...", Message: "Transcribing your speech...", Accent: ColorBusy, Pulse: true}
	case Result:
		return Look{Label: "SUCCESS!", Message: `"` + s.Text + `"`, Accent: ColorReady}
	case Error:
		return Look{Label: "ERROR", Message: s.Text, Accent: ColorAlert}
	}
	return Look{Label: "READY", Message: "Press " + hotkey.Combo + " to speak", Accent: ColorReady}
}
