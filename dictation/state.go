package dictation

// Phase is where the controller is in a dictation cycle.
type Phase int

const (
	Idle Phase = iota
	Listening
	Processing
	Result
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Processing:
		return "processing"
	case Result:
		return "result"
	case Error:
		return "error"
	}
	return "unknown"
}

// Visible reports whether a status window should be shown in this phase.
func (p Phase) Visible() bool { return p != Idle }

// State is what views render. Text is the transcript in Result and the
// message in Error, empty otherwise.
type State struct {
	Phase Phase
	Text  string
}

const (
	MsgNoSpeech       = "Could not understand audio"
	msgDeviceFailure  = "Microphone unavailable: "
	defaultFailureMsg = "Transcription failed"
)
