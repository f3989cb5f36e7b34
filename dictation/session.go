package dictation

import (
	"time"

	"github.com/google/uuid"
)

// Session is one recording, from the hotkey that started it until its
// transcription outcome has been handled.
type Session struct {
	ID      uuid.UUID
	Started time.Time
	Chunks  [][]byte
}

func newSession() *Session {
	return &Session{ID: uuid.New(), Started: time.Now()}
}

// Bytes returns the total amount of captured PCM.
func (s *Session) Bytes() int {
	n := 0
	for _, c := range s.Chunks {
		n += len(c)
	}
	return n
}
