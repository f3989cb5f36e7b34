package hotkey

// Linux input event codes for the chord keys.
const (
	keyPress   = 1
	keyRelease = 0
	keyRepeat  = 2

	keyLAlt  = 56
	keyRAlt  = 100
	keySpace = 57
)

// chord tracks modifier state across evdev key events and reports when
// Space goes down while an Alt key is held.
type chord struct {
	lalt, ralt bool
	spaceHeld  bool
}

func (c *chord) feed(code uint16, value int32) bool {
	if value == keyRepeat {
		return false
	}
	down := value == keyPress
	switch code {
	case keyLAlt:
		c.lalt = down
	case keyRAlt:
		c.ralt = down
	case keySpace:
		if !down {
			c.spaceHeld = false
			return false
		}
		if c.spaceHeld {
			return false
		}
		c.spaceHeld = true
		return c.lalt || c.ralt
	}
	return false
}
