package hotkey

import "golang.design/x/hotkey"

// Option is the Alt key on Mac keyboards.
const altModifier = hotkey.ModOption
