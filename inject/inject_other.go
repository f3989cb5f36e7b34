//go:build !linux

package inject

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func open() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

// Virtual key codes differ per platform; only these are shared.
var letterKeys = [26]int{
	keybd_event.VK_A, keybd_event.VK_B, keybd_event.VK_C, keybd_event.VK_D,
	keybd_event.VK_E, keybd_event.VK_F, keybd_event.VK_G, keybd_event.VK_H,
	keybd_event.VK_I, keybd_event.VK_J, keybd_event.VK_K, keybd_event.VK_L,
	keybd_event.VK_M, keybd_event.VK_N, keybd_event.VK_O, keybd_event.VK_P,
	keybd_event.VK_Q, keybd_event.VK_R, keybd_event.VK_S, keybd_event.VK_T,
	keybd_event.VK_U, keybd_event.VK_V, keybd_event.VK_W, keybd_event.VK_X,
	keybd_event.VK_Y, keybd_event.VK_Z,
}

var digitKeys = [10]int{
	keybd_event.VK_0, keybd_event.VK_1, keybd_event.VK_2, keybd_event.VK_3,
	keybd_event.VK_4, keybd_event.VK_5, keybd_event.VK_6, keybd_event.VK_7,
	keybd_event.VK_8, keybd_event.VK_9,
}

type vkKeyboard struct {
	mu sync.Mutex
}

// New returns an injector backed by the OS synthetic keyboard API.
func New() (Injector, error) {
	if err := open(); err != nil {
		return nil, err
	}
	return &typist{kb: &vkKeyboard{}, clip: systemClipboard{}}, nil
}

func (k *vkKeyboard) lookup(r rune) (keyStroke, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return keyStroke{letterKeys[r-'a'], false}, true
	case r >= 'A' && r <= 'Z':
		return keyStroke{letterKeys[r-'A'], true}, true
	case r >= '0' && r <= '9':
		return keyStroke{digitKeys[r-'0'], false}, true
	case r == ' ':
		return keyStroke{keybd_event.VK_SPACE, false}, true
	}
	return keyStroke{}, false
}

func (k *vkKeyboard) tap(s keyStroke) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	kb.Clear()
	kb.SetKeys(s.code)
	kb.HasSHIFT(s.shift)
	return kb.Launching()
}

func (k *vkKeyboard) pasteChord() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	setPasteModifier(&kb)
	err := kb.Launching()
	kb.Clear()
	return err
}

// Verify checks that the keyboard event binding is initialized.
func Verify() (string, error) {
	if err := open(); err != nil {
		return "", err
	}
	return "keyboard event binding OK", nil
}
