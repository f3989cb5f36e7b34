//go:build linux

package inject

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"
)

const deviceName = "limbo-keyboard"

// ioctl constants from linux/uinput.h
const (
	uiSetEvbit  = 0x40045564 // UI_SET_EVBIT
	uiSetKeybit = 0x40045565 // UI_SET_KEYBIT
	uiDevCreate = 0x5501     // UI_DEV_CREATE
)

// linux/input-event-codes.h
const (
	evSyn = 0x00
	evKey = 0x01

	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyV         = 47
	keySpace     = 57
	keyEnter     = 28
	keyTab       = 15
)

const busUSB = 0x03

type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name         [80]byte
	ID           inputID
	FfEffectsMax uint32
	Absmax       [64]int32
	Absmin       [64]int32
	Absfuzz      [64]int32
	Absflat      [64]int32
}

var (
	dev     *os.File
	devOnce sync.Once
	devErr  error
)

// open creates the virtual keyboard once per process.
func open() (*os.File, error) {
	devOnce.Do(func() {
		dev, devErr = createDevice()
		if devErr == nil {
			// Give the compositor time to pick up the new input device.
			time.Sleep(200 * time.Millisecond)
		}
	})
	return dev, devErr
}

func createDevice() (*os.File, error) {
	path := "/dev/uinput"
	if _, err := os.Stat(path); err != nil {
		path = "/dev/input/uinput"
		if _, err := os.Stat(path); err != nil {
			return nil, errors.New("uinput device not found, try: sudo modprobe uinput")
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|syscall.O_NONBLOCK, os.ModeDevice)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	ioctl := func(req, arg uintptr) error {
		if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), req, arg); errno != 0 {
			return errno
		}
		return nil
	}
	fail := func(err error) (*os.File, error) {
		f.Close()
		return nil, fmt.Errorf("uinput setup: %w", err)
	}

	if err := ioctl(uiSetEvbit, evKey); err != nil {
		return fail(err)
	}
	if err := ioctl(uiSetEvbit, evSyn); err != nil {
		return fail(err)
	}
	// Register all standard keys so udev classifies this as a keyboard.
	for i := uintptr(0); i < 256; i++ {
		if err := ioctl(uiSetKeybit, i); err != nil {
			return fail(err)
		}
	}

	ud := uinputUserDev{}
	copy(ud.Name[:], deviceName)
	ud.ID = inputID{Bustype: busUSB, Vendor: 0x1234, Product: 0x5679, Version: 1}
	if err := binary.Write(f, binary.LittleEndian, &ud); err != nil {
		return fail(err)
	}
	if err := ioctl(uiDevCreate, 0); err != nil {
		return fail(err)
	}
	return f, nil
}

type uinputKeyboard struct {
	f *os.File
}

// New returns an injector backed by a uinput virtual keyboard.
func New() (Injector, error) {
	f, err := open()
	if err != nil {
		return nil, err
	}
	return &typist{kb: &uinputKeyboard{f: f}, clip: systemClipboard{}}, nil
}

func (k *uinputKeyboard) write(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	return binary.Write(k.f, binary.LittleEndian, &ev)
}

// key sends one key transition followed by a sync report.
func (k *uinputKeyboard) key(code uint16, down bool) error {
	var v int32
	if down {
		v = 1
	}
	if err := k.write(evKey, code, v); err != nil {
		return err
	}
	return k.write(evSyn, 0, 0)
}

func (k *uinputKeyboard) tap(s keyStroke) error {
	if s.shift {
		if err := k.key(keyLeftShift, true); err != nil {
			return err
		}
	}
	if err := k.key(uint16(s.code), true); err != nil {
		return err
	}
	if err := k.key(uint16(s.code), false); err != nil {
		return err
	}
	if s.shift {
		return k.key(keyLeftShift, false)
	}
	return nil
}

func (k *uinputKeyboard) pasteChord() error {
	steps := []struct {
		code uint16
		down bool
	}{
		{keyLeftCtrl, true}, {keyV, true}, {keyV, false}, {keyLeftCtrl, false},
	}
	for _, s := range steps {
		if err := k.key(s.code, s.down); err != nil {
			return err
		}
		// let the compositor register modifier state
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (k *uinputKeyboard) lookup(r rune) (keyStroke, bool) {
	return lookupUS(r)
}

// a=30, b=48, c=46, d=32, e=18, f=33, g=34, h=35, i=23, j=36,
// k=37, l=38, m=50, n=49, o=24, p=25, q=16, r=19, s=31, t=20,
// u=22, v=47, w=17, x=45, y=21, z=44
var letterKeys = [26]int{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36,
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20,
	22, 47, 17, 45, 21, 44,
}

// 0=11, 1=2, 2=3, ..., 9=10
var digitKeys = [10]int{11, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// US layout punctuation.
var punctKeys = map[rune]keyStroke{
	'.': {52, false}, ',': {51, false}, '/': {53, false},
	';': {39, false}, '\'': {40, false}, '[': {26, false},
	']': {27, false}, '-': {12, false}, '=': {13, false},
	'\\': {43, false}, '`': {41, false},
	'!': {2, true}, '@': {3, true}, '#': {4, true},
	'$': {5, true}, '%': {6, true}, '^': {7, true},
	'&': {8, true}, '*': {9, true}, '(': {10, true},
	')': {11, true}, '_': {12, true}, '+': {13, true},
	'{': {26, true}, '}': {27, true}, '|': {43, true},
	':': {39, true}, '"': {40, true}, '<': {51, true},
	'>': {52, true}, '?': {53, true}, '~': {41, true},
}

func lookupUS(r rune) (keyStroke, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return keyStroke{letterKeys[r-'a'], false}, true
	case r >= 'A' && r <= 'Z':
		return keyStroke{letterKeys[r-'A'], true}, true
	case r >= '0' && r <= '9':
		return keyStroke{digitKeys[r-'0'], false}, true
	case r == ' ':
		return keyStroke{keySpace, false}, true
	case r == '\n':
		return keyStroke{keyEnter, false}, true
	case r == '\t':
		return keyStroke{keyTab, false}, true
	}
	k, ok := punctKeys[r]
	return k, ok
}

// Verify creates the virtual keyboard, taps Shift and reads the events
// back from the kernel input layer to confirm delivery.
func Verify() (string, error) {
	f, err := open()
	if err != nil {
		return "", err
	}
	kb := &uinputKeyboard{f: f}

	entries, err := os.ReadDir("/sys/class/input")
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	var evdevPath string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		data, err := os.ReadFile(filepath.Join("/sys/class/input", e.Name(), "device", "name"))
		if err == nil && strings.TrimSpace(string(data)) == deviceName {
			evdevPath = filepath.Join("/dev/input", e.Name())
			break
		}
	}
	if evdevPath == "" {
		return "", fmt.Errorf("%s evdev device not found", deviceName)
	}

	evdev, err := os.Open(evdevPath)
	if err != nil {
		return "", fmt.Errorf("cannot open %s: %w", evdevPath, err)
	}
	defer evdev.Close()

	if err := kb.tap(keyStroke{code: keyLeftShift}); err != nil {
		return "", fmt.Errorf("key send: %w", err)
	}

	type result struct {
		down, up bool
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 24*32)
		var r result
		n, err := evdev.Read(buf)
		if err != nil {
			r.err = err
			ch <- r
			return
		}
		for i := 0; i+24 <= n; i += 24 {
			typ := binary.LittleEndian.Uint16(buf[i+16:])
			code := binary.LittleEndian.Uint16(buf[i+18:])
			val := int32(binary.LittleEndian.Uint32(buf[i+20:]))
			if typ == evKey && code == keyLeftShift {
				r.down = r.down || val == 1
				r.up = r.up || val == 0
			}
		}
		ch <- r
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("reading events: %w", r.err)
		}
		if !r.down || !r.up {
			return "", fmt.Errorf("missing events (down=%v, up=%v)", r.down, r.up)
		}
		return fmt.Sprintf("keystroke delivery verified via %s", evdevPath), nil
	case <-time.After(500 * time.Millisecond):
		return "", errors.New("timed out waiting for keystroke events")
	}
}
