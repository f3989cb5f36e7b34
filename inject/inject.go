// Package inject types text into whatever window has keyboard focus.
package inject

import (
	"fmt"
	"time"

	"limbo/log"
)

// pasteSettle is how long the target gets to read the clipboard before
// the previous contents are put back.
const pasteSettle = 150 * time.Millisecond

// Injector emits text at the current input focus.
type Injector interface {
	Inject(text string) error
}

type keyStroke struct {
	code  int
	shift bool
}

// keyboard is a platform's synthetic input device.
type keyboard interface {
	lookup(r rune) (keyStroke, bool)
	tap(k keyStroke) error
	pasteChord() error
}

// segment is a run of text emitted one way: typed key by key, or pasted.
type segment struct {
	keys  []keyStroke
	paste string
}

// plan splits text into alternating typed and pasted runs, preserving
// order. Runes lookup cannot map go through the clipboard.
func plan(text string, lookup func(rune) (keyStroke, bool)) []segment {
	var segs []segment
	var pasteRun []rune
	flush := func() {
		if len(pasteRun) > 0 {
			segs = append(segs, segment{paste: string(pasteRun)})
			pasteRun = nil
		}
	}
	for _, r := range text {
		k, ok := lookup(r)
		if !ok {
			pasteRun = append(pasteRun, r)
			continue
		}
		flush()
		if n := len(segs); n > 0 && segs[n-1].paste == "" {
			segs[n-1].keys = append(segs[n-1].keys, k)
		} else {
			segs = append(segs, segment{keys: []keyStroke{k}})
		}
	}
	flush()
	return segs
}

// typist drives a keyboard, falling back to the clipboard for text the
// keyboard cannot produce.
type typist struct {
	kb   keyboard
	clip clipboard
}

func (t *typist) Inject(text string) error {
	segs := plan(text, t.kb.lookup)
	for _, seg := range segs {
		if seg.paste != "" {
			if err := t.paste(seg.paste); err != nil {
				return fmt.Errorf("paste %d chars: %w", len([]rune(seg.paste)), err)
			}
			continue
		}
		for _, k := range seg.keys {
			if err := t.kb.tap(k); err != nil {
				return fmt.Errorf("key tap: %w", err)
			}
		}
	}
	return nil
}

func (t *typist) paste(text string) error {
	prev, readErr := t.clip.ReadAll()
	if readErr != nil {
		log.Warnf("clipboard read failed, previous contents will not be restored: %v", readErr)
	}
	if err := t.clip.WriteAll(text); err != nil {
		return err
	}
	if err := t.kb.pasteChord(); err != nil {
		return err
	}
	time.Sleep(pasteSettle)
	if readErr == nil {
		if err := t.clip.WriteAll(prev); err != nil {
			log.Warnf("clipboard restore failed: %v", err)
		}
	}
	return nil
}
