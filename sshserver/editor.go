package sshserver

import (
	"bufio"
	"io"
	"unicode"
	"unicode/utf8"
)

type keyKind int

const (
	keyRune keyKind = iota
	keyEnter
	keyBackspace
	keyDelete
	keyLeft
	keyRight
	keyUp
	keyDown
	keyHome
	keyEnd
	keyPageUp
	keyPageDown
	keyCtrlA
	keyCtrlC
	keyCtrlD
	keyCtrlE
	keyCtrlK
	keyCtrlL
	keyCtrlU
	keyCtrlW
	keyAltB
	keyAltF
)

type key struct {
	kind keyKind
	r    rune
}

// editing reports whether the key changes the input field.
func (k key) editing() bool {
	switch k.kind {
	case keyRune, keyEnter, keyBackspace, keyDelete, keyCtrlK, keyCtrlU, keyCtrlW:
		return true
	default:
		return false
	}
}

var controlKeys = map[byte]keyKind{
	0x01: keyCtrlA,
	0x03: keyCtrlC,
	0x04: keyCtrlD,
	0x05: keyCtrlE,
	0x0b: keyCtrlK,
	0x0c: keyCtrlL,
	0x15: keyCtrlU,
	0x17: keyCtrlW,
	0x7f: keyBackspace,
	0x08: keyBackspace,
}

// readKeys decodes terminal input into keys until r fails. CR LF pairs count
// as one Enter.
func readKeys(r io.Reader, out chan<- key) {
	defer close(out)
	br := bufio.NewReader(r)
	lastWasCR := false
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		if lastWasCR {
			lastWasCR = false
			if b == '\n' {
				continue
			}
		}
		if kind, ok := controlKeys[b]; ok {
			out <- key{kind: kind}
			continue
		}
		switch {
		case b == 0x1b:
			readEscape(br, out)
		case b == '\r':
			out <- key{kind: keyEnter}
			lastWasCR = true
		case b == '\n':
			out <- key{kind: keyEnter}
		case b == '\t':
			out <- key{kind: keyRune, r: ' '}
		case b < 0x20:
		case b < utf8.RuneSelf:
			out <- key{kind: keyRune, r: rune(b)}
		default:
			_ = br.UnreadByte()
			rn, _, err := br.ReadRune()
			if err != nil {
				return
			}
			out <- key{kind: keyRune, r: rn}
		}
	}
}

func readEscape(br *bufio.Reader, out chan<- key) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case '[':
		readCSI(br, out)
	case 'O':
		readSS3(br, out)
	case 'b', 'B':
		out <- key{kind: keyAltB}
	case 'f', 'F':
		out <- key{kind: keyAltF}
	}
}

var csiKeys = map[string]keyKind{
	"A":  keyUp,
	"B":  keyDown,
	"C":  keyRight,
	"D":  keyLeft,
	"H":  keyHome,
	"F":  keyEnd,
	"1~": keyHome,
	"4~": keyEnd,
	"3~": keyDelete,
	"5~": keyPageUp,
	"6~": keyPageDown,
}

func readCSI(br *bufio.Reader, out chan<- key) {
	seq := make([]byte, 0, 4)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return
		}
		seq = append(seq, b)
		if b == '~' || unicode.IsLetter(rune(b)) {
			break
		}
		if len(seq) > 8 {
			return
		}
	}
	if kind, ok := csiKeys[string(seq)]; ok {
		out <- key{kind: kind}
	}
}

func readSS3(br *bufio.Reader, out chan<- key) {
	b, err := br.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case 'H':
		out <- key{kind: keyHome}
	case 'F':
		out <- key{kind: keyEnd}
	}
}

// lineEditor is a single-line input buffer with a rune cursor.
type lineEditor struct {
	buf    []rune
	cursor int
}

func (e *lineEditor) String() string {
	return string(e.buf)
}

func (e *lineEditor) Len() int {
	return len(e.buf)
}

func (e *lineEditor) Clear() {
	e.buf = nil
	e.cursor = 0
}

func (e *lineEditor) SetString(value string) {
	e.buf = []rune(value)
	e.cursor = len(e.buf)
}

func (e *lineEditor) InsertRune(r rune) {
	e.cursor = clampCursor(e.cursor, len(e.buf))
	e.buf = append(e.buf, 0)
	copy(e.buf[e.cursor+1:], e.buf[e.cursor:])
	e.buf[e.cursor] = r
	e.cursor++
}

func (e *lineEditor) Backspace() {
	if e.cursor <= 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

func (e *lineEditor) Delete() {
	if e.cursor < 0 || e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

func (e *lineEditor) MoveLeft() {
	if e.cursor > 0 {
		e.cursor--
	}
}

func (e *lineEditor) MoveRight() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

func (e *lineEditor) MoveStart() {
	e.cursor = 0
}

func (e *lineEditor) MoveEnd() {
	e.cursor = len(e.buf)
}

func (e *lineEditor) wordStart() int {
	i := e.cursor
	for i > 0 && isSpace(e.buf[i-1]) {
		i--
	}
	for i > 0 && !isSpace(e.buf[i-1]) {
		i--
	}
	return i
}

func (e *lineEditor) MoveWordLeft() {
	e.cursor = e.wordStart()
}

func (e *lineEditor) MoveWordRight() {
	i := e.cursor
	for i < len(e.buf) && isSpace(e.buf[i]) {
		i++
	}
	for i < len(e.buf) && !isSpace(e.buf[i]) {
		i++
	}
	e.cursor = i
}

func (e *lineEditor) DeleteWordBackward() {
	start := e.wordStart()
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
}

func (e *lineEditor) KillLineStart() {
	e.buf = append([]rune(nil), e.buf[e.cursor:]...)
	e.cursor = 0
}

func (e *lineEditor) KillLineEnd() {
	e.buf = e.buf[:e.cursor]
}

func clampCursor(cursor, n int) int {
	if cursor < 0 {
		return 0
	}
	if cursor > n {
		return n
	}
	return cursor
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
