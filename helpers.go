package serialmon

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isStandardPortPattern reports whether the name looks like a typical serial
// device: COMn on Windows, /dev/tty* or /dev/cu* on Unix.
func isStandardPortPattern(portName string) bool {
	// Windows: COM1-COM999 (must have at least one digit after COM)
	if strings.HasPrefix(portName, "COM") && len(portName) >= 4 && len(portName) <= 6 {
		return true
	}
	// Unix/Linux: /dev/tty* or /dev/cu* (macOS), plus udev symlinks
	if strings.HasPrefix(portName, "/dev/tty") || strings.HasPrefix(portName, "/dev/cu") ||
		strings.HasPrefix(portName, "/dev/serial/") {
		return true
	}
	return false
}

// decodeRecord decodes a raw record as UTF-8 and trims surrounding
// whitespace, including the line terminator.
func decodeRecord(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", &DecodeError{Raw: append([]byte(nil), raw...), Offset: firstInvalid(raw)}
	}
	return strings.TrimFunc(string(raw), isRecordSpace), nil
}

// isRecordSpace is unicode.IsSpace plus the ASCII information separators
// FS, GS, RS and US, which devices use as padding.
func isRecordSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// truncationPoint returns where to cut b, which holds more than limit bytes
// and no terminator within them. The cut backs off to the start of a UTF-8
// character when limit falls inside one; invalid input is cut at limit.
func truncationPoint(b []byte, limit int) int {
	for cut := limit; cut > 0 && cut > limit-utf8.UTFMax; cut-- {
		if utf8.RuneStart(b[cut]) {
			return cut
		}
	}
	return limit
}

func firstInvalid(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}

// indexByte is a small helper to avoid importing bytes for single-byte search.
func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
