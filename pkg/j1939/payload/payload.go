// Package payload converts message payloads to and from the hex text used by logs and capture files.
package payload

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty     = errors.New("empty payload")
	ErrOddLength = errors.New("odd number of hex digits")
)

// separators that may appear between bytes
var separators = strings.NewReplacer(" ", "", "\t", "", ":", "", "-", "", ".", "")

// ParseHex decodes a single payload. Accepted forms are "0078780000000000", "00 78 78 00",
// "00:78:78:00" and any of those prefixed with 0x.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	s = separators.Replace(s)
	if s == "" {
		return nil, ErrEmpty
	}
	if len(s)%2 != 0 {
		return nil, ErrOddLength
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid payload %q: %w", s, err)
	}
	return b, nil
}

// FormatHex renders b as uppercase hex bytes separated by spaces.
func FormatHex(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	return sb.String()
}
