package codec

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Base62 with digits ordered 0-9, a-z, A-Z. The digit order is part of the
// wire format: codes already handed out decode only under this alphabet.
const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	base     = 62
)

// ErrInvalidCode is returned by Decode for codes containing characters
// outside the base62 alphabet.
var ErrInvalidCode = errors.New("invalid short code format")

// Encode converts a non-negative id to its base62 code. No padding, no
// leading zero digits beyond Encode(0) == "0". Ids come from a database
// sequence and are never negative; anything below zero clamps to "0".
func Encode(id int64) string {
	if id <= 0 {
		return string(alphabet[0])
	}

	var buf [11]byte // enough for max int64 in base62
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = alphabet[id%base]
		id /= base
	}

	return string(buf[i:])
}

// Decode is the inverse of Encode. Unknown characters fail with
// ErrInvalidCode rather than being folded into some digit.
func Decode(code string) (int64, error) {
	if code == "" {
		return 0, fmt.Errorf("%w: empty code", ErrInvalidCode)
	}

	var id int64
	for _, c := range code {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("%w: unexpected character %q", ErrInvalidCode, c)
		}
		if id > (math.MaxInt64-int64(idx))/base {
			return 0, fmt.Errorf("%w: code too long", ErrInvalidCode)
		}
		id = id*base + int64(idx)
	}

	return id, nil
}
