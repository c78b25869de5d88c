package booking

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewConfirmationCode builds a human-shareable appointment code of the form
// SC-<base36 millisecond timestamp>-<4 random base36 chars>. The timestamp
// component keeps codes unique across sessions, the suffix across
// same-instant bookings.
func NewConfirmationCode(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return "SC-" + ts + "-" + string(suffix)
}
