package ledger

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const ticketAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTicketCode builds a human-presentable ticket code: a prefix, the
// creation instant in base 36, and six random alphanumerics. Uniqueness
// relies on the time component plus randomness; there is no lookup against
// storage.
func NewTicketCode(now time.Time) string {
	millis := now.UnixMilli()

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// timestamp low bits rather than failing ticket issuance.
		for i := range suffix {
			suffix[i] = byte(millis >> (i * 8))
		}
	}
	for i, b := range suffix {
		suffix[i] = ticketAlphabet[int(b)%len(ticketAlphabet)]
	}

	var sb strings.Builder
	sb.WriteString("TKT-")
	sb.WriteString(strings.ToUpper(strconv.FormatInt(millis, 36)))
	sb.WriteByte('-')
	sb.Write(suffix)
	return sb.String()
}
