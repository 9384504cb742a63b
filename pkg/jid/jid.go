package jid

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	suffixUser   = "@s.whatsapp.net"
	suffixLegacy = "@c.us"
	suffixGroup  = "@g.us"
)

// IsGroup reports whether the identifier addresses a group chat.
func IsGroup(id string) bool {
	return strings.HasSuffix(id, suffixGroup)
}

// Normalize converts a gateway JID into the key used to store
// conversations. Group identifiers are kept verbatim. Everything else is
// reduced to its digits; Colombian numbers (country code 57 followed by
// at least nine more digits) get a leading "+" to match existing keys.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || IsGroup(id) {
		return id
	}

	base := id
	if at := strings.Index(id, "@"); at >= 0 {
		base = id[:at]
		suffix := id[at:]
		if suffix != suffixUser && suffix != suffixLegacy {
			logrus.Warnf("[JID] Unexpected domain suffix %q on %q, normalizing anyway", suffix, id)
		}
	}

	digits := keepDigits(base)
	if strings.HasPrefix(digits, "57") && len(digits) >= 11 {
		return "+" + digits
	}
	return digits
}

func keepDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
