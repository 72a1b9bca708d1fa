package upnp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GENA request methods. Not part of the standard net/http method set.
const (
	MethodSubscribe   = "SUBSCRIBE"
	MethodUnsubscribe = "UNSUBSCRIBE"
	MethodNotify      = "NOTIFY"
)

// GENA header names.
const (
	HeaderSID      = "SID"
	HeaderSEQ      = "SEQ"
	HeaderNT       = "NT"
	HeaderNTS      = "NTS"
	HeaderCallback = "CALLBACK"
	HeaderTimeout  = "TIMEOUT"
)

// Required header values on event notifications.
const (
	NTEvent       = "upnp:event"
	NTSPropChange = "upnp:propchange"
)

// FormatTimeout renders a lease duration as a GENA TIMEOUT header value,
// e.g. "Second-1800". Sub-second durations round up to one second.
func FormatTimeout(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("Second-%d", secs)
}

// ParseTimeout parses a GENA TIMEOUT header value ("Second-1800" or
// "infinite"). An infinite grant is reported as zero with ok=false so
// the caller can substitute its own requested duration.
func ParseTimeout(v string) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "infinite") {
		return 0, false
	}
	rest, found := strings.CutPrefix(strings.ToLower(v), "second-")
	if !found {
		return 0, false
	}
	secs, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// ParseSeq parses a SEQ header value. GENA sequence numbers start at 0
// for the initial event on a lease and increment by one per notification.
func ParseSeq(v string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid SEQ %q: %w", v, err)
	}
	return uint32(n), nil
}
