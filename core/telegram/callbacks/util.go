// Package callbacks decodes inline-button callback payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// uniqueMarker prefixes callback data produced by buttons that carry a telebot unique.
const uniqueMarker = "\f"

// Sep separates the key of a callback payload from its arguments.
const Sep = "|"

// ParseCallbackData splits callback data into its key and the remaining payload.
// Both "\f<unique>|<payload>" and plain "<key>|<payload>" forms are accepted.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, uniqueMarker)
	parts := strings.SplitN(raw, Sep, 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// CallbackKey returns the routing key of the current callback.
func CallbackKey(c tele.Context) string {
	k, _ := ParseCallbackData(c.Callback())
	return k
}

// CallbackData returns the full callback data with any unique marker removed,
// suitable for decoding as a single token.
func CallbackData(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + Sep + cb.Data
	}
	return strings.TrimPrefix(cb.Data, uniqueMarker)
}
