package batch

// messages.go translates persistence-layer errors into the short messages
// recorded on result rows. Patterns are matched case-insensitively and the
// first match wins, so specific patterns come before general ones.

import "strings"

type errorPattern struct {
	pattern string
	message string
}

var errorPatterns = []errorPattern{
	{"duplicate key", "a record with this key already exists"},
	{"unique constraint", "a duplicate value was found"},
	{"violates unique", "a duplicate value was found"},
	{"foreign key constraint", "referenced record does not exist"},
	{"violates foreign key", "referenced record does not exist"},
	{"connection refused", "storage unavailable, try again later"},
	{"connection reset", "storage connection was interrupted"},
	{"context deadline exceeded", "operation timed out"},
	{"context canceled", "operation was cancelled"},
}

// rowMessage maps a persistence error to a row error message. Errors with
// no known pattern keep their original text; row errors end up in the
// result file, so the raw message is more useful than a generic fallback.
func rowMessage(err error) string {
	if err == nil {
		return ""
	}
	lower := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(lower, ep.pattern) {
			return ep.message
		}
	}
	return err.Error()
}
