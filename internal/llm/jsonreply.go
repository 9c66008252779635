package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONReply removes a Markdown code fence around a reply and, when the
// result still is not JSON, cuts out the first balanced top-level object.
func CleanJSONReply(reply string) string {
	reply = strings.TrimSpace(reply)

	if strings.HasPrefix(reply, "```") && strings.HasSuffix(reply, "```") && len(reply) >= 6 {
		reply = strings.TrimSuffix(strings.TrimPrefix(reply, "```"), "```")
		// Drop the info string ("json", "JSON", ...) on the opening line.
		if nl := strings.IndexByte(reply, '\n'); nl >= 0 && !strings.ContainsAny(reply[:nl], "{[") {
			reply = reply[nl+1:]
		}
		reply = strings.TrimSpace(reply)
	}

	if json.Valid([]byte(reply)) {
		return reply
	}
	if obj, ok := firstObject(reply); ok {
		return obj
	}
	return reply
}

// firstObject returns the first brace-balanced {...} span, skipping braces
// inside string literals.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}
