package models

import (
	"fmt"
	"regexp"
	"strings"
)

// AutomationMatch pairs a candidate automation with the trigger node
// that matched the event. TriggerNode is nil when the automation was
// matched through the legacy triggerType path.
type AutomationMatch struct {
	Automation  *Automation `json:"automation"`
	TriggerNode *Node       `json:"triggerNode,omitempty"`
}

// ResolvePath traverses a payload map along a dotted path. The second
// return value reports whether every segment resolved.
func ResolvePath(payload map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")

	var current any = payload

	for _, segment := range segments {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = asMap[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// MatchesPayload applies a trigger node's payloadMatch filter to an
// event payload. Every declared key must resolve and match (logical
// AND); a string expectation wrapped in "/.../" is treated as a regular
// expression over the resolved value. An absent filter matches
// unconditionally.
func (n *Node) MatchesPayload(payload map[string]any) bool {
	if len(n.PayloadMatch) == 0 {
		return true
	}

	for path, expected := range n.PayloadMatch {
		actual, ok := ResolvePath(payload, path)
		if !ok {
			return false
		}

		if pattern, ok := regexExpectation(expected); ok {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false
			}

			if !re.MatchString(fmt.Sprintf("%v", actual)) {
				return false
			}

			continue
		}

		if fmt.Sprintf("%v", actual) != fmt.Sprintf("%v", expected) {
			return false
		}
	}

	return true
}

// regexExpectation unwraps "/pattern/" string expectations.
func regexExpectation(expected any) (string, bool) {
	s, ok := expected.(string)
	if !ok {
		return "", false
	}

	if len(s) < 2 || !strings.HasPrefix(s, "/") || !strings.HasSuffix(s, "/") {
		return "", false
	}

	return s[1 : len(s)-1], true
}

// ContainsKeyword reports whether any keyword appears as a whole word in
// the message, case-insensitively.
func ContainsKeyword(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}

		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			continue
		}

		if re.MatchString(message) {
			return true
		}
	}

	return false
}
