package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/fsguard/internal/core/domain"
)

// ruleHeader matches `<action> <category> any any -> any any ( <options> )`.
var ruleHeader = regexp.MustCompile(`(?is)^\s*(\S+)\s+(\S+)\s+any\s+any\s+->\s+any\s+any\s*\((.*)\)\s*$`)

// option is a single key:value pair from the option block.
type option struct {
	key   string
	value string
}

// Parse converts rule text into a SecurityRule. The returned error is always a *domain.ParseError.
func Parse(text string) (domain.SecurityRule, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: "empty rule text"}
	}

	m := ruleHeader.FindStringSubmatch(trimmed)
	if m == nil {
		return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: "rule header does not match grammar"}
	}

	opts, err := parseOptions(m[3])
	if err != nil {
		return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: err.Error()}
	}

	rule := domain.SecurityRule{
		Action:   domain.ParseRuleAction(m[1]),
		Category: domain.ParseRuleCategory(m[2]),
		Revision: 1,
		Enabled:  true,
		Text:     trimmed,
	}

	sidSeen := false
	for _, o := range opts {
		switch o.key {
		case "msg":
			rule.Message = o.value
		case "content":
			rule.ContentPattern = o.value
		case "hash":
			rule.HashSpec = o.value
		case "behavior":
			rule.BehaviorTags = o.value
		case "action":
			rule.Action = domain.ParseRuleAction(o.value)
		case "sid":
			sid, err := strconv.Atoi(strings.TrimSpace(o.value))
			if err != nil {
				return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: fmt.Sprintf("sid %q is not numeric", o.value)}
			}
			rule.Sid = sid
			sidSeen = true
		case "rev":
			if rev, err := strconv.Atoi(strings.TrimSpace(o.value)); err == nil && rev > 0 {
				rule.Revision = rev
			}
		}
	}

	if !sidSeen {
		return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: "missing sid"}
	}
	if rule.Sid <= 0 {
		return domain.SecurityRule{}, &domain.ParseError{Text: text, Reason: "sid must be positive"}
	}

	return rule, nil
}

// parseOptions splits `key:value; key:"value";` into pairs. Keys are lowercased,
// quoted values are unescaped, and entries without a colon are dropped.
func parseOptions(body string) ([]option, error) {
	var (
		opts []option
		i    int
		n    = len(body)
	)

	for i < n {
		// skip separators
		for i < n && (body[i] == ';' || isSpace(body[i])) {
			i++
		}
		if i >= n {
			break
		}

		keyStart := i
		for i < n && body[i] != ':' && body[i] != ';' {
			i++
		}
		key := strings.ToLower(strings.TrimSpace(body[keyStart:i]))
		if i >= n || body[i] == ';' {
			// flag-style option without a value
			continue
		}
		i++ // ':'

		for i < n && isSpace(body[i]) {
			i++
		}

		var value string
		if i < n && body[i] == '"' {
			i++
			var sb strings.Builder
			closed := false
			for i < n {
				c := body[i]
				if c == '\\' && i+1 < n {
					sb.WriteByte(body[i+1])
					i += 2
					continue
				}
				if c == '"' {
					closed = true
					i++
					break
				}
				sb.WriteByte(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted value for %q", key)
			}
			value = sb.String()
			for i < n && body[i] != ';' {
				i++
			}
		} else {
			valStart := i
			for i < n && body[i] != ';' {
				i++
			}
			value = strings.TrimSpace(body[valStart:i])
		}

		if key != "" {
			opts = append(opts, option{key: key, value: value})
		}
	}

	return opts, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Format renders a rule back into canonical rule text.
func Format(rule domain.SecurityRule) string {
	var sb strings.Builder
	sb.WriteString(strings.ToLower(string(rule.Action)))
	sb.WriteByte(' ')
	sb.WriteString(strings.ToLower(string(rule.Category)))
	sb.WriteString(" any any -> any any (")

	writeQuoted := func(key, value string) {
		if value == "" {
			return
		}
		sb.WriteString(key)
		sb.WriteString(`:"`)
		sb.WriteString(escape(value))
		sb.WriteString(`"; `)
	}
	writeQuoted("msg", rule.Message)
	writeQuoted("content", rule.ContentPattern)
	writeQuoted("hash", rule.HashSpec)
	writeQuoted("behavior", rule.BehaviorTags)

	rev := rule.Revision
	if rev < 1 {
		rev = 1
	}
	fmt.Fprintf(&sb, "sid:%d; rev:%d;)", rule.Sid, rev)
	return sb.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
