// Package actions parses and runs the small page-interaction language used
// to prepare a page before recording, e.g.
//
//	scroll:500,click:#accept,wait:1000,type:#q:hello,js:document.body.classList.add('dark')
package actions

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Action is one page interaction. The set of implementations is closed.
type Action interface {
	// Name is the keyword the action is written with.
	Name() string
	isAction()
}

// Scroll smooth-scrolls the window to an absolute offset.
type Scroll struct{ Y int }

// Click waits for a selector and clicks it.
type Click struct{ Selector string }

// Wait pauses for a fixed duration.
type Wait struct{ Duration time.Duration }

// Hover waits for a selector and moves the pointer over it.
type Hover struct{ Selector string }

// TypeText waits for a selector and types text into it.
type TypeText struct{ Selector, Text string }

// RunScript evaluates JavaScript in the page.
type RunScript struct{ Code string }

// WaitForSelector waits for a selector to appear.
type WaitForSelector struct{ Selector string }

func (Scroll) Name() string          { return "scroll" }
func (Click) Name() string           { return "click" }
func (Wait) Name() string            { return "wait" }
func (Hover) Name() string           { return "hover" }
func (TypeText) Name() string        { return "type" }
func (RunScript) Name() string       { return "js" }
func (WaitForSelector) Name() string { return "waitfor" }

func (Scroll) isAction()          {}
func (Click) isAction()           {}
func (Wait) isAction()            {}
func (Hover) isAction()           {}
func (TypeText) isAction()        {}
func (RunScript) isAction()       {}
func (WaitForSelector) isAction() {}

// DefaultWait is used when a wait action has no valid duration.
const DefaultWait = 1000 * time.Millisecond

// Parse turns a comma-separated action list into actions. Commas inside
// quotes, parentheses, brackets or braces do not split. Unknown or
// malformed entries are logged and skipped.
func Parse(s string) []Action {
	var out []Action
	for _, item := range splitTopLevel(s) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		kind, value := splitFirst(item, ":")
		a, ok := parseOne(kind, value)
		if !ok {
			log.Warn().Str("action", item).Msg("Skipping unknown or malformed page action")
			continue
		}
		out = append(out, a)
	}
	return out
}

func parseOne(kind, value string) (Action, bool) {
	switch kind {
	case "scroll":
		y, _ := strconv.Atoi(value)
		return Scroll{Y: y}, true
	case "click":
		return Click{Selector: value}, value != ""
	case "wait":
		ms, err := strconv.Atoi(value)
		if err != nil || ms <= 0 {
			return Wait{Duration: DefaultWait}, true
		}
		return Wait{Duration: time.Duration(ms) * time.Millisecond}, true
	case "hover":
		return Hover{Selector: value}, value != ""
	case "type":
		sel, text := splitFirst(value, ":")
		return TypeText{Selector: sel, Text: text}, sel != ""
	case "js":
		return RunScript{Code: value}, value != ""
	case "waitfor":
		return WaitForSelector{Selector: value}, value != ""
	default:
		return nil, false
	}
}

// splitFirst splits on the first sep and trims both halves.
func splitFirst(s, sep string) (string, string) {
	before, after, found := strings.Cut(s, sep)
	if !found {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
