package hotkey

import (
	"fmt"
	"strings"
)

// Manager defines the interface for global hotkey management
type Manager interface {
	Register(accel string, callback func(pressed bool)) error
	Unregister(accel string) error
	Close() error
}

// Modifier is a set of modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Accelerator is a parsed hotkey such as "Ctrl+Shift+L".
type Accelerator struct {
	Modifiers Modifier
	Key       string // canonical key name, e.g. "Space", "L", "F5"
}

func (a Accelerator) String() string {
	var parts []string
	for _, m := range []struct {
		mod  Modifier
		name string
	}{{ModCtrl, "Ctrl"}, {ModShift, "Shift"}, {ModAlt, "Alt"}, {ModSuper, "Super"}} {
		if a.Modifiers&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	return strings.Join(append(parts, a.Key), "+")
}

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"super":   ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
	"win":     ModSuper,
}

var namedKeys = map[string]string{
	"space":     "Space",
	"enter":     "Return",
	"return":    "Return",
	"tab":       "Tab",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "BackSpace",
}

// ParseAccelerator parses strings such as "Alt+Space" or "ctrl+shift+l".
// Modifier and key names are case insensitive; exactly one non-modifier key
// is required.
func ParseAccelerator(s string) (Accelerator, error) {
	var a Accelerator
	if strings.TrimSpace(s) == "" {
		return a, fmt.Errorf("empty accelerator")
	}

	for _, part := range strings.Split(s, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			return Accelerator{}, fmt.Errorf("accelerator %q has an empty component", s)
		}
		if mod, ok := modifierNames[p]; ok {
			if a.Modifiers&mod != 0 {
				return Accelerator{}, fmt.Errorf("accelerator %q repeats modifier %q", s, part)
			}
			a.Modifiers |= mod
			continue
		}
		if a.Key != "" {
			return Accelerator{}, fmt.Errorf("accelerator %q has more than one key", s)
		}
		key, err := canonicalKey(p)
		if err != nil {
			return Accelerator{}, fmt.Errorf("accelerator %q: %w", s, err)
		}
		a.Key = key
	}

	if a.Key == "" {
		return Accelerator{}, fmt.Errorf("accelerator %q has no key", s)
	}
	return a, nil
}

func canonicalKey(p string) (string, error) {
	if k, ok := namedKeys[p]; ok {
		return k, nil
	}
	if len(p) == 1 && (p[0] >= 'a' && p[0] <= 'z' || p[0] >= '0' && p[0] <= '9') {
		return strings.ToUpper(p), nil
	}
	if len(p) >= 2 && len(p) <= 3 && p[0] == 'f' {
		var n int
		if _, err := fmt.Sscanf(p[1:], "%d", &n); err == nil && n >= 1 && n <= 12 {
			return fmt.Sprintf("F%d", n), nil
		}
	}
	return "", fmt.Errorf("unsupported key %q", p)
}
