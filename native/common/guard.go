package common

import (
	"errors"
	"sort"
	"strings"
)

var ErrModulePaused = errors.New("module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView keyed by lower-case module name.
type PauseSet map[string]bool

// IsPaused implements PauseView.
func (s PauseSet) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	return s[normalize(module)]
}

// Set toggles the pause flag for a module.
func (s PauseSet) Set(module string, paused bool) {
	key := normalize(module)
	if key == "" {
		return
	}
	if paused {
		s[key] = true
		return
	}
	delete(s, key)
}

// Modules lists the paused modules in sorted order.
func (s PauseSet) Modules() []string {
	out := make([]string, 0, len(s))
	for module, paused := range s {
		if paused {
			out = append(out, module)
		}
	}
	sort.Strings(out)
	return out
}

func normalize(module string) string {
	return strings.ToLower(strings.TrimSpace(module))
}
