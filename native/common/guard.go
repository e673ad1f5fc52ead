package common

import "errors"

// ErrModulePaused reports that governance halted the named lending module.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the per-module pause switches maintained by governance.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the named module is administratively paused.
// A nil view or empty module name leaves the call ungated.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
