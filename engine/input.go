package engine

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
)

// action is what a key press does to the running engine.
type action int

const (
	actionNone action = iota
	actionDebugView
	actionToggleLighting
	actionMoveLight
	actionQuit
)

// keyBinding is the resolved meaning of one key.
type keyBinding struct {
	action action

	// view is set for actionDebugView.
	view pass.DebugView

	// dir is the unit light offset for actionMoveLight, scaled by the light step.
	dir [3]float32
}

// bindKey maps a key code to its binding. Unbound keys return actionNone.
//
// Parameters:
//   - keyCode: the virtual key code from the window
//
// Returns:
//   - keyBinding: the binding for the key
func bindKey(keyCode uint32) keyBinding {
	switch {
	case keyCode >= common.Key1 && keyCode <= common.Key5:
		return keyBinding{action: actionDebugView, view: pass.DebugView(keyCode - common.Key1)}
	}

	switch keyCode {
	case common.KeyL:
		return keyBinding{action: actionToggleLighting}
	case common.KeyLeft:
		return keyBinding{action: actionMoveLight, dir: [3]float32{-1, 0, 0}}
	case common.KeyRight:
		return keyBinding{action: actionMoveLight, dir: [3]float32{1, 0, 0}}
	case common.KeyUp:
		return keyBinding{action: actionMoveLight, dir: [3]float32{0, 0, -1}}
	case common.KeyDown:
		return keyBinding{action: actionMoveLight, dir: [3]float32{0, 0, 1}}
	case common.KeyPageUp:
		return keyBinding{action: actionMoveLight, dir: [3]float32{0, 1, 0}}
	case common.KeyPageDown:
		return keyBinding{action: actionMoveLight, dir: [3]float32{0, -1, 0}}
	case common.KeyEsc:
		return keyBinding{action: actionQuit}
	}
	return keyBinding{action: actionNone}
}
