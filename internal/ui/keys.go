package ui

type action int

const (
	actionNone action = iota
	actionQuit
	actionUp
	actionDown
	actionPageUp
	actionPageDown
	actionTop
	actionBottom
	actionExpand
	actionCollapse
	actionClear
	actionExpandAll
	actionCollapseAll
)

// keyActions maps key strings to browser actions. Anything else goes to the
// filter input, so printable keys are never bound here.
var keyActions = map[string]action{
	"ctrl+c": actionQuit,
	"up":     actionUp,
	"down":   actionDown,
	"pgup":   actionPageUp,
	"pgdown": actionPageDown,
	"home":   actionTop,
	"end":    actionBottom,
	"right":  actionExpand,
	"enter":  actionExpand,
	"left":   actionCollapse,
	"esc":    actionClear,
	"ctrl+e": actionExpandAll,
	"ctrl+w": actionCollapseAll,
}
