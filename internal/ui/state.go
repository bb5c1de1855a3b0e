package ui

// state is the view the console is showing.
type state int

const (
	stateDashboard state = iota
	stateHelp
)

func (s state) String() string {
	switch s {
	case stateDashboard:
		return "Dashboard"
	case stateHelp:
		return "Help"
	default:
		return "Unknown"
	}
}
