package models

// RequestStatus is the approval state of an asset request as reported by the
// asset service.
type RequestStatus string

const (
	RequestStatusPendingLeader  RequestStatus = "PENDING_LEADER"
	RequestStatusLeaderApproved RequestStatus = "LEADER_APPROVED"
	RequestStatusLeaderRejected RequestStatus = "LEADER_REJECTED"
	RequestStatusPendingAM      RequestStatus = "PENDING_AM"
	RequestStatusAMApproved     RequestStatus = "AM_APPROVED"
	RequestStatusRejected       RequestStatus = "REJECTED"
	RequestStatusCancelled      RequestStatus = "CANCELLED"
)

// ColorToken is a semantic badge color understood by the front-end and the CLI.
type ColorToken string

const (
	ColorGold    ColorToken = "gold"
	ColorBlue    ColorToken = "blue"
	ColorCyan    ColorToken = "cyan"
	ColorGreen   ColorToken = "green"
	ColorRed     ColorToken = "red"
	ColorVolcano ColorToken = "volcano"
	ColorGray    ColorToken = "gray"
)

// UnknownStatusLabel and UnknownStatusColor are returned for values outside the
// known set; the asset service may introduce statuses before clients learn them.
const (
	UnknownStatusLabel            = "unknown status"
	UnknownStatusColor ColorToken = ColorGray
)

type statusDefinition struct {
	status   RequestStatus
	label    string
	color    ColorToken
	terminal bool
	next     []RequestStatus
}

// statusTable is the single source of truth for labels, colors and transitions.
// Order is declaration order and drives AllRequestStatuses.
var statusTable = []statusDefinition{
	{
		status: RequestStatusPendingLeader,
		label:  "Pending leader approval",
		color:  ColorGold,
		next:   []RequestStatus{RequestStatusLeaderApproved, RequestStatusLeaderRejected, RequestStatusCancelled},
	},
	{
		status: RequestStatusLeaderApproved,
		label:  "Approved by leader",
		color:  ColorCyan,
		next:   []RequestStatus{RequestStatusPendingAM, RequestStatusCancelled},
	},
	{
		status:   RequestStatusLeaderRejected,
		label:    "Rejected by leader",
		color:    ColorVolcano,
		terminal: true,
	},
	{
		status: RequestStatusPendingAM,
		label:  "Pending asset manager approval",
		color:  ColorBlue,
		next:   []RequestStatus{RequestStatusAMApproved, RequestStatusRejected, RequestStatusCancelled},
	},
	{
		status:   RequestStatusAMApproved,
		label:    "Approved by asset manager",
		color:    ColorGreen,
		terminal: true,
	},
	{
		status:   RequestStatusRejected,
		label:    "Rejected",
		color:    ColorRed,
		terminal: true,
	},
	{
		status:   RequestStatusCancelled,
		label:    "Cancelled",
		color:    ColorGray,
		terminal: true,
	},
}

var statusIndex = func() map[RequestStatus]statusDefinition {
	index := make(map[RequestStatus]statusDefinition, len(statusTable))
	for _, def := range statusTable {
		index[def.status] = def
	}
	return index
}()

// AllRequestStatuses returns every known status in declaration order.
func AllRequestStatuses() []RequestStatus {
	out := make([]RequestStatus, len(statusTable))
	for i, def := range statusTable {
		out[i] = def.status
	}
	return out
}

// Known reports whether s belongs to the closed status set.
func (s RequestStatus) Known() bool {
	_, ok := statusIndex[s]
	return ok
}

// Label returns the display label, or UnknownStatusLabel.
func (s RequestStatus) Label() string {
	if def, ok := statusIndex[s]; ok {
		return def.label
	}
	return UnknownStatusLabel
}

// Color returns the badge color token, or UnknownStatusColor.
func (s RequestStatus) Color() ColorToken {
	if def, ok := statusIndex[s]; ok {
		return def.color
	}
	return UnknownStatusColor
}

// IsTerminal reports whether no further transition is possible. Unknown
// statuses are not terminal.
func (s RequestStatus) IsTerminal() bool {
	if def, ok := statusIndex[s]; ok {
		return def.terminal
	}
	return false
}

// NextStatuses lists the statuses reachable in one step, including cancellation.
func (s RequestStatus) NextStatuses() []RequestStatus {
	def, ok := statusIndex[s]
	if !ok || len(def.next) == 0 {
		return nil
	}
	return append([]RequestStatus(nil), def.next...)
}

// CanTransition reports whether to is reachable from s in one step.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	def, ok := statusIndex[s]
	if !ok {
		return false
	}
	for _, next := range def.next {
		if next == to {
			return true
		}
	}
	return false
}
