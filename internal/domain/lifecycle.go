package domain

// Status represents the negotiation state of a quote.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusSent            Status = "sent"
	StatusPendingResponse Status = "pending_response"
	StatusAccepted        Status = "accepted"
	StatusRejected        Status = "rejected"
	StatusCountered       Status = "countered"
	StatusExpired         Status = "expired"
)

// Statuses lists every quote status in lifecycle order.
var Statuses = []Status{
	StatusDraft,
	StatusSent,
	StatusPendingResponse,
	StatusAccepted,
	StatusRejected,
	StatusCountered,
	StatusExpired,
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s closes the negotiation. Countered is not
// terminal even though no transition leaves it yet.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// AwaitsVendor reports whether a vendor response can be recorded from s.
func (s Status) AwaitsVendor() bool {
	return s == StatusSent || s == StatusPendingResponse
}

// Action represents something that moves a quote between statuses.
type Action string

const (
	ActionSend        Action = "send"
	ActionAcknowledge Action = "acknowledge"
	ActionAccept      Action = "accept"
	ActionReject      Action = "reject"
	ActionCounter     Action = "counter"
	ActionExpire      Action = "expire"

	// ActionUpdateDetails and ActionUpdateOffer never change status; they
	// only appear in errors.
	ActionUpdateDetails Action = "update_details"
	ActionUpdateOffer   Action = "update_offer"
)

// Transition defines a valid state change: an action moves a quote from Src to Dst.
type Transition struct {
	Action Action
	Src    Status
	Dst    Status
}

// Transitions defines all valid state changes in the quote lifecycle.
// Nothing leaves countered, accepted, rejected or expired.
var Transitions = []Transition{
	{Action: ActionSend, Src: StatusDraft, Dst: StatusSent},
	{Action: ActionAcknowledge, Src: StatusSent, Dst: StatusPendingResponse},
	{Action: ActionAccept, Src: StatusSent, Dst: StatusAccepted},
	{Action: ActionAccept, Src: StatusPendingResponse, Dst: StatusAccepted},
	{Action: ActionReject, Src: StatusSent, Dst: StatusRejected},
	{Action: ActionReject, Src: StatusPendingResponse, Dst: StatusRejected},
	{Action: ActionCounter, Src: StatusSent, Dst: StatusCountered},
	{Action: ActionCounter, Src: StatusPendingResponse, Dst: StatusCountered},
	{Action: ActionExpire, Src: StatusSent, Dst: StatusExpired},
	{Action: ActionExpire, Src: StatusPendingResponse, Dst: StatusExpired},
}
