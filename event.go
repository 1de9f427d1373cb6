package ralink

import (
	"fmt"
	"net"
)

// An EventKind identifies the kind of an Event.
type EventKind int

// Possible EventKind values.
const (
	EventAssociated EventKind = iota + 1
	EventDisassociated
	EventMICFailure
	EventAssociationInfo
	EventPMKIDCandidate
	EventScanResults
	EventInterfaceStatus
)

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	switch k {
	case EventAssociated:
		return "associated"
	case EventDisassociated:
		return "disassociated"
	case EventMICFailure:
		return "mic_failure"
	case EventAssociationInfo:
		return "association_info"
	case EventPMKIDCandidate:
		return "pmkid_candidate"
	case EventScanResults:
		return "scan_results"
	case EventInterfaceStatus:
		return "interface_status"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// An Event is a normalized driver notification. Only the fields relevant
// to Kind are set.
type Event struct {
	Kind EventKind

	// Unicast is set for EventMICFailure when the failure was reported for
	// a pairwise key.
	Unicast bool

	// ReqIEs and RespIEs are the association request and response IEs of
	// EventAssociationInfo. RespIEs may be empty.
	ReqIEs  []byte
	RespIEs []byte

	// Candidate is set for EventPMKIDCandidate.
	Candidate PMKIDCandidate

	// Interface is the name of the interface added for
	// EventInterfaceStatus.
	Interface string
}

// A PMKIDCandidate is an access point the driver proposes for PMKSA caching
// or pre-authentication.
type PMKIDCandidate struct {
	BSSID   net.HardwareAddr
	Index   int
	Preauth bool
}

// A Handler consumes driver events. HandleEvent is never called while the
// Client holds internal locks, so a Handler may call back into the Client,
// including Close.
type Handler interface {
	HandleEvent(e Event)
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(e Event)

// HandleEvent implements Handler.
func (fn HandlerFunc) HandleEvent(e Event) { fn(e) }
