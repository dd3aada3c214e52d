// Package dto provides data transfer objects for requester/executor communication.
//
// This package defines the envelopes exchanged over the bridge channel and the
// status values the requester exposes to its host.
package dto

// Command names the requested action.
type Command = string

const (
	// CommandLoad asks the executor to load the interstitial for a resource ref.
	CommandLoad Command = "inter_ad_load"
	// CommandShow asks the executor to show an already loaded interstitial.
	CommandShow Command = "inter_ad_show"
)

// Request is sent by the requester.
type Request struct {
	Secret      string // Shared bridge token
	Command     Command
	ResourceRef string // Ad unit the command applies to
}

// Response is sent by the executor, at most once per inbound request.
type Response struct {
	Secret  string // Shared bridge token
	Command Command
	OK      bool
}

// Status is the last known outcome of a command on the requester side.
type Status int

const (
	// StatusUnknown means no response has been recorded yet.
	StatusUnknown Status = -1
	// StatusFailure means the last recorded outcome was a failure.
	StatusFailure Status = 0
	// StatusSuccess means the last recorded outcome was a success.
	StatusSuccess Status = 1
)

// StatusOf converts a boolean outcome into a Status.
func StatusOf(ok bool) Status {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

// Value returns the numbered-slot representation (1, 0 or -1).
func (s Status) Value() int {
	return int(s)
}

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Reason explains which path produced an executor reply.
type Reason string

const (
	ReasonHandled        Reason = "handled"
	ReasonUnknownCommand Reason = "unknown_command"
	ReasonRejectedByHook Reason = "rejected_by_hook"
	ReasonPanic          Reason = "panic"
	ReasonGuardDeadline  Reason = "guard_deadline"
)
