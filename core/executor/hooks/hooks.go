// Package hooks provides an extensible hook system for the executor.
//
// Hooks see every authenticated request before it is dispatched and every
// reply after it has been handed to the channel. A request hook can veto a
// request; the requester then receives a failure reply.
package hooks

import (
	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/core/dto"
)

// DefaultHook provides the default logging behavior
type DefaultHook struct{}

// NewDefaultHook creates a new default hook instance
func NewDefaultHook() *DefaultHook {
	return &DefaultHook{}
}

// OnRequest implements the Hook interface for inbound requests
func (h *DefaultHook) OnRequest(req *dto.Request) bool {
	log.WithFields(log.Fields{"command": req.Command, "ref": req.ResourceRef}).Info("recv")
	return true
}

// OnReply implements the Hook interface for sent replies
func (h *DefaultHook) OnReply(resp *dto.Response, reason dto.Reason) {
	log.WithFields(log.Fields{"command": resp.Command, "ok": resp.OK, "reason": reason}).Debug("reply hook")
}
