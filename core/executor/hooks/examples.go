package hooks

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/io/journal"
)

// MetricsHook counts requests and replies
type MetricsHook struct {
	requestCount atomic.Uint64
	okCount      atomic.Uint64
	failCount    atomic.Uint64
	startTime    time.Time
}

// NewMetricsHook creates a new metrics hook
func NewMetricsHook() *MetricsHook {
	return &MetricsHook{
		startTime: time.Now(),
	}
}

// OnRequest increments the request counter
func (m *MetricsHook) OnRequest(req *dto.Request) bool {
	n := m.requestCount.Add(1)
	log.WithFields(log.Fields{
		"command":       req.Command,
		"request_count": n,
		"uptime":        time.Since(m.startTime),
	}).Debug("Metrics: request")
	return true
}

// OnReply increments the ok or fail counter
func (m *MetricsHook) OnReply(resp *dto.Response, reason dto.Reason) {
	if resp.OK {
		m.okCount.Add(1)
	} else {
		m.failCount.Add(1)
	}
}

// GetStats returns requests seen, successful and failed replies, and uptime
func (m *MetricsHook) GetStats() (uint64, uint64, uint64, time.Duration) {
	return m.requestCount.Load(), m.okCount.Load(), m.failCount.Load(), time.Since(m.startTime)
}

// ValidationHook rejects oversized requests
type ValidationHook struct {
	maxCommandLength int
	maxRefLength     int
}

// NewValidationHook creates a new validation hook
func NewValidationHook(maxCommandLength, maxRefLength int) *ValidationHook {
	return &ValidationHook{
		maxCommandLength: maxCommandLength,
		maxRefLength:     maxRefLength,
	}
}

// OnRequest validates the request
func (v *ValidationHook) OnRequest(req *dto.Request) bool {
	if len(req.Command) > v.maxCommandLength {
		log.Errorf("Command too long: %d > %d", len(req.Command), v.maxCommandLength)
		return false
	}

	if len(req.ResourceRef) > v.maxRefLength {
		log.Errorf("Resource ref too long: %d > %d", len(req.ResourceRef), v.maxRefLength)
		return false
	}

	return true
}

// OnReply is a no-op
func (v *ValidationHook) OnReply(resp *dto.Response, reason dto.Reason) {}

// JournalHook appends every reply to the reply journal
type JournalHook struct {
	journal *journal.Journal
	now     func() time.Time
}

// NewJournalHook creates a hook writing to j
func NewJournalHook(j *journal.Journal) *JournalHook {
	return &JournalHook{journal: j, now: time.Now}
}

// OnRequest always accepts
func (h *JournalHook) OnRequest(req *dto.Request) bool {
	return true
}

// OnReply records the reply
func (h *JournalHook) OnReply(resp *dto.Response, reason dto.Reason) {
	rec := journal.Record{
		Command: resp.Command,
		OK:      resp.OK,
		Reason:  string(reason),
		At:      h.now(),
	}
	if err := h.journal.Append(rec); err != nil {
		log.Errorf("failed to journal reply for %s: %v", resp.Command, err)
	}
}
