package portalauth

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Saraswati-Portal/portalauth/session"
)

// Client runs the portal's identity flows against the backend and owns the
// process's session slot. Construct it with [Builder.Build]; zero-value
// Clients return [ErrClientNotReady] from every flow.
type Client struct {
	config     Config
	baseURL    *url.URL
	httpClient *http.Client
	sessions   session.Store
	otpLimiter otpLimiter
	audit      *auditDispatcher
	metrics    *Metrics
}

func (c *Client) ready() bool {
	return c != nil && c.baseURL != nil && c.httpClient != nil && c.sessions != nil && c.otpLimiter != nil
}

// Sessions returns the session store owned by the client.
func (c *Client) Sessions() session.Store {
	if c == nil {
		return nil
	}
	return c.sessions
}

// Close drains and stops the audit dispatcher.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.audit != nil {
		c.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped under backpressure.
func (c *Client) AuditDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) observe(id MetricID, d time.Duration) {
	if c == nil {
		return
	}
	c.metrics.Observe(id, d)
}

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	flowErr error,
	metadata func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Email:     email,
		Success:   success,
	}
	if flowErr != nil {
		event.Error = flowErr.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	c.audit.Emit(ctx, event)
}
