package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/xmrchart/internal/analytics/xmr"
)

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("notify: publisher closed")

// SignalEvent reports special-cause variation on the latest point of a metric.
type SignalEvent struct {
	ID        string       `json:"id"`
	Metric    string       `json:"metric"`
	Date      time.Time    `json:"date"`
	Value     float64      `json:"value"`
	Signals   []xmr.Signal `json:"signals"`
	Primary   xmr.Signal   `json:"primary"`
	Sloped    bool         `json:"sloped"`
	Limits    EventLimits  `json:"limits"`
	EmittedAt time.Time    `json:"emitted_at"`
}

// EventLimits are the process limits and the bounds at the flagged point
type EventLimits struct {
	AvgX   float64 `json:"avg_x"`
	UNPL   float64 `json:"unpl"`
	LNPL   float64 `json:"lnpl"`
	URL    float64 `json:"url"`
	Center float64 `json:"center"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
}

// Notifier turns analysis results into events on <prefix>.<metric>.
type Notifier struct {
	publisher Publisher
	prefix    string
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// NewNotifier creates a notifier. A timeout <= 0 leaves ctx as given.
func NewNotifier(publisher Publisher, subjectPrefix string, timeout time.Duration) *Notifier {
	return &Notifier{
		publisher: publisher,
		prefix:    subjectPrefix,
		timeout:   timeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Subject returns the subject events for metric are published to
func (n *Notifier) Subject(metric string) string {
	if metric == "" {
		metric = "adhoc"
	}
	return n.prefix + "." + sanitizeSubjectToken(metric)
}

// Event builds the event for result's latest point. It reports false when
// the latest point carries no signal.
func (n *Notifier) Event(metric string, result *xmr.Result) (SignalEvent, bool) {
	latest, ok := result.Latest()
	if !ok || !latest.HasSignal {
		return SignalEvent{}, false
	}

	primary, _ := latest.Primary()
	bounds := result.Lines().At(len(result.Points) - 1)

	return SignalEvent{
		ID:      n.newID(),
		Metric:  metric,
		Date:    latest.Time,
		Value:   latest.Value,
		Signals: append([]xmr.Signal(nil), latest.Signals...),
		Primary: primary,
		Sloped:  result.Sloped(),
		Limits: EventLimits{
			AvgX:   result.Limits.AvgX,
			UNPL:   result.Limits.UNPL,
			LNPL:   result.Limits.LNPL,
			URL:    result.Limits.URL,
			Center: bounds.CL,
			Upper:  bounds.UCL,
			Lower:  bounds.LCL,
		},
		EmittedAt: n.now().UTC(),
	}, true
}

// Notify publishes an event when the latest point of result has a signal.
// It returns nil and no error when there was nothing to publish.
func (n *Notifier) Notify(ctx context.Context, metric string, result *xmr.Result) (*SignalEvent, error) {
	event, ok := n.Event(metric, result)
	if !ok {
		return nil, nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode signal event: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.publisher.Publish(ctx, n.Subject(metric), data); err != nil {
		return nil, err
	}
	return &event, nil
}

// Close closes the underlying publisher
func (n *Notifier) Close() error {
	return n.publisher.Close()
}

// sanitizeSubjectToken replaces characters that would split or wildcard a
// subject. Allowed: A-Z, a-z, 0-9, dash (-) and underscore (_)
func sanitizeSubjectToken(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
