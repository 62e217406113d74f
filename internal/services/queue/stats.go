package queue

import "fmt"

// QueueStats combines the broker's view of the event queue with this
// process's publish counters.
type QueueStats struct {
	Name      string `json:"name"`
	Messages  int    `json:"messages"`
	Consumers int    `json:"consumers"`
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
}

func (q *QueueService) GetQueueStats() (*QueueStats, error) {
	if q.channel == nil {
		return nil, fmt.Errorf("channel not available")
	}

	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect queue: %w", err)
	}

	return &QueueStats{
		Name:      info.Name,
		Messages:  info.Messages,
		Consumers: info.Consumers,
		Published: q.published.Load(),
		Failed:    q.failed.Load(),
	}, nil
}

// HealthCheck reports whether flyer events can be published.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	default:
		return "healthy"
	}
}
