package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_operations_total",
			Help: "Total ticket operations by outcome",
		},
		[]string{"operation", "status"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_operation_duration_seconds",
			Help:    "Duration of ticket operations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"operation"},
	)

	attendanceMarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_marked_total",
			Help: "Attendance records written per event",
		},
		[]string{"event_id"},
	)

	activeTicketLocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_locks_active",
			Help: "Ticket locks currently held in Redis",
		},
	)
)

const lockKeyPattern = "lock:ticket:*"

type Monitor struct {
	redis *redis.Client
}

// NewMonitor returns a monitor. redisClient may be nil, in which case lock
// collection is skipped.
func NewMonitor(redisClient *redis.Client) *Monitor {
	return &Monitor{redis: redisClient}
}

// Run collects Redis backed gauges every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if m.redis == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.collectLockMetrics(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to collect lock metrics")
			}
		}
	}
}

func (m *Monitor) collectLockMetrics(ctx context.Context) error {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := m.redis.Scan(ctx, cursor, lockKeyPattern, 100).Result()
		if err != nil {
			return err
		}
		count += len(keys)
		if next == 0 {
			break
		}
		cursor = next
	}
	activeTicketLocks.Set(float64(count))
	return nil
}

// TrackOperation records the outcome and duration of one operation.
func (m *Monitor) TrackOperation(operation, status string, duration time.Duration) {
	ticketOperations.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Monitor) TrackAttendance(eventID string, marked int) {
	attendanceMarked.WithLabelValues(eventID).Add(float64(marked))
}
