package observability

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	activities      *CounterVec
	xpAwarded       *CounterVec
	levelUps        *Counter
	achievements    *CounterVec
	photos          *CounterVec
	photoFailures   *Counter
	lockConflicts   *Counter
	conflictRetries *Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

// Current returns the process metrics, or nil when disabled. Every method is
// safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sf_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sf_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("sf_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("sf_api_server_errors_total", "API responses with a 5xx status."),

		activities:      NewCounterVec("sf_activity_recorded_total", "Recorded activities by source and streak transition.", []string{"source", "transition"}),
		xpAwarded:       NewCounterVec("sf_xp_awarded_total", "XP awarded by source.", []string{"source"}),
		levelUps:        NewCounter("sf_level_ups_total", "Levels gained across all users."),
		achievements:    NewCounterVec("sf_achievements_earned_total", "Achievements earned by id.", []string{"achievement"}),
		photos:          NewCounterVec("sf_photos_stored_total", "Photo store calls by result.", []string{"result"}),
		photoFailures:   NewCounter("sf_photo_store_failures_total", "Photo writes that failed after all attempts."),
		lockConflicts:   NewCounter("sf_user_lock_conflicts_total", "Per-user lock waits that timed out."),
		conflictRetries: NewCounter("sf_progress_conflict_retries_total", "Progress updates retried after a version conflict."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.activities, m.xpAwarded, m.levelUps, m.achievements,
		m.photos, m.photoFailures, m.lockConflicts, m.conflictRetries,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveActivity(source, transition string, xp, levelsGained int) {
	if m == nil {
		return
	}
	m.activities.Inc(source, transition)
	if xp > 0 {
		m.xpAwarded.Add(float64(xp), source)
	}
	if levelsGained > 0 {
		m.levelUps.Add(float64(levelsGained))
	}
}

func (m *Metrics) ObserveXP(source string, xp, levelsGained int) {
	if m == nil {
		return
	}
	if xp > 0 {
		m.xpAwarded.Add(float64(xp), source)
	}
	if levelsGained > 0 {
		m.levelUps.Add(float64(levelsGained))
	}
}

func (m *Metrics) IncAchievementEarned(id string) {
	if m == nil {
		return
	}
	m.achievements.Inc(id)
}

func (m *Metrics) IncPhotoStored(duplicate bool) {
	if m == nil {
		return
	}
	if duplicate {
		m.photos.Inc("duplicate")
		return
	}
	m.photos.Inc("new")
}

func (m *Metrics) IncPhotoStoreFailure() {
	if m == nil {
		return
	}
	m.photoFailures.Inc()
}

func (m *Metrics) IncLockConflict() {
	if m == nil {
		return
	}
	m.lockConflicts.Inc()
}

func (m *Metrics) IncConflictRetry() {
	if m == nil {
		return
	}
	m.conflictRetries.Inc()
}
