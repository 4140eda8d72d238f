package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yatube/internal/model"
)

// Mutation outcomes
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_mutations_total",
		Help: "Total number of mutating operations by outcome",
	}, []string{"operation", "outcome"})

	feedQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_feed_query_duration_seconds",
		Help:    "Time spent building one feed page",
		Buckets: prometheus.DefBuckets,
	}, []string{"feed"})

	indexCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_index_cache_total",
		Help: "Index page cache lookups by result",
	}, []string{"result"})

	imageCleanupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_image_cleanup_total",
		Help: "Discarded images processed by the workers",
	}, []string{"outcome"})
)

// Outcome classifies err for the mutation counter.
func Outcome(err error) string {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &verr):
		return OutcomeInvalid
	case errors.Is(err, model.ErrIdentityRequired), errors.Is(err, model.ErrNotPostAuthor):
		return OutcomeDenied
	case errors.Is(err, model.ErrUserNotFound), errors.Is(err, model.ErrPostNotFound), errors.Is(err, model.ErrGroupNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// ObserveMutation counts one call of operation.
func ObserveMutation(operation string, err error) {
	mutationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveFeed records how long the named feed took since start.
func ObserveFeed(feed string, start time.Time) {
	feedQueryDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

func CacheHit()  { indexCacheTotal.WithLabelValues("hit").Inc() }
func CacheMiss() { indexCacheTotal.WithLabelValues("miss").Inc() }

// ObserveImageCleanup counts one background image deletion.
func ObserveImageCleanup(err error) {
	if err != nil {
		imageCleanupTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	imageCleanupTotal.WithLabelValues(OutcomeOK).Inc()
}
