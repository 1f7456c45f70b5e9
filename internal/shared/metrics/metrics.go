package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	feedbackParsedTotal   atomic.Uint64
	feedbackFallbackTotal atomic.Uint64
	proposalsParsedTotal  atomic.Uint64
	decisionsTotal        atomic.Uint64

	applyStartedTotal   atomic.Uint64
	applyCompletedTotal atomic.Uint64
	applyFailedTotal    atomic.Uint64

	llmFailedTotal atomic.Uint64

	applyJobsReceivedTotal      atomic.Uint64
	applyJobsCompletedTotal     atomic.Uint64
	applyJobsFailedTotal        atomic.Uint64
	applyJobsUnrecoverableTotal atomic.Uint64

	applyDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// ObserveFeedbackParsed records one parsed feedback text and the proposals it yielded.
func ObserveFeedbackParsed(proposals int, fallback bool) {
	feedbackParsedTotal.Add(1)
	if proposals > 0 {
		proposalsParsedTotal.Add(uint64(proposals))
	}
	if fallback {
		feedbackFallbackTotal.Add(1)
	}
}

// IncDecision counts a recorded proposal decision.
func IncDecision() {
	decisionsTotal.Add(1)
}

// IncApplyStarted increments the started counter.
func IncApplyStarted() {
	applyStartedTotal.Add(1)
}

// IncApplyCompleted increments the completed counter.
func IncApplyCompleted() {
	applyCompletedTotal.Add(1)
}

// IncApplyFailed increments the failed counter.
func IncApplyFailed() {
	applyFailedTotal.Add(1)
}

// IncLLMFailed counts LLM calls that failed after retries.
func IncLLMFailed() {
	llmFailedTotal.Add(1)
}

// IncApplyJobsReceived counts queue messages picked up by the worker.
func IncApplyJobsReceived() {
	applyJobsReceivedTotal.Add(1)
}

func IncApplyJobsCompleted() {
	applyJobsCompletedTotal.Add(1)
}

func IncApplyJobsFailed() {
	applyJobsFailedTotal.Add(1)
}

// IncApplyJobsDeletedUnrecoverable counts malformed messages dropped without processing.
func IncApplyJobsDeletedUnrecoverable() {
	applyJobsUnrecoverableTotal.Add(1)
}

// ObserveApplyDurationMs records an apply duration in milliseconds.
func ObserveApplyDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	applyDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "feedback_parsed_total", "Specialist feedback texts parsed", feedbackParsedTotal.Load())
	writeCounter(&buf, "feedback_fallback_total", "Feedback texts that produced only the fallback proposal", feedbackFallbackTotal.Load())
	writeCounter(&buf, "proposals_parsed_total", "Change proposals extracted from feedback", proposalsParsedTotal.Load())
	writeCounter(&buf, "proposal_decisions_total", "Human decisions recorded on proposals", decisionsTotal.Load())
	writeCounter(&buf, "review_apply_started_total", "Review apply runs started", applyStartedTotal.Load())
	writeCounter(&buf, "review_apply_completed_total", "Review apply runs completed", applyCompletedTotal.Load())
	writeCounter(&buf, "review_apply_failed_total", "Review apply runs failed", applyFailedTotal.Load())
	writeCounter(&buf, "llm_failed_total", "LLM calls that failed", llmFailedTotal.Load())
	writeCounter(&buf, "apply_jobs_received_total", "Apply jobs received by the worker", applyJobsReceivedTotal.Load())
	writeCounter(&buf, "apply_jobs_completed_total", "Apply jobs processed and deleted", applyJobsCompletedTotal.Load())
	writeCounter(&buf, "apply_jobs_failed_total", "Apply jobs left for redelivery", applyJobsFailedTotal.Load())
	writeCounter(&buf, "apply_jobs_deleted_unrecoverable_total", "Malformed apply jobs deleted", applyJobsUnrecoverableTotal.Load())
	writeHistogram(&buf, "review_apply_duration_ms", "Review apply duration in milliseconds", applyDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe stores value in the first bucket whose bound holds it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

// writeHistogram emits cumulative buckets; counts are stored per bucket.
func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
