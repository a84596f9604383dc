package internaldefs

import (
	goLink "github.com/MrEthical07/goLink"
)

// CounterDef names one store counter for exporters.
type CounterDef struct {
	ID   goLink.MetricID
	Name string
	Help string
}

// HistogramDef names one store histogram for exporters.
type HistogramDef struct {
	ID   goLink.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goLink.MetricSessionSaved, Name: "golink_session_saved_total", Help: "Successful session saves."},
	{ID: goLink.MetricSessionDeleted, Name: "golink_session_deleted_total", Help: "Successful session deletes."},
	{ID: goLink.MetricSessionSaveRejected, Name: "golink_session_save_rejected_total", Help: "Session saves rejected as invalid arguments."},
	{ID: goLink.MetricSessionRead, Name: "golink_session_read_total", Help: "Session snapshot reads."},
	{ID: goLink.MetricPartialSessionSkipped, Name: "golink_partial_session_skipped_total", Help: "Session identifiers skipped because their secret was missing."},
	{ID: goLink.MetricCorruptValue, Name: "golink_corrupt_value_total", Help: "Stored values that failed to decode and were read as absent."},
	{ID: goLink.MetricEngineFailure, Name: "golink_engine_failure_total", Help: "Storage engine failures returned to callers."},
	{ID: goLink.MetricFeedOpened, Name: "golink_feed_opened_total", Help: "Session feeds opened."},
	{ID: goLink.MetricFeedPush, Name: "golink_feed_push_total", Help: "Snapshots pushed to feed subscribers."},
	{ID: goLink.MetricFeedDeduplicated, Name: "golink_feed_deduplicated_total", Help: "Snapshots suppressed as unchanged."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goLink.MetricMutationLatency, Name: "golink_mutation_latency_seconds", Help: "Save and delete latency histogram."},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "golink_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramBounds are the bucket upper bounds in seconds, as exposition labels.
var HistogramBounds = []string{
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.0025",
	"0.005",
	"0.01",
	"+Inf",
}

// HistogramUpperBounds are the finite bounds of HistogramBounds.
var HistogramUpperBounds = []float64{
	0.0001,
	0.00025,
	0.0005,
	0.001,
	0.0025,
	0.005,
	0.01,
}

// HistogramBoundSuffix names each bucket for exporters that flatten
// histograms into per-bucket gauges.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"0_01",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to cumulative counts.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
