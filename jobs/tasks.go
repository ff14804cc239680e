// Package jobs runs the background work: batch call-notice rendering,
// dashboard cache warmup, and year-end settlement snapshots.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNoticesRender renders the call notices of one quarter.
	TaskNoticesRender = "notices:render"
	// TaskAnalyticsWarmup pre-warms the dashboard caches.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskSettlementSnapshot persists a year-end settlement run.
	TaskSettlementSnapshot = "settlement:snapshot"
)

// NoticesRenderPayload parameterises a notice batch.
type NoticesRenderPayload struct {
	Year         int     `json:"year"`
	Quarter      int     `json:"quarter"`
	CallsPerYear int     `json:"calls_per_year"`
	ReserveRate  float64 `json:"reserve_rate"`
}

// NewNoticesRenderTask constructs the Asynq task.
func NewNoticesRenderTask(payload NoticesRenderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNoticesRender, data), nil
}

// AnalyticsWarmupPayload parameterises a cache warmup.
type AnalyticsWarmupPayload struct {
	Year int `json:"year"`
}

// NewAnalyticsWarmupTask constructs the Asynq task.
func NewAnalyticsWarmupTask(payload AnalyticsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// SettlementSnapshotPayload parameterises a settlement snapshot. A zero
// Year means the previous calendar year at processing time; a zero
// CallsPerYear means the standard four calls.
type SettlementSnapshotPayload struct {
	Year         int `json:"year"`
	CallsIssued  int `json:"calls_issued"`
	CallsPerYear int `json:"calls_per_year"`
}

// NewSettlementSnapshotTask constructs the Asynq task.
func NewSettlementSnapshotTask(payload SettlementSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementSnapshot, data), nil
}
