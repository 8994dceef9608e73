package persistence

import (
	"context"
	"time"
)

// ServiceEventType defines the lifecycle events emitted by the service.
type ServiceEventType string

const (
	UploadStart   ServiceEventType = "dataset:upload:start"
	UploadSuccess ServiceEventType = "dataset:upload:success"
	UploadFailed  ServiceEventType = "dataset:upload:failed"
	QueryStart    ServiceEventType = "dataset:query:start"
	QuerySuccess  ServiceEventType = "dataset:query:success"
	QueryFailed   ServiceEventType = "dataset:query:failed"
)

// ServiceEvent is the payload delivered to subscribers for every lifecycle
// event.
type ServiceEvent struct {
	Type      ServiceEventType `json:"type"`
	Timestamp int64            `json:"timestamp"` // Unix milliseconds
	Operation string           `json:"operation"`
	DatasetID *string          `json:"dataset_id,omitempty"`
	Error     *string          `json:"error,omitempty"`
	Duration  *int64           `json:"duration,omitempty"` // milliseconds
}

// EventCallback is invoked for each matching event a subscriber registered
// for.
type EventCallback func(ctx context.Context, event ServiceEvent) error

// subscription pairs a bus unsubscribe hook with its id.
type subscription struct {
	event       ServiceEventType
	unsubscribe func()
}

func newEvent(eventType ServiceEventType, operation string, datasetID *string, err error, startTime time.Time) ServiceEvent {
	var duration *int64
	if !startTime.IsZero() {
		d := time.Since(startTime).Milliseconds()
		duration = &d
	}

	var errStr *string
	if err != nil {
		s := err.Error()
		errStr = &s
	}

	return ServiceEvent{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		DatasetID: datasetID,
		Error:     errStr,
		Duration:  duration,
	}
}
