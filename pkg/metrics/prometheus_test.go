package metrics

import (
	"testing"
)

func TestGetRegistry(t *testing.T) {
	r := GetRegistry()
	if r == nil {
		t.Fatal("registry must be initialized at package load")
	}

	families, err := r.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected registered metric families")
	}
}

func TestRecordHelpers(t *testing.T) {
	// Exercise the counter and gauge helpers; they must not panic and the
	// registry must still gather cleanly afterwards.
	RecordRequestValidated()
	RecordRetry()
	RecordTerminalFailure()
	RecordReconcileApply()
	RecordReconcileDuplicate()
	UpdateProgressRecords(12)
	RecordScorerLatency(42.5)
	RecordScorerError()
	RecordSynthLatency(17.0)
	RecordSynthesisError()
	UpdateBreakerState("scorer", "open")
	RecordBreakerTransition("scorer", "open")
	RecordBreakerRejection("scorer")
	RecordQueueEnqueue()
	RecordQueueDequeue()
	RecordQueueDrop()
	RecordQueueCancel()
	RecordQueueEnqueueError("queue_full")
	UpdateQueueDepth(3)
	RecordCaptureOverwrite()
	UpdateCaptureBufferSize(2)
	RecordUserWorkerStarted()
	RecordWorkerProcessingLatency(5.0)
	RecordHTTPRequest("validate", "POST", "200")
	RecordHTTPRequestDuration("validate", "POST", "200", 12.0)

	if _, err := GetRegistry().Gather(); err != nil {
		t.Fatalf("gather after recording failed: %v", err)
	}
}
