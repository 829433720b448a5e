package port

import "context"

type FailureNotifier interface {
	// NotifyFailure is sent once per job that will not be retried.
	// retriesExhausted distinguishes a job that used up its attempts from one
	// rejected on the first attempt.
	NotifyFailure(ctx context.Context, userEmail string, jobID string, videoKey string, stage string, errorMsg string, retriesExhausted bool) error
}
