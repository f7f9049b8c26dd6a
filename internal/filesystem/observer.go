package filesystem

// Observer records filesystem retry metrics. The metrics package implements
// it so that filesystem does not import metrics.
type Observer interface {
	// ObserveOperation records one completed operation ("stat", "open",
	// "write") on a volume ("photos", "cache", "database").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveStaleError(op, volume string)
}

var defaultObserver Observer

// SetObserver sets the package-level observer. A nil observer disables
// recording.
func SetObserver(o Observer) {
	defaultObserver = o
}

// nopObserver is used when no observer has been set.
type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)              {}
func (nopObserver) ObserveRetrySuccess(string, string)              {}
func (nopObserver) ObserveRetryFailure(string, string)              {}
func (nopObserver) ObserveStaleError(string, string)                {}

func observer() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
