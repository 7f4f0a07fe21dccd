package http

import (
	"github.com/GriffinCanCode/NexusOS/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics times handler operations against the service call metrics
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper. A nil collector records nothing.
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackSessionOperation starts timing a session operation. The returned
// function records the outcome.
func (hm *HandlerMetrics) TrackSessionOperation(operation string) func(err error) {
	return hm.track("session", operation)
}

// TrackPreferenceOperation starts timing a preference operation
func (hm *HandlerMetrics) TrackPreferenceOperation(operation string) func(err error) {
	return hm.track("preferences", operation)
}

func (hm *HandlerMetrics) track(service, operation string) func(err error) {
	timer := monitoring.NewTimer(hm.metrics, service, operation)
	return func(err error) {
		if err != nil {
			_, code := statusFor(err)
			timer.Stop(code)
			return
		}
		timer.Stop("success")
	}
}
