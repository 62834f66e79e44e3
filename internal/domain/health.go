package domain

import (
	"fmt"
	"time"
)

// Store health status classifications.
const (
	HealthStatusHealthy          = "healthy"
	HealthStatusConnectionFailed = "connection_failed"
	HealthStatusError            = "error"
)

// Health is the composite probe result for the question store. It is
// always fully populated by value; probing never returns an error.
type Health struct {
	ConnectionAvailable  bool          `json:"connectionAvailable"`
	CanRetrieveQuestions bool          `json:"canRetrieveQuestions"`
	QuestionCount        int           `json:"questionCount"`
	QueryLatency         time.Duration `json:"queryLatency"`
	Status               string        `json:"status"`
	LastError            string        `json:"lastError,omitempty"`
}

// Healthy reports whether the probe found the store fully usable.
func (h Health) Healthy() bool {
	return h.Status == HealthStatusHealthy
}

func (h Health) String() string {
	return fmt.Sprintf("health{status=%s connection=%v questions=%d latency=%s error=%q}",
		h.Status, h.ConnectionAvailable, h.QuestionCount, h.QueryLatency, h.LastError)
}
