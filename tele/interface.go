package tele

// Mirror receives a copy of every telemetry message that was sent to a gateway.
// Implementations must not block the caller; delivery is best effort.
type Mirror interface {
	Telemetry(*TelemetryMessage)
	Close()
}
