package tele

import (
	"fmt"
	"strings"
)

//go:generate protoc --go_out=. --go_opt=paths=source_relative messages.proto

// Only this DiscoveryRequest.Kind is recognized, anything else is ignored.
const KindDiscoveryRequest = "DISCOVERY_REQUEST"

var (
	ErrUnknownKind  = fmt.Errorf("unknown discovery kind")
	ErrInvalidAddr  = fmt.Errorf("invalid address")
	ErrInvalidClass = fmt.Errorf("invalid device class")
)

// ParseClass accepts config spelling: sensor, actuator (any case).
func ParseClass(s string) (DeviceClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sensor":
		return DeviceClass_SENSOR, nil
	case "actuator":
		return DeviceClass_ACTUATOR, nil
	}
	return DeviceClass_SENSOR, fmt.Errorf("%w class=%q", ErrInvalidClass, s)
}

func NewDiscoveryRequest(ip string, port int) *DiscoveryRequest {
	return &DiscoveryRequest{
		Kind: KindDiscoveryRequest,
		Ip:   ip,
		Port: int32(port),
	}
}
