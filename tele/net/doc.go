// Wire codecs and socket helpers for device <-> gateway traffic.
//
// Datagram channels (multicast discovery, point-to-point telemetry) carry
// exactly one protobuf message per datagram, no header.
//
// Stream channel (gateway -> actuator commands) carries exactly one message
// per connection. Preferred encoding is a "frame": magic + length header
// followed by protobuf payload. Legacy gateways write bare protobuf and close
// the connection, Decoder accepts both.
package telenet
