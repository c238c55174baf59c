// Package message encodes and decodes Omni-Link II application messages.
//
// Application messages travel inside ApplicationData packets. Each message is
// wrapped in a small envelope:
//
//   - Byte 0: Start character (0x21)
//   - Byte 1: Length of the message type plus data
//   - Byte 2: Message type
//   - Byte 3+: Message data
//
// Requests are immutable value types built with the constructors in this
// package and serialized with Encode. Responses are produced by Parse, which
// dispatches on the message type byte and, for object properties and extended
// status, on a secondary object type byte.
//
// Acknowledge, NegativeAcknowledge and EndOfData all decode to *Acknowledge.
// Object types without a decoder decode to *Unsupported rather than an error
// so callers can log and skip them.
//
// # Extended Status Records
//
// Extended status responses carry an array of fixed-length records:
//
//   - Byte 3: Object type
//   - Byte 4: Record length
//   - Byte 5+: Records, each a big-endian object number followed by status bytes
//
// The record count is (length byte - 3) / record length. Access control
// records have an implicit length per object type.
package message
