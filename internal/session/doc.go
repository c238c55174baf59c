// Package session implements the encrypted controller session.
//
// A Transport owns one TCP connection at a time. Connect dials the
// controller and runs the two step handshake:
//
//  1. NewSessionRequest, answered with a protocol version and a five byte
//     session id.
//  2. SecureConnectionRequest carrying the session id encrypted with the
//     session key (the private key with bytes 11-15 XORed with the session
//     id). The controller echoes the id; anything else means the private key
//     is wrong.
//
// Once secured, a reader goroutine routes every inbound packet. Sequence 0
// carries unsolicited notifications, which are decoded and handed to the
// configured notification callback. All other packets resolve the pending
// request with the matching sequence number.
//
// # Request Correlation
//
// The controller handles a single ApplicationData exchange at a time. Send
// goes through a Correlator which:
//
//   - admits one request at a time, queueing callers in arrival order
//   - answers a request repeated within the dedup window from cache, without
//     touching the wire
//   - fails the outstanding request and every queued request when the
//     connection is lost
//
// # States
//
//	disconnected -> connecting -> new_session -> secure_connection -> ready
//	      ^                                                            |
//	      +------------------------- disconnect -----------------------+
//
// Any failure returns the transport to disconnected, after which Connect may
// be called again.
package session
