// Package logging provides structured logging for the Omni-Link client.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the client. Logging is silent unless a level is
// passed to Initialize or set in OMNILINK_LOG_LEVEL, so CLI output is not
// interleaved with log lines by default.
//
// # Log Levels
//
//   - Debug: Detailed debugging info (hex dumps, request correlation)
//   - Info: Normal operations (connections, handshakes, protocol packets)
//   - Warn: Non-fatal issues (connection drops, retries, dropped events)
//   - Error: Failures that stop an operation
//
// # Structured Logging
//
// Components receive a *zap.Logger and attach their own fields:
//
//	log := logging.GetLogger().With(zap.String("session", id.String()))
//	log.Info("Session secured", zap.String("address", addr))
//
// # Protocol Packets
//
// When a session is configured to show protocol events, every packet is
// logged with its wire bytes and decrypted payload:
//
//	logging.LogPacket(log, "tx", seq, pkt.Type.String(), raw, plain)
//
// # Output Format
//
// Logs are written to stderr in console format:
//
//	2026-10-18T10:30:45.123+0100  INFO  Protocol packet  {"direction": "rx", "seq": 3, ...}
package logging
