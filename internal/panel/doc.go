// Package panel is the client façade for an Omni-Link controller.
//
// A Client owns one session and everything built on it:
//
//   - Connect, which retries forever at RetryInterval and enables
//     unsolicited notifications once the session is secured
//   - Discover, which walks every object type and collects named objects
//   - a StatusCache with change detection; each changed status is published
//     as a StatusChanged event
//   - typed commands (arming, units, thermostats, locks, buttons, zone bypass,
//     emergencies, clock) that expect an Acknowledge
//   - trouble polling, which doubles as the session keepalive
//   - optional hourly clock synchronization
//   - reconnect supervision: when the session fails, timers are stopped, the
//     session is re-established and RefreshAll repairs the cache
//
// # Events
//
// Subscribers receive a filtered view of a single event stream:
//
//	events, cancel := client.Subscribe(panel.ForObject(message.ObjectZone))
//	defer cancel()
//	for ev := range events {
//	    if sc, ok := ev.(panel.StatusChanged); ok {
//	        fmt.Println(sc.Key, sc.New)
//	    }
//	}
//
// Each subscriber has a bounded buffer. Events that do not fit are dropped
// with a warning rather than stalling the session reader.
//
// # Errors
//
// Operations return *PanelError. Use IsTransportError, IsRejected and
// IsAuthorizationError to classify them and ShortMessage for CLI output.
package panel
