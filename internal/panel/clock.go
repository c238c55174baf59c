package panel

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SyncClock sets the controller clock from the host when the controller
// reports an invalid time, drifts by more than ClockDriftThreshold or
// disagrees about daylight saving. It reports whether the clock was set.
func (c *Client) SyncClock(ctx context.Context) (bool, error) {
	status, err := c.SystemStatus(ctx)
	if err != nil {
		return false, err
	}

	now := c.cfg.Now().In(time.Local)
	dst := now.IsDST()

	reason := ""
	switch {
	case !status.TimeValid:
		reason = "controller time not set"
	case status.DST != dst:
		reason = "daylight saving mismatch"
	default:
		drift := now.Sub(status.Time)
		if drift < 0 {
			drift = -drift
		}
		if drift <= c.cfg.ClockDriftThreshold {
			c.log.Debug("Controller clock in sync", zap.Duration("drift", drift))
			return false, nil
		}
		reason = "clock drift " + drift.Round(time.Second).String()
	}

	c.log.Info("Setting controller clock",
		zap.String("reason", reason),
		zap.Time("time", now),
		zap.Bool("dst", dst),
	)
	if err := c.SetTime(ctx, now, dst); err != nil {
		return false, err
	}
	return true, nil
}
