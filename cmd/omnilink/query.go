package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/ui"
)

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().BoolVar(&monitorPlain, "plain", false, "Print one line per event instead of the dashboard")
}

// infoCmd shows the controller model, firmware and clock
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show controller model, firmware, clock and troubles",
	Example: `  # Default profile
  omnilink info

  # Ad-hoc controller, key prompted
  omnilink info --address 192.168.1.20`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient("Controller info", func(ctx context.Context, c *panel.Client) error {
			info, err := c.SystemInformation(ctx)
			if err != nil {
				return err
			}
			status, err := c.SystemStatus(ctx)
			if err != nil {
				return err
			}
			troubles, err := c.PollTroubles(ctx)
			if err != nil {
				return err
			}

			clock := "not set"
			if status.TimeValid {
				clock = status.Time.Format("Mon 2 Jan 2006 15:04:05")
				if status.DST {
					clock += " (DST)"
				}
			}
			troubleText := "none"
			if len(troubles) > 0 {
				names := make([]string, len(troubles))
				for i, t := range troubles {
					names[i] = t.String()
				}
				troubleText = strings.Join(names, ", ")
			}

			result := ui.NewSuccessResult(info.ModelName(),
				ui.Param{Key: "Firmware", Value: info.Version()},
				ui.Param{Key: "Clock", Value: clock},
				ui.Param{Key: "Sunrise", Value: clockOffset(status.Sunrise)},
				ui.Param{Key: "Sunset", Value: clockOffset(status.Sunset)},
				ui.Param{Key: "Battery", Value: fmt.Sprintf("%d", status.Battery)},
				ui.Param{Key: "Troubles", Value: troubleText},
			)
			if info.Phone != "" {
				result.AddDetail("Phone", info.Phone)
			}
			if len(troubles) > 0 {
				result.Type = ui.ResultWarning
			}
			fmt.Println(result.Render())
			return nil
		})
	},
}

func clockOffset(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// statusTypes maps the status command arguments to object types
var statusTypes = map[string]message.ObjectType{
	"zones":       message.ObjectZone,
	"units":       message.ObjectUnit,
	"areas":       message.ObjectArea,
	"thermostats": message.ObjectThermostat,
	"sensors":     message.ObjectAuxSensor,
	"locks":       message.ObjectAccessLock,
	"readers":     message.ObjectAccessReader,
}

// statusOrder is the listing order when several types are shown
var statusOrder = []string{"areas", "zones", "units", "thermostats", "sensors", "locks", "readers"}

var statusCmd = &cobra.Command{
	Use:   "status [areas|zones|units|thermostats|sensors|locks|readers]...",
	Short: "Show object status",
	Long: `Discover named objects and list their current status.

With no arguments, areas and zones are shown.`,
	Example: `  omnilink status
  omnilink status units thermostats`,
	ValidArgs: statusOrder,
	Args:      cobra.OnlyValidArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"areas", "zones"}
		}
		wanted := make(map[string]bool, len(args))
		var types []message.ObjectType
		for _, name := range statusOrder {
			for _, a := range args {
				if a == name && !wanted[name] {
					wanted[name] = true
					types = append(types, statusTypes[name])
				}
			}
		}

		return withClient("Status", func(ctx context.Context, c *panel.Client) error {
			formats, err := c.SystemFormats(ctx)
			if err != nil {
				return err
			}
			if _, err := c.DiscoverObjects(ctx, types...); err != nil {
				return err
			}
			for i, o := range types {
				if i > 0 {
					fmt.Println()
				}
				table := &ui.Table{Title: statusTitle(o), Rows: statusRows(c, o, formats.Temperature)}
				fmt.Print(table.Render())
			}
			return nil
		})
	},
}

func statusTitle(o message.ObjectType) string {
	for name, t := range statusTypes {
		if t == o {
			return name
		}
	}
	return o.String()
}

// monitorPlain forces the line stream even on a terminal
var monitorPlain bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live status changes",
	Long: `Connect, discover named objects and follow every status change,
trouble and connection event until interrupted.

On a terminal an interactive dashboard shows the status of each object type
and the most recent events. With --plain, or when output is not a terminal,
one line is printed per event.

The connection is retried indefinitely and statuses are resynchronized after
every reconnect. Troubles are polled every minute and, for profiles with
clock_sync, the controller clock is kept in step with this host.`,
	Example: `  omnilink monitor
  omnilink monitor --plain >> panel.log`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// startMonitor connects and discovers every object type. A discovery
// failure is kept apart since monitoring can go on without names.
func startMonitor(ctx context.Context, c *panel.Client) readyMsg {
	if err := c.Connect(ctx); err != nil {
		return readyMsg{err: err}
	}

	ready := readyMsg{format: message.FormatFahrenheit}
	if f, err := c.SystemFormats(ctx); err == nil {
		ready.format = f.Temperature
	} else {
		logging.Warn("Cannot read display formats, assuming Fahrenheit", zap.Error(err))
	}
	_, ready.discoverErr = c.Discover(ctx, nil)
	return ready
}

func runMonitor(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	cfg, err := t.clientConfig()
	if err != nil {
		return err
	}
	cfg.Notifications = true

	ctx, stop := signalContext()
	defer stop()

	interactive := !monitorPlain && term.IsTerminal(int(os.Stdout.Fd()))
	logging.Info("Monitoring controller", zap.String("controller", cfg.HostPort()), zap.Bool("interactive", interactive))

	c := panel.New(cfg)
	defer func() {
		_ = c.Close()
		logging.Sync()
	}()

	events, cancel := c.Subscribe(nil)
	defer cancel()

	if interactive {
		if err := runDashboard(ctx, c, cfg.HostPort(), events); err != nil {
			renderFailure("Monitor", err)
			return errSilent
		}
		return nil
	}

	fmt.Println(ui.NewHeader("Monitor", "omnilink monitor", t.headerParams(cfg)).Render())

	ready := startMonitor(ctx, c)
	if ready.err != nil {
		if ctx.Err() != nil {
			return nil
		}
		renderFailure("Monitor", ready.err)
		return errSilent
	}
	if ready.discoverErr != nil && ctx.Err() == nil {
		renderFailure("Discovery", ready.discoverErr)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			line, level := describeEvent(e, c.Inventory(), ready.format)
			stamp := ui.StateStyle(ui.LevelInactive).Render(time.Now().Format("15:04:05"))
			fmt.Printf("%s %s %s\n", stamp, ui.StateStyle(level).Render(ui.EventMarker), line)
		}
	}
}
