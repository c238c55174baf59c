package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/ui"
)

// Control flags
var (
	securityCode string
	duration     time.Duration
	assumeYes    bool
	setTimeDST   string
	forceTime    bool
)

func init() {
	for _, cmd := range []*cobra.Command{armCmd, disarmCmd, bypassCmd, restoreCmd} {
		cmd.Flags().StringVar(&securityCode, "code", "", "Four digit user code (prompted if empty)")
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{unitCmd, unlockCmd} {
		cmd.Flags().DurationVar(&duration, "for", 0, "Revert after this long (max 255s)")
	}
	emergencyCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	syncTimeCmd.Flags().StringVar(&setTimeDST, "dst", "auto", "Daylight saving flag to send with --force (auto, on, off)")
	syncTimeCmd.Flags().BoolVar(&forceTime, "force", false, "Set the clock even when it is within the drift threshold")

	rootCmd.AddCommand(unitCmd)
	rootCmd.AddCommand(thermostatCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(buttonCmd)
	rootCmd.AddCommand(emergencyCmd)
	rootCmd.AddCommand(syncTimeCmd)
}

// readCode returns --code or prompts for it without echo
func readCode() (string, error) {
	if securityCode != "" {
		return securityCode, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no security code given; use --code")
	}
	fmt.Fprint(os.Stderr, "Security code: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func printDone(title string, details ...ui.Param) {
	fmt.Println(ui.NewSuccessResult(title, details...).Render())
}

var armCmd = &cobra.Command{
	Use:   "arm <area> <day|night|away|vacation|day instant|night delayed>",
	Short: "Arm an area",
	Example: `  omnilink arm 1 away
  omnilink arm 1 "night delayed" --code 1234`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := message.ParseAreaMode(strings.ToLower(args[1]))
		if err != nil {
			return err
		}
		if mode == message.AreaModeOff {
			return fmt.Errorf("use 'omnilink disarm' to disarm")
		}
		return setArea(args[0], mode)
	},
}

var disarmCmd = &cobra.Command{
	Use:   "disarm <area>",
	Short: "Disarm an area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setArea(args[0], message.AreaModeOff)
	},
}

func setArea(areaArg string, mode message.AreaMode) error {
	code, err := readCode()
	if err != nil {
		return err
	}
	return withClient("Set area "+mode.String(), func(ctx context.Context, c *panel.Client) error {
		area, err := resolveObject(ctx, c, message.ObjectArea, areaArg)
		if err != nil {
			return err
		}
		if err := c.SetAreaMode(ctx, area, mode, code); err != nil {
			return err
		}
		printDone(fmt.Sprintf("Area %d %s", area, mode))
		return nil
	})
}

var bypassCmd = &cobra.Command{
	Use:   "bypass <zone>",
	Short: "Bypass a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return zoneCommand(args[0], true)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <zone>",
	Short: "Restore a bypassed zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return zoneCommand(args[0], false)
	},
}

func zoneCommand(zoneArg string, bypass bool) error {
	code, err := readCode()
	if err != nil {
		return err
	}
	title := "Restore zone"
	if bypass {
		title = "Bypass zone"
	}
	return withClient(title, func(ctx context.Context, c *panel.Client) error {
		// Zone discovery supplies the zone's area for code validation
		if _, err := c.DiscoverObjects(ctx, message.ObjectZone); err != nil {
			return err
		}
		zone, err := resolveObject(ctx, c, message.ObjectZone, zoneArg)
		if err != nil {
			return err
		}
		if bypass {
			err = c.BypassZone(ctx, zone, code)
		} else {
			err = c.RestoreZone(ctx, zone, code)
		}
		if err != nil {
			return err
		}
		printDone(fmt.Sprintf("%s %d", title, zone))
		return nil
	})
}

var unitCmd = &cobra.Command{
	Use:   "unit <unit> <on|off|0-100>",
	Short: "Switch or dim a unit",
	Example: `  omnilink unit 12 on
  omnilink unit PORCH off
  omnilink unit 3 40
  omnilink unit 7 on --for 90s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := strings.ToLower(args[1])
		level := -1
		if action != "on" && action != "off" {
			n, err := strconv.Atoi(action)
			if err != nil || n < 0 || n > 100 {
				return fmt.Errorf("unit action must be on, off or a level 0-100, got %q", args[1])
			}
			level = n
		}

		return withClient("Unit "+action, func(ctx context.Context, c *panel.Client) error {
			unit, err := resolveObject(ctx, c, message.ObjectUnit, args[0])
			if err != nil {
				return err
			}
			switch {
			case level >= 0:
				err = c.UnitLevel(ctx, unit, level)
			case action == "on":
				err = c.UnitOn(ctx, unit, duration)
			default:
				err = c.UnitOff(ctx, unit, duration)
			}
			if err != nil {
				return err
			}
			printDone(fmt.Sprintf("Unit %d %s", unit, action))
			return nil
		})
	},
}

var thermostatCmd = &cobra.Command{
	Use:   "thermostat <thermostat> <mode|fan|hold|heat|cool> <value>",
	Short: "Change thermostat mode, fan, hold or setpoints",
	Long: `Change a thermostat setting.

  mode  off, heat, cool, auto, emergency heat
  fan   auto, on, cycle
  hold  off, on, vacation
  heat  setpoint in the controller's display unit, e.g. 20C or 68F
  cool  setpoint, as for heat`,
	Example: `  omnilink thermostat 1 mode heat
  omnilink thermostat 1 heat 21C
  omnilink thermostat LOUNGE fan auto`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, value := strings.ToLower(args[1]), strings.ToLower(args[2])
		apply, err := thermostatSetting(setting, value)
		if err != nil {
			return err
		}
		return withClient("Thermostat "+setting, func(ctx context.Context, c *panel.Client) error {
			id, err := resolveObject(ctx, c, message.ObjectThermostat, args[0])
			if err != nil {
				return err
			}
			if err := apply(ctx, c, id); err != nil {
				return err
			}
			printDone(fmt.Sprintf("Thermostat %d %s %s", id, setting, value))
			return nil
		})
	},
}

// thermostatSetting parses a setting into the client call that applies it
func thermostatSetting(setting, value string) (func(context.Context, *panel.Client, uint16) error, error) {
	switch setting {
	case "mode":
		mode, err := message.ParseThermostatMode(value)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *panel.Client, id uint16) error { return c.SetThermostatMode(ctx, id, mode) }, nil
	case "fan":
		fans := map[string]message.FanMode{"auto": message.FanAuto, "on": message.FanOn, "cycle": message.FanCycle}
		fan, ok := fans[value]
		if !ok {
			return nil, fmt.Errorf("unknown fan mode %q", value)
		}
		return func(ctx context.Context, c *panel.Client, id uint16) error { return c.SetFanMode(ctx, id, fan) }, nil
	case "hold":
		holds := map[string]message.HoldMode{"off": message.HoldOff, "on": message.HoldOn, "vacation": message.HoldVacation}
		hold, ok := holds[value]
		if !ok {
			return nil, fmt.Errorf("unknown hold mode %q", value)
		}
		return func(ctx context.Context, c *panel.Client, id uint16) error { return c.SetHoldMode(ctx, id, hold) }, nil
	case "heat", "cool":
		raw, err := parseTemperature(value)
		if err != nil {
			return nil, err
		}
		if setting == "heat" {
			return func(ctx context.Context, c *panel.Client, id uint16) error { return c.SetHeatSetpoint(ctx, id, raw) }, nil
		}
		return func(ctx context.Context, c *panel.Client, id uint16) error { return c.SetCoolSetpoint(ctx, id, raw) }, nil
	}
	return nil, fmt.Errorf("unknown thermostat setting %q", setting)
}

// parseTemperature converts "21c", "21.5C" or "70f" to a raw value
func parseTemperature(s string) (byte, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "°")
	if s == "" {
		return 0, fmt.Errorf("empty temperature")
	}
	unit := s[len(s)-1:]
	if unit != "c" && unit != "f" {
		return 0, fmt.Errorf("temperature %q needs a C or F suffix", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:len(s)-1], "°"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q", s)
	}
	if unit == "c" {
		return message.RawFromCelsius(v), nil
	}
	return message.RawFromFahrenheit(v), nil
}

var lockCmd = &cobra.Command{
	Use:   "lock <lock>",
	Short: "Lock an access control door",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient("Lock", func(ctx context.Context, c *panel.Client) error {
			id, err := resolveObject(ctx, c, message.ObjectAccessLock, args[0])
			if err != nil {
				return err
			}
			if err := c.Lock(ctx, id); err != nil {
				return err
			}
			printDone(fmt.Sprintf("Lock %d locked", id))
			return nil
		})
	},
}

var unlockCmd = &cobra.Command{
	Use:     "unlock <lock>",
	Short:   "Unlock an access control door",
	Example: `  omnilink unlock 1 --for 10s`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient("Unlock", func(ctx context.Context, c *panel.Client) error {
			id, err := resolveObject(ctx, c, message.ObjectAccessLock, args[0])
			if err != nil {
				return err
			}
			if err := c.Unlock(ctx, id, duration); err != nil {
				return err
			}
			printDone(fmt.Sprintf("Lock %d unlocked", id))
			return nil
		})
	},
}

var buttonCmd = &cobra.Command{
	Use:   "button <button>",
	Short: "Run a button macro",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient("Button", func(ctx context.Context, c *panel.Client) error {
			id, err := resolveObject(ctx, c, message.ObjectButton, args[0])
			if err != nil {
				return err
			}
			if err := c.ExecuteButton(ctx, id); err != nil {
				return err
			}
			printDone(fmt.Sprintf("Button %d executed", id))
			return nil
		})
	},
}

var emergencyTypes = map[string]message.EmergencyType{
	"burglary":  message.EmergencyBurglary,
	"fire":      message.EmergencyFire,
	"auxiliary": message.EmergencyAuxiliary,
}

var emergencyCmd = &cobra.Command{
	Use:   "emergency <area> <burglary|fire|auxiliary>",
	Short: "Raise a keypad emergency alarm",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		area, err := parseID("area", args[0])
		if err != nil || area > 255 {
			return fmt.Errorf("invalid area %q", args[0])
		}
		kind, ok := emergencyTypes[strings.ToLower(args[1])]
		if !ok {
			return fmt.Errorf("unknown emergency %q", args[1])
		}

		if !assumeYes {
			phrase := strings.ToUpper(kind.String())
			warnings := []string{
				fmt.Sprintf("This raises a %s alarm in area %d", kind, area),
				"Sirens will sound and the alarm may be reported to the monitoring station",
			}
			if !ui.Confirm(os.Stdin, os.Stdout, "EMERGENCY ALARM", warnings, phrase) {
				return nil
			}
		}

		return withClient("Emergency", func(ctx context.Context, c *panel.Client) error {
			if err := c.Emergency(ctx, byte(area), kind); err != nil {
				return err
			}
			printDone(fmt.Sprintf("%s emergency raised in area %d", kind, area))
			return nil
		})
	},
}

var syncTimeCmd = &cobra.Command{
	Use:   "sync-time",
	Short: "Set the controller clock from this host",
	Long: `Set the controller clock to this host's local time.

Without --force the clock is only set when the controller reports an
invalid time, a daylight saving mismatch or drift beyond the threshold.
With --dst auto the daylight saving flag follows the host time zone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		dst := now.IsDST()
		switch setTimeDST {
		case "auto":
		case "on":
			dst = true
		case "off":
			dst = false
		default:
			return fmt.Errorf("--dst must be auto, on or off")
		}

		return withClient("Sync time", func(ctx context.Context, c *panel.Client) error {
			if !forceTime {
				set, err := c.SyncClock(ctx)
				if err != nil {
					return err
				}
				if !set {
					printDone("Controller clock already correct")
					return nil
				}
				printDone("Controller clock set", ui.Param{Key: "Time", Value: time.Now().Format("Mon 2 Jan 2006 15:04")})
				return nil
			}
			if err := c.SetTime(ctx, now, dst); err != nil {
				return err
			}
			printDone("Controller clock set",
				ui.Param{Key: "Time", Value: now.Format("Mon 2 Jan 2006 15:04")},
				ui.Param{Key: "DST", Value: strconv.FormatBool(dst)},
			)
			return nil
		})
	},
}
