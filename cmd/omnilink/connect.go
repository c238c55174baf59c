package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/omnilink/internal/config"
	"github.com/muurk/omnilink/internal/logging"
	"github.com/muurk/omnilink/internal/message"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/protocol"
	"github.com/muurk/omnilink/internal/ui"
)

// keyEnv holds a private key for non-interactive use
const keyEnv = "OMNILINK_KEY"

// Connection flags
var (
	profileName        string
	address            string
	port               int
	keyFile            string
	logLevel           string
	showProtocolEvents bool
	commandTimeout     time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&profileName, "profile", "p", "", "Saved controller profile (default profile if empty)")
	flags.StringVar(&address, "address", "", "Controller host or IP (overrides the profile)")
	flags.IntVar(&port, "port", 0, "Controller TCP port (default 4369)")
	flags.StringVar(&keyFile, "key-file", "", "File holding the controller private key")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default from OMNILINK_LOG_LEVEL")
	flags.BoolVar(&showProtocolEvents, "show-protocol-events", false, "Log every packet sent and received")
	flags.DurationVar(&commandTimeout, "timeout", 30*time.Second, "Overall timeout for one-shot commands")
}

func initLogging() error {
	if logLevel != "" {
		return logging.Initialize(logLevel)
	}
	// A bad OMNILINK_LOG_LEVEL falls back to the silent logger
	_ = logging.InitializeFromEnv()
	return nil
}

// target is a resolved controller connection
type target struct {
	name    string // Profile name, empty for flag-only use
	profile *config.Profile
}

// resolveTarget merges the selected profile with the connection flags
func resolveTarget() (*target, error) {
	t := &target{profile: &config.Profile{Notifications: true}}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if p, name, err := registry.Profile(profileName); err == nil {
		copied := *p
		t.profile, t.name = &copied, name
	} else if profileName != "" || address == "" {
		return nil, fmt.Errorf("%w (use --address or 'omnilink config add')", err)
	}

	if address != "" {
		t.profile.Address = address
	}
	if port != 0 {
		t.profile.Port = port
	}
	if keyFile != "" {
		t.profile.Key, t.profile.KeyFile = "", keyFile
	}
	if showProtocolEvents {
		t.profile.ShowProtocolEvents = true
	}
	return t, nil
}

// privateKey resolves the key from the environment, the profile or a prompt
func (t *target) privateKey() (protocol.Key, error) {
	if env := os.Getenv(keyEnv); env != "" && keyFile == "" {
		return protocol.ParsePrivateKey(env)
	}
	if t.profile.HasKey() {
		return t.profile.PrivateKey()
	}
	return promptKey()
}

// promptKey reads the key from the terminal without echo
func promptKey() (protocol.Key, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return protocol.Key{}, fmt.Errorf("no private key configured; set %s, --key-file or a profile key", keyEnv)
	}
	fmt.Fprint(os.Stderr, "Controller private key: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return protocol.Key{}, fmt.Errorf("failed to read key: %w", err)
	}
	return protocol.ParsePrivateKey(string(raw))
}

// clientConfig builds the client settings for a target
func (t *target) clientConfig() (panel.Config, error) {
	key, err := t.privateKey()
	if err != nil {
		return panel.Config{}, err
	}
	cfg := panel.DefaultConfig()
	cfg.Address = t.profile.Address
	if t.profile.Port != 0 {
		cfg.Port = t.profile.Port
	}
	cfg.PrivateKey = key
	cfg.ClockSync = t.profile.ClockSync
	cfg.Notifications = t.profile.Notifications
	cfg.ShowProtocolEvents = t.profile.ShowProtocolEvents
	cfg.Logger = logging.GetLogger()
	return cfg, nil
}

// headerParams describes the target for command headers
func (t *target) headerParams(cfg panel.Config) []ui.Param {
	params := []ui.Param{{Key: "Controller", Value: cfg.HostPort()}}
	if t.name != "" {
		params = append(params, ui.Param{Key: "Profile", Value: t.name})
	}
	return params
}

// signalContext is cancelled by SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withClient connects once, runs fn and closes the session. Failures are
// rendered with troubleshooting advice.
func withClient(title string, fn func(ctx context.Context, c *panel.Client) error) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	cfg, err := t.clientConfig()
	if err != nil {
		return err
	}
	cfg.ConnectAttempts = 1
	// One-shot commands do not need the background timers
	cfg.PollInterval = time.Hour
	cfg.ClockSync = false

	ctx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	c := panel.New(cfg)
	defer func() {
		_ = c.Close()
		logging.Sync()
	}()

	err = c.Connect(ctx)
	if err == nil {
		err = fn(ctx, c)
	}
	if err != nil {
		renderFailure(title, err)
		return errSilent
	}
	return nil
}

// errSilent reports failure after the error has been rendered
var errSilent = errors.New("command failed")

func renderFailure(title string, err error) {
	fmt.Fprintln(os.Stderr, failureResult(title, err).Render())
}

// failureResult builds the result box for a failed command. A command the
// controller refused is a warning, everything else a failure.
func failureResult(title string, err error) *ui.Result {
	hint := panel.TroubleshootingHint(err)
	var tips []string
	for _, line := range strings.Split(hint, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "•"))
		if line != "" && line != "Troubleshooting:" {
			tips = append(tips, line)
		}
	}

	if panel.IsRejected(err) {
		logging.Warn("Command rejected", zap.String("command", title), zap.Error(err))
		result := ui.NewWarningResult(title+" not accepted", ui.Param{Key: "Reason", Value: panel.ShortMessage(err)})
		result.Troubleshooting = tips
		return result
	}
	logging.Error("Command failed", zap.String("command", title), zap.Error(err))
	return ui.NewFailureResult(title, errors.New(panel.ShortMessage(err)), tips)
}

// parseID parses an object number argument
func parseID(kind, arg string) (uint16, error) {
	n, err := strconv.ParseUint(arg, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s number %q", kind, arg)
	}
	return uint16(n), nil
}

// resolveObject accepts an object number or a name, discovering names from
// the controller when needed
func resolveObject(ctx context.Context, c *panel.Client, o message.ObjectType, arg string) (uint16, error) {
	if id, err := parseID(o.String(), arg); err == nil {
		return id, nil
	}
	inv := c.Inventory()
	if inv == nil || inv.Capacities[o] == 0 {
		var err error
		if inv, err = c.DiscoverObjects(ctx, o); err != nil {
			return 0, err
		}
	}
	for _, obj := range inv.Objects[o] {
		if strings.EqualFold(obj.Name, arg) {
			return obj.ID, nil
		}
	}
	return 0, &panel.PanelError{Type: panel.ErrTypeNotFound, Op: "resolve " + o.String(), Message: fmt.Sprintf("no %s named %q", o, arg)}
}
