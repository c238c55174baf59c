package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/omnilink/internal/config"
	"github.com/muurk/omnilink/internal/panel"
	"github.com/muurk/omnilink/internal/ui"
)

// config add flags
var (
	profileClockSync     bool
	profileNotifications bool
	profileStoreKey      bool
	profileMakeDefault   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage saved controller profiles",
	Long: `Manage the controller profiles saved in the user config file.

A profile holds a controller address and, optionally, where to find its
private key. Commands use the default profile unless --profile is given.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		table := ui.Table{Title: "Profiles"}
		for i, name := range registry.Names() {
			p := registry.Panels[name]
			row := ui.Row{
				ID:     uint16(i + 1),
				Name:   name,
				State:  fmt.Sprintf("%s:%d", p.Address, profilePort(p)),
				Detail: keySource(p),
			}
			if name == registry.Default {
				row.Name += " (default)"
				row.Level = ui.LevelNotice
			}
			table.Rows = append(table.Rows, row)
		}
		if len(table.Rows) == 0 {
			fmt.Println("No profiles saved. Add one with 'omnilink config add <name> --address <host>'.")
			return nil
		}
		fmt.Println(table.Render())
		return nil
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a profile",
	Example: `  omnilink config add home --address 192.168.1.40 --key-file ~/.omnilink.key
  omnilink config add cabin --address cabin.example.net --store-key`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if address == "" {
			return fmt.Errorf("--address is required")
		}
		p := &config.Profile{
			Address:            address,
			Port:               port,
			KeyFile:            keyFile,
			ClockSync:          profileClockSync,
			Notifications:      profileNotifications,
			ShowProtocolEvents: showProtocolEvents,
		}
		if profileStoreKey {
			key, err := promptKey()
			if err != nil {
				return err
			}
			p.Key, p.KeyFile = key.String(), ""
		}
		if p.KeyFile != "" {
			// Fail early on an unreadable key file
			if _, err := p.PrivateKey(); err != nil {
				return err
			}
		}

		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		registry.SetProfile(args[0], p)
		if profileMakeDefault {
			registry.Default = args[0]
		}
		if err := registry.Save(); err != nil {
			return err
		}

		printDone("Profile saved",
			ui.Param{Key: "Name", Value: args[0]},
			ui.Param{Key: "Controller", Value: fmt.Sprintf("%s:%d", p.Address, profilePort(p))},
			ui.Param{Key: "Key", Value: keySource(p)},
			ui.Param{Key: "Default", Value: strconv.FormatBool(registry.Default == args[0])},
		)
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if !registry.RemoveProfile(args[0]) {
			return fmt.Errorf("profile %q not found", args[0])
		}
		if err := registry.Save(); err != nil {
			return err
		}
		printDone("Profile removed", ui.Param{Key: "Name", Value: args[0]})
		return nil
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if _, ok := registry.Panels[args[0]]; !ok {
			return fmt.Errorf("profile %q not found", args[0])
		}
		registry.Default = args[0]
		if err := registry.Save(); err != nil {
			return err
		}
		printDone("Default profile set", ui.Param{Key: "Name", Value: args[0]})
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().BoolVar(&profileClockSync, "clock-sync", false, "Keep the controller clock in step with this host")
	configAddCmd.Flags().BoolVar(&profileNotifications, "notifications", true, "Request unsolicited notifications")
	configAddCmd.Flags().BoolVar(&profileStoreKey, "store-key", false, "Prompt for the private key and store it in the profile")
	configAddCmd.Flags().BoolVar(&profileMakeDefault, "default", false, "Make this the default profile")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configDefaultCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func profilePort(p *config.Profile) int {
	if p.Port != 0 {
		return p.Port
	}
	return panel.DefaultPort
}

func keySource(p *config.Profile) string {
	switch {
	case p.Key != "":
		return "stored"
	case p.KeyFile != "":
		return p.KeyFile
	}
	return "prompt"
}
