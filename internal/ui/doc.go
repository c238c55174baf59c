// Package ui provides terminal output components for the omnilink CLI.
//
// Components render once to a string with Lipgloss; nothing here is
// interactive except the confirmation prompt.
//
//   - Header: banner naming the command and the controller it talks to
//   - Table: aligned object listing with a styled state column
//   - Result: success, failure or warning box
//   - Confirm: typed confirmation before an irreversible command
//
// Example:
//
//	fmt.Println(ui.NewHeader("Area Status", "omnilink status areas", []ui.Param{
//	    {Key: "Controller", Value: "192.168.1.20:4369"},
//	}).Render())
//
// # Logging Integration
//
// Logging is controlled by the OMNILINK_LOG_LEVEL environment variable.
// When unset, zap logging is silent so the styled output is displayed
// cleanly.
package ui
