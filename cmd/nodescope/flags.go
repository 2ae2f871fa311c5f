package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagLogFile = "log-file"

	// Source flags shared by view, serve, inspect and export
	FlagWatch   = "watch"
	FlagTimeout = "timeout"

	// View flags
	FlagLayouts  = "layouts"
	FlagDuration = "duration"

	// Serve flags
	FlagAddr = "addr"

	// Export flags
	FlagSelect    = "select"
	FlagWindowEnd = "window-end"
	FlagZoom      = "zoom"
	FlagOutput    = "output"
	FlagIndent    = "indent"

	// Output format flags
	FlagJSON = "json"
)
