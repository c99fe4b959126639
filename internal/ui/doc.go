// Package ui provides terminal UI components for the hacklet CLI.
//
// This package uses Lipgloss to render styled terminal output. All
// components follow a "run once and exit" pattern - they render output
// compellingly but don't require user interaction.
//
// # Components
//
//   - Result: success/failure boxes with labelled details and
//     troubleshooting tips
//   - RenderSamples: power sample table for one socket
//   - RenderNetworks: table of commissioned networks from the registry
//
// # Logging Integration
//
// This package expects logging to be controlled via the HACKLET_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly. Set HACKLET_LOG_LEVEL to
// "debug", "info", "warn", or "error" to enable logging output.
package ui
