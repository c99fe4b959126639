// Package logging provides structured logging for the hacklet CLI.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the tool. Logging is silent by default so normal
// CLI output stays clean; set HACKLET_LOG_LEVEL (or pass --debug) to see it.
//
// # Log Levels
//
//   - Debug: Detailed debugging info (raw TX/RX frame dumps, port discovery)
//   - Info: Normal operations (boot handshake, lock state, transactions)
//   - Warn: Non-fatal issues (retries, ignored chatter)
//   - Error: Fatal issues (startup failures, dead hardware)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Found device",
//	    zap.String("device", "0xa1b2c3d4"),
//	    zap.String("network", "0x1234"),
//	)
//
// # Protocol Debugging
//
// LogRawBytes dumps wire traffic in hex and ASCII at debug level:
//
//	logging.LogRawBytes("TX", frame)
//	logging.LogRawBytes("RX", frame)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
