// Package app provides application initialization and lifecycle management
// for the curve service. It wires configuration, logging, tracing, the table
// cache, the service layer, the websocket hub and the HTTP server together
// at startup, and handles graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from defaults, file and environment
//	2. Initialize logging and tracing
//	3. Create the generator, table cache and services
//	4. Start the websocket hub
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then ensures active requests are
// completed, websocket connections are closed cleanly, pending spans are
// flushed and the log file is closed.
//
// All initialization errors are returned to the caller; the package never
// calls os.Exit() itself.
package app
