// Package cli implements the hoststats command-line interface.
//
// # Command Structure
//
//	hoststats collector   - Sample CPU/memory and push to the dashboard
//	hoststats dashboard   - Serve the viewer page and relay samples
//	hoststats status      - Show which daemons are running
//	hoststats watch       - Live terminal viewer
//	hoststats version     - Print version information
//
// collector and dashboard share the daemon flags. Without flags they start
// a detached copy of themselves with --interactive and record its PID;
// --stop signals the recorded process; --interactive runs in the
// foreground until interrupted.
//
// # Flag Handling
//
// Flags that map to config keys (--debug, --display-host, --sleep-seconds,
// --listen) only override the config file when given explicitly. The same
// flags are forwarded to the background process on start.
package cli
