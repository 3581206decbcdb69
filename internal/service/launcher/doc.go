// Package launcher orchestrates the end-to-end launch flow: it keeps the
// latest pointer aimed at the newest executable image (installing one on
// demand), skips launching when an instance is already running, rotates
// the log files, and spawns the application detached with a short liveness
// probe. It also exposes the standalone installation operation.
package launcher
