// Package spawn is the platform capability for launching the target
// application: spawn detached, redirect output streams to log files,
// suppress input, and poll for an early exit.
package spawn
