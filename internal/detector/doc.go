// Package detector answers "is the target application already running?".
//
// Two strategies implement the same Detector interface: a command-line
// substring scan over the process table (approximate, matching the
// historical behavior) and a PID-file check (stronger). The orchestrator
// depends only on the interface, so the strategy is a configuration choice.
package detector
