// Package installer fetches a new executable image from the fixed download
// URL, stages it in a scratch directory, and materializes it atomically as
// a timestamped version candidate in the binary directory.
package installer
