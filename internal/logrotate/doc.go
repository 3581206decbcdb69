// Package logrotate bounds log file size with rename-based rotation,
// keeping a single `.old` generation of history.
package logrotate
