// Package config defines launcher settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the home directory, application name, download URL
// and the operational thresholds (log size cap, probe delay, download
// timeout). All fields default sensibly, so running without a settings
// file is fully supported.
package config
