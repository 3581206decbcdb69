// Package layout resolves the launcher's well-known directories and file
// names relative to a configured home directory, and enumerates installed
// executable images by naming convention.
package layout
