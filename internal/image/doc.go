// Package image models installed executable images and maintains the
// "latest" pointer: a symlink that always resolves to the image with the
// newest modification timestamp.
package image
