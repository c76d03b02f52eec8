// Package connectors holds the sources homenet reads candidate files from.
// The filesystem subpackage walks local directories, reads photo library
// bundles and watches roots for changes.
package connectors
