// Package file provides the TOML-backed configuration store.
//
// Keys are addressed with dot notation ("ocr.endpoint") and written back as
// nested tables, so the file on disk reads:
//
//	[ocr]
//	endpoint = "https://vision.example.com"
package file
