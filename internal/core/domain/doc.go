// Package domain holds the types every other homenet package shares:
// document and image records, extraction results, scan outcomes,
// settings and scheduler state.
//
// It imports nothing outside the standard library, and nothing in
// internal/ may be imported from here.
package domain
