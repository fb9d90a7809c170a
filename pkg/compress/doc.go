// Package compress detects and decodes the zlib/gzip container formats used
// for compressed profile-load payloads, falling back to the input unchanged
// when no known compression signature is present.
package compress
