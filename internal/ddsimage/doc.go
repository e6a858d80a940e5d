// Package ddsimage parses the DDS-family image container: a fixed 128-byte
// header (magic + 124-byte DDS_HEADER), an optional 20-byte DX10 extension
// header, and the format-recognition/tie-break rules spec §4.8 defines.
package ddsimage
