// Package mipgen generates a full CPU-side mip chain for an uploaded
// texture using a channel-appropriate resizer (spec §4.6's createTexture),
// so every subresource can be uploaded from a single staging buffer.
package mipgen
