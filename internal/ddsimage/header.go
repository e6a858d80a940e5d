package ddsimage

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no recognized pixel format, fourCC,
// or DX10 DXGI format matches the header (spec §4.8).
var ErrUnsupportedFormat = errors.New("ddsimage: unsupported pixel format")

// ErrBadMagic is returned when the file does not begin with "DDS ".
var ErrBadMagic = errors.New("ddsimage: missing DDS magic header")

// ErrTruncated is returned when the blob is too short to hold the headers
// its own size fields claim.
var ErrTruncated = errors.New("ddsimage: truncated header")

const (
	magic          = "DDS "
	headerSize     = 124
	// offset of DDS_PIXELFORMAT within DDS_HEADER: dwSize, dwFlags, dwHeight,
	// dwWidth, dwPitchOrLinearSize, dwDepth, dwMipMapCount (7 DWORDs), then
	// dwReserved1[11] (11 DWORDs).
	pixelFormatOff  = 7*4 + 11*4
	ddspfSize       = 32
	dx10HeaderSize = 20

	ddpfFourCC     = 0x4
	ddscapsComplex = 0x8
	ddscaps2Cubemap = 0x200
)

// Header is the decoded subset of DDS_HEADER (+ DDS_PIXELFORMAT, + the
// optional DX10 extension header) that this backend needs.
type Header struct {
	Width, Height, Depth int
	MipMapCount           int
	Format                Format
	DX10Format            uint32 // valid only when Format == FormatDX10
	IsCubemap             bool
	ArraySize             int // from the DX10 header; 1 if absent
	DataOffset            int // byte offset into the blob where pixel data begins
}

// Decode parses a DDS blob's header and returns the information the loader
// needs to upload subresources: dimensions, mip count, recognized format,
// cubemap/array detection, and where pixel data begins.
func Decode(blob []byte) (*Header, error) {
	if len(blob) < 4+headerSize {
		return nil, ErrTruncated
	}
	if string(blob[0:4]) != magic {
		return nil, ErrBadMagic
	}

	h := blob[4:]
	height := int(binary.LittleEndian.Uint32(h[8:12]))
	width := int(binary.LittleEndian.Uint32(h[12:16]))
	depth := int(binary.LittleEndian.Uint32(h[20:24]))
	mipMapCount := int(binary.LittleEndian.Uint32(h[24:28]))
	if depth == 0 {
		depth = 1
	}
	if mipMapCount == 0 {
		mipMapCount = 1
	}

	capsOff := pixelFormatOff + ddspfSize
	caps2 := binary.LittleEndian.Uint32(h[capsOff+4 : capsOff+8])
	isCubemap := caps2&ddscaps2Cubemap != 0

	pf := h[pixelFormatOff : pixelFormatOff+ddspfSize]
	pfFlags := binary.LittleEndian.Uint32(pf[4:8])

	result := &Header{
		Width:       width,
		Height:      height,
		Depth:       depth,
		MipMapCount: mipMapCount,
		IsCubemap:   isCubemap,
		ArraySize:   1,
		DataOffset:  4 + headerSize,
	}

	if pfFlags&ddpfFourCC == 0 {
		f, err := formatFromUncompressed(pf)
		if err != nil {
			return nil, err
		}
		result.Format = f
		return result, nil
	}

	fourCC := string(pf[8:12])
	switch fourCC {
	case fourCCDXT1:
		result.Format = FormatDXT1
	case fourCCDXT3:
		result.Format = FormatDXT3
	case fourCCDXT5:
		result.Format = FormatDXT5
	case fourCCATI1, fourCCBC4U:
		result.Format = FormatATI1
	case fourCCATI2, fourCCBC5U:
		result.Format = FormatATI2
	case fourCCDX10:
		if len(blob) < result.DataOffset+dx10HeaderSize {
			return nil, ErrTruncated
		}
		ext := blob[result.DataOffset:]
		result.Format = FormatDX10
		result.DX10Format = binary.LittleEndian.Uint32(ext[0:4])
		arraySize := binary.LittleEndian.Uint32(ext[12:16])
		if arraySize > 0 {
			result.ArraySize = int(arraySize)
		}
		result.DataOffset += dx10HeaderSize
	default:
		return nil, fmt.Errorf("%w: fourCC %q", ErrUnsupportedFormat, fourCC)
	}

	return result, nil
}

// formatFromUncompressed recognizes the uncompressed formats spec §4.8
// lists (BGRA8, BGR8, BGR5A1, BGR565, indexed-8) from the pixel format's
// bit-count and channel masks.
func formatFromUncompressed(pf []byte) (Format, error) {
	rgbBitCount := binary.LittleEndian.Uint32(pf[12:16])
	rMask := binary.LittleEndian.Uint32(pf[16:20])
	gMask := binary.LittleEndian.Uint32(pf[20:24])
	bMask := binary.LittleEndian.Uint32(pf[24:28])
	aMask := binary.LittleEndian.Uint32(pf[28:32])

	switch {
	case rgbBitCount == 32 && rMask == 0x00FF0000 && gMask == 0x0000FF00 && bMask == 0x000000FF && aMask == 0xFF000000:
		return FormatBGRA8, nil
	case rgbBitCount == 24 && rMask == 0xFF0000 && gMask == 0x00FF00 && bMask == 0x0000FF:
		return FormatBGR8, nil
	case rgbBitCount == 16 && rMask == 0x7C00 && gMask == 0x03E0 && bMask == 0x001F && aMask == 0x8000:
		return FormatBGR5A1, nil
	case rgbBitCount == 16 && rMask == 0xF800 && gMask == 0x07E0 && bMask == 0x001F:
		return FormatBGR565, nil
	case rgbBitCount == 8:
		return FormatIndexed8, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: rgbBitCount=%d", ErrUnsupportedFormat, rgbBitCount)
	}
}
