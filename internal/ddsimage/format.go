package ddsimage

// Format enumerates the pixel formats this adapter recognizes (spec §4.8).
type Format int

const (
	FormatUnknown Format = iota
	FormatDXT1
	FormatDXT3
	FormatDXT5
	FormatATI1
	FormatATI2
	FormatBGRA8
	FormatBGR8
	FormatBGR5A1
	FormatBGR565
	FormatIndexed8
	FormatDX10 // actual format carried separately, from the DXGI_FORMAT field
)

// fourCC codes recognized in DDS_PIXELFORMAT.FourCC.
const (
	fourCCDXT1  = "DXT1"
	fourCCDXT3  = "DXT3"
	fourCCDXT5  = "DXT5"
	fourCCATI1  = "ATI1"
	fourCCATI2  = "ATI2"
	fourCCBC4U  = "BC4U"
	fourCCBC5U  = "BC5U"
	fourCCDX10  = "DX10"
)

// isBlockCompressed reports whether f is a block-compressed (DXTC-family)
// format, the class sizeDXTC applies to.
func (f Format) isBlockCompressed() bool {
	switch f {
	case FormatDXT1, FormatDXT3, FormatDXT5, FormatATI1, FormatATI2:
		return true
	default:
		return false
	}
}

// blockBytes returns the byte size of a single 4x4 compressed block: 8 for
// BC1/BC4-class formats (DXT1, ATI1), 16 for everything else compressed
// (DXT3, DXT5, ATI2), per spec §4.8's sizeDXTC helper.
func (f Format) blockBytes() int {
	switch f {
	case FormatDXT1, FormatATI1:
		return 8
	default:
		return 16
	}
}

// SizeDXTC computes the byte size of a block-compressed image of the given
// dimensions and format: ((w+3)/4) * ((h+3)/4) * blockBytes.
func SizeDXTC(w, h int, f Format) int {
	blocksWide := (w + 3) / 4
	blocksHigh := (h + 3) / 4
	return blocksWide * blocksHigh * f.blockBytes()
}
