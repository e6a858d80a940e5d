package gfx

import (
	"image"

	"github.com/embergfx/backend/internal/ddsimage"
	"github.com/embergfx/backend/internal/mipgen"
	"github.com/gogpu/gputypes"
)

// rgbaFromBytes wraps a tightly packed RGBA8 byte slice in an *image.RGBA
// without copying, so CreateTexture's caller-supplied base level can feed
// mipgen.Generate directly.
func rgbaFromBytes(width, height uint32, data []byte) *image.RGBA {
	return &image.RGBA{
		Pix:    data,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}
}

// mipgenKind picks the resampling filter: normal maps and masks must not
// blend across texel boundaries, so TexturePointFilter selects nearest
// neighbor the same way the original distinguished data textures from
// color textures (internal/mipgen's Kind, grounded on renderer.go's
// per-texture-kind resize path).
func mipgenKind(flags TextureFlags) mipgen.Kind {
	if flags&TexturePointFilter != 0 {
		return mipgen.KindNearest
	}
	return mipgen.KindColor
}

// flattenLevels concatenates a mip chain's pixel data into the single
// tightly packed byte slice the Backend.CreateTexture upload path expects,
// base level first.
func flattenLevels(levels []mipgen.Level) []byte {
	total := 0
	for _, l := range levels {
		total += len(l.Pixels)
	}
	out := make([]byte, 0, total)
	for _, l := range levels {
		out = append(out, l.Pixels...)
	}
	return out
}

// ddsFormatToNative maps the decoded DDS pixel format to the backend's
// native texture-format enum. Named analogously to backend/gogpu/adapter.go's
// convertTextureFormat (gpucore.TextureFormat -> types.TextureFormat): the
// uncompressed RGBA8Unorm/BGRA8Unorm names are directly grounded there, the
// block-compressed BC1..BC5 names follow the same Format+BitDepth naming
// convention by analogy since no block-compressed conversion appears
// anywhere in the retrieved pack.
func ddsFormatToNative(f ddsimage.Format) gputypes.TextureFormat {
	switch f {
	case ddsimage.FormatDXT1:
		return gputypes.TextureFormatBC1Unorm
	case ddsimage.FormatDXT3:
		return gputypes.TextureFormatBC2Unorm
	case ddsimage.FormatDXT5:
		return gputypes.TextureFormatBC3Unorm
	case ddsimage.FormatATI1:
		return gputypes.TextureFormatBC4Unorm
	case ddsimage.FormatATI2:
		return gputypes.TextureFormatBC5Unorm
	case ddsimage.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}
