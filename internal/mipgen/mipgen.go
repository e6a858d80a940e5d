package mipgen

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Level is one mip level's resolved dimensions and pixel data, in
// tightly-packed RGBA8 order ready for a single staging-buffer upload.
type Level struct {
	Width, Height int
	Pixels        []byte
}

// Kind selects the resampling filter, matching the original's
// channel-appropriate resizer: color channels use a smooth filter, while
// data channels that must not blend across texel boundaries (e.g. normal
// maps encoded with a hard cutoff, or single-channel masks) use nearest
// neighbor.
type Kind int

const (
	KindColor Kind = iota
	KindNearest
)

// Generate builds the full mip chain for a base-level RGBA8 image, down to
// a 1x1 level. levels[0] is the (copied) base level itself.
func Generate(base *image.RGBA, kind Kind) []Level {
	w, h := base.Bounds().Dx(), base.Bounds().Dy()

	levels := []Level{{Width: w, Height: h, Pixels: append([]byte(nil), base.Pix...)}}

	src := base
	for w > 1 || h > 1 {
		nw, nh := w/2, h/2
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		scaler := resizer(kind)
		scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

		levels = append(levels, Level{Width: nw, Height: nh, Pixels: append([]byte(nil), dst.Pix...)})

		src = dst
		w, h = nw, nh
	}

	return levels
}

func resizer(kind Kind) xdraw.Scaler {
	switch kind {
	case KindNearest:
		return xdraw.NearestNeighbor
	default:
		return xdraw.BiLinear
	}
}
