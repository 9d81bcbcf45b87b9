package transform

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

func fillRGBA(dst *image.RGBA, c color.RGBA) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// cropRGBA copies r, relative to img's origin, into a new origin-based image.
func cropRGBA(img *image.RGBA, r image.Rectangle) *image.RGBA {
	src := r.Add(img.Bounds().Min).Intersect(img.Bounds())
	out := image.NewRGBA(image.Rectangle{Max: r.Size()})
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)
	return out
}

func mirrorRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rectangle{Max: b.Size()})
	m := f64.Aff3{
		-1, 0, float64(b.Max.X),
		0, 1, float64(-b.Min.Y),
	}
	draw.NearestNeighbor.Transform(out, m, img, b, draw.Src, nil)
	return out
}

// warpRGBA maps img through s2d into a new image of the given size.
// Destination pixels with no source are left at bg.
func warpRGBA(img *image.RGBA, size image.Point, s2d f64.Aff3, bg color.RGBA, interp draw.Interpolator) *image.RGBA {
	out := image.NewRGBA(image.Rectangle{Max: size})
	fillRGBA(out, bg)
	interp.Transform(out, s2d, img, img.Bounds(), draw.Src, nil)
	return out
}
