package zquad

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// BaseSize returns the level-0 size for an image: per axis, the largest power of two
// not exceeding half the image dimension, and never less than 1.
func BaseSize(image common.Size) common.Size {
	return common.Size{
		Width:  max(common.PrevPow2(image.Width/2), 1),
		Height: max(common.PrevPow2(image.Height/2), 1),
	}
}

// MaxLevels returns the number of levels needed for the coarsest level to be 1x1.
func MaxLevels(image common.Size) int {
	base := BaseSize(image)
	n := 1
	for w, h := base.Width, base.Height; w > 1 || h > 1; w, h = w>>1, h>>1 {
		n++
	}
	return n
}

// LevelSizes returns the size of every level. Level i is the base size shifted right
// by i, clamped to at least 1 per axis. levels <= 0 selects MaxLevels.
//
// Parameters:
//   - image: the depth buffer size
//   - levels: the number of levels to build
//
// Returns:
//   - []common.Size: one size per level, finest first
func LevelSizes(image common.Size, levels int) []common.Size {
	if levels <= 0 {
		levels = MaxLevels(image)
	}
	base := BaseSize(image)
	sizes := make([]common.Size, levels)
	for i := range sizes {
		sizes[i] = common.Size{
			Width:  max(base.Width>>i, 1),
			Height: max(base.Height>>i, 1),
		}
	}
	return sizes
}

// Footprint returns the pixel extent of one level-0 cell: ceil(image/base) per axis.
func Footprint(image, base common.Size) common.Size {
	return common.Size{
		Width:  common.CeilDiv(image.Width, base.Width),
		Height: common.CeilDiv(image.Height, base.Height),
	}
}

// Cell returns the cell of level that covers pixel (x, y). The level-0 cell is the
// pixel divided by the footprint; coarser levels shift it right once per level,
// clamped to the level edge. This is the lookup the tracer uses, so it must agree
// with ReduceMinFootprint and ReduceMin2x2.
//
// Parameters:
//   - x, y: the pixel
//   - image: the depth buffer size
//   - sizes: the level sizes, as returned by LevelSizes
//   - level: the level to index
//
// Returns:
//   - uint32, uint32: the cell coordinates
func Cell(x, y uint32, image common.Size, sizes []common.Size, level int) (uint32, uint32) {
	fp := Footprint(image, sizes[0])
	s := sizes[level]
	return min((x/fp.Width)>>level, s.Width-1), min((y/fp.Height)>>level, s.Height-1)
}

// ReduceMinFootprint is the CPU reference of the level-0 reduction: each output cell
// holds the minimum depth over its ceil(image/lod) footprint.
//
// Parameters:
//   - depth: row-major depth values of an image
//   - image: the image size
//   - lod: the output size
//
// Returns:
//   - []float32: row-major minima, lod.Width*lod.Height values
func ReduceMinFootprint(depth []float32, image, lod common.Size) []float32 {
	fp := Footprint(image, lod)
	fw, fh := fp.Width, fp.Height
	out := make([]float32, lod.Width*lod.Height)
	for y := range lod.Height {
		for x := range lod.Width {
			nearest := float32(1)
			for dy := range fh {
				for dx := range fw {
					px, py := x*fw+dx, y*fh+dy
					if px < image.Width && py < image.Height {
						nearest = min(nearest, depth[py*image.Width+px])
					}
				}
			}
			out[y*lod.Width+x] = nearest
		}
	}
	return out
}

// ReduceMin2x2 is the CPU reference of the level-N reduction: each output cell holds
// the minimum of the 2x2 cells below it, with reads clamped to the input edge.
//
// Parameters:
//   - prev: row-major values of the finer level
//   - prevSize: the finer level size
//   - size: the output size
//
// Returns:
//   - []float32: row-major minima
func ReduceMin2x2(prev []float32, prevSize, size common.Size) []float32 {
	at := func(x, y uint32) float32 {
		x = min(x, prevSize.Width-1)
		y = min(y, prevSize.Height-1)
		return prev[y*prevSize.Width+x]
	}
	out := make([]float32, size.Width*size.Height)
	for y := range size.Height {
		for x := range size.Width {
			out[y*size.Width+x] = float32(math.Min(
				math.Min(float64(at(2*x, 2*y)), float64(at(2*x+1, 2*y))),
				math.Min(float64(at(2*x, 2*y+1)), float64(at(2*x+1, 2*y+1))),
			))
		}
	}
	return out
}
