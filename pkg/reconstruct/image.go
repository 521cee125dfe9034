package reconstruct

import (
	"image"
	"image/color"
	"math"

	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
)

// Bitmap marks which tiles of a grid matched. It is explicit, per tile
// state; membership is never encoded into a pixel channel, where a real
// transparent pixel would collide with the marker.
type Bitmap []bool

// MemberBitmap validates a membership result against the grid's element
// count and expands it into a per tile bitmap.
func MemberBitmap(result *psi.Result, n int64) (Bitmap, error) {
	members, err := memberSet(result, n)
	if err != nil {
		return nil, err
	}
	var bm = make(Bitmap, n)
	for m := range members {
		bm[m] = true
	}
	return bm, nil
}

// Smooth rebuilds a full image from the grid: member tiles keep their
// source pixels, every non member tile is filled with the rounded mean of
// its member cardinal neighbors' own per channel tile averages, at full
// opacity, or with solid opaque white when it has no member neighbor.
//
// Fill decisions read only the untouched source grid and the membership
// bitmap, both fixed before the first tile is written, so the traversal
// order cannot drift an already smoothed neighbor's value into a fill.
func Smooth(grid *segment.TileGrid, result *psi.Result) (*image.RGBA, error) {
	bm, err := MemberBitmap(result, grid.N())
	if err != nil {
		return nil, err
	}
	out := newOutput(grid)
	for ty := 0; ty < grid.Rows; ty++ {
		for tx := 0; tx < grid.Cols; tx++ {
			if bm[ty*grid.Cols+tx] {
				writeTile(out, grid, tx, ty)
				continue
			}
			fillTile(out, grid, tx, ty, neighborMean(grid, bm, tx, ty))
		}
	}
	return out, nil
}

// Blank rebuilds a full image where non member tiles stay fully
// transparent zeroed pixels.
func Blank(grid *segment.TileGrid, result *psi.Result) (*image.RGBA, error) {
	bm, err := MemberBitmap(result, grid.N())
	if err != nil {
		return nil, err
	}
	out := newOutput(grid)
	for ty := 0; ty < grid.Rows; ty++ {
		for tx := 0; tx < grid.Cols; tx++ {
			if bm[ty*grid.Cols+tx] {
				writeTile(out, grid, tx, ty)
			}
		}
	}
	return out, nil
}

// neighborMean averages the per channel tile averages of the member
// cardinal neighbors of (tx, ty), mean per tile first, then across
// neighbors, rounded at full opacity. No member neighbor yields opaque
// white.
func neighborMean(grid *segment.TileGrid, bm Bitmap, tx, ty int) color.RGBA {
	var sum [3]float64
	var n int
	for _, d := range [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}} {
		nx, ny := tx+d[0], ty+d[1]
		if nx < 0 || nx >= grid.Cols || ny < 0 || ny >= grid.Rows {
			continue
		}
		if !bm[ny*grid.Cols+nx] {
			continue
		}
		avg := tileAverage(grid.Tile(nx, ny), grid.Size)
		for c := 0; c < 3; c++ {
			sum[c] += avg[c]
		}
		n++
	}
	if n == 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{
		R: uint8(math.Round(sum[0] / float64(n))),
		G: uint8(math.Round(sum[1] / float64(n))),
		B: uint8(math.Round(sum[2] / float64(n))),
		A: 255,
	}
}

// tileAverage computes the mean of each color channel over one source
// tile's pixels.
func tileAverage(t segment.Tile, size int) [3]float64 {
	var sum [3]float64
	pixels := t.Pixels()
	for off := 0; off < len(pixels); off += segment.Channels {
		for c := 0; c < 3; c++ {
			sum[c] += float64(pixels[off+c])
		}
	}
	count := float64(size * size)
	for c := 0; c < 3; c++ {
		sum[c] /= count
	}
	return sum
}

func newOutput(grid *segment.TileGrid) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, grid.Cols*grid.Size, grid.Rows*grid.Size))
}

// writeTile copies the source pixels of tile (tx, ty) into the output
// buffer. The two buffers are never aliased.
func writeTile(out *image.RGBA, grid *segment.TileGrid, tx, ty int) {
	pixels := grid.Tile(tx, ty).Pixels()
	rowLen := grid.Size * segment.Channels
	for y := 0; y < grid.Size; y++ {
		dst := (ty*grid.Size+y)*out.Stride + tx*rowLen
		copy(out.Pix[dst:dst+rowLen], pixels[y*rowLen:(y+1)*rowLen])
	}
}

func fillTile(out *image.RGBA, grid *segment.TileGrid, tx, ty int, c color.RGBA) {
	for y := 0; y < grid.Size; y++ {
		for x := 0; x < grid.Size; x++ {
			out.SetRGBA(tx*grid.Size+x, ty*grid.Size+y, c)
		}
	}
}
