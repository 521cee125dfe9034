package segment

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// Channels is the number of channel bytes carried per pixel in a tile
// payload (RGBA).
const Channels = 4

// headerLen is the coordinate prefix of a tile's canonical bytes.
const headerLen = 8

// ErrTileSize is returned for a non positive tile size.
var ErrTileSize = fmt.Errorf("tile size must be positive")

// Tile is the image refinement of an element: one size by size block of
// pixels. Its canonical bytes embed the grid coordinates ahead of the pixel
// payload so that two tiles with identical pixels at different positions
// are not confused as equal.
type Tile struct {
	TX, TY int
	Canon  []byte
}

// Pixels returns the RGBA payload of the tile, row-major, without the
// coordinate header.
func (t Tile) Pixels() []byte {
	return t.Canon[headerLen:]
}

// TileGrid is the ordered tile decomposition of one image. The grid owns
// the source pixel copies; reconstruction writes a separate output buffer
// and never aliases these.
type TileGrid struct {
	Size       int
	Cols, Rows int
	Tiles      []Tile // row-major, index = ty*Cols+tx
}

// N returns the element count of the grid.
func (g *TileGrid) N() int64 {
	return int64(len(g.Tiles))
}

// Tile returns the source tile at grid position (tx, ty).
func (g *TileGrid) Tile(tx, ty int) Tile {
	return g.Tiles[ty*g.Cols+tx]
}

// Elements returns the grid as an ordered element sequence.
func (g *TileGrid) Elements() []Element {
	var elements = make([]Element, len(g.Tiles))
	for i, t := range g.Tiles {
		elements[i] = Element{Index: int64(i), Canon: t.Canon}
	}
	return elements
}

// SplitImage decomposes img into a ⌊W/size⌋ x ⌊H/size⌋ tile grid. Trailing
// partial rows and columns are dropped, not padded, so both parties derive
// the same grid from captures of equal dimensions.
func SplitImage(img image.Image, size int) (*TileGrid, error) {
	if size <= 0 {
		return nil, ErrTileSize
	}
	bounds := img.Bounds()
	cols := bounds.Dx() / size
	rows := bounds.Dy() / size

	grid := &TileGrid{
		Size:  size,
		Cols:  cols,
		Rows:  rows,
		Tiles: make([]Tile, 0, cols*rows),
	}
	for ty := 0; ty < rows; ty++ {
		for tx := 0; tx < cols; tx++ {
			canon := make([]byte, headerLen, headerLen+size*size*Channels)
			binary.BigEndian.PutUint32(canon[0:4], uint32(tx))
			binary.BigEndian.PutUint32(canon[4:8], uint32(ty))
			x0 := bounds.Min.X + tx*size
			y0 := bounds.Min.Y + ty*size
			for y := y0; y < y0+size; y++ {
				for x := x0; x < x0+size; x++ {
					c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
					canon = append(canon, c.R, c.G, c.B, c.A)
				}
			}
			grid.Tiles = append(grid.Tiles, Tile{TX: tx, TY: ty, Canon: canon})
		}
	}
	return grid, nil
}
