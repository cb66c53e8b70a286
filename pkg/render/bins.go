package render

import "image"

// TileSize is the edge length of a rasterizer tile in pixels. A 32x32 tile of
// float64 depth is 8 KiB, which stays resident in L1 while the tile is shaded.
const TileSize = 32

// TileBins assigns triangles to the screen tiles their bounding boxes overlap.
// Bins are rebuilt every frame with a counting sort into one flat index slice,
// so building allocates only when the triangle count grows.
type TileBins struct {
	width, height  int
	tilesX, tilesY int

	counts  []int // triangles per tile
	offsets []int // start of each tile in indices; len = tiles+1
	cursor  []int // per-tile write position during scatter
	indices []int // triangle indices grouped by tile
}

// NewTileBins creates bins covering a width x height target.
func NewTileBins(width, height int) *TileBins {
	b := &TileBins{}
	b.Resize(width, height)
	return b
}

// Resize adapts the tile grid to a new target size. Bins are empty afterwards.
func (b *TileBins) Resize(width, height int) {
	b.width, b.height = max(width, 0), max(height, 0)
	b.tilesX = (b.width + TileSize - 1) / TileSize
	b.tilesY = (b.height + TileSize - 1) / TileSize
	n := b.tilesX * b.tilesY
	b.counts = make([]int, n)
	b.offsets = make([]int, n+1)
	b.cursor = make([]int, n)
	b.indices = b.indices[:0]
}

// Len returns the number of tiles.
func (b *TileBins) Len() int {
	return b.tilesX * b.tilesY
}

// Grid returns the number of tile columns and rows.
func (b *TileBins) Grid() (cols, rows int) {
	return b.tilesX, b.tilesY
}

// TileRect returns the pixel rectangle of tile t, clipped to the target.
func (b *TileBins) TileRect(t int) image.Rectangle {
	tx, ty := t%b.tilesX, t/b.tilesX
	r := image.Rect(tx*TileSize, ty*TileSize, (tx+1)*TileSize, (ty+1)*TileSize)
	return r.Intersect(image.Rect(0, 0, b.width, b.height))
}

// Tile returns the triangle indices binned into tile t, in submission order.
// The slice aliases internal storage and is valid until the next Build.
func (b *TileBins) Tile(t int) []int {
	return b.indices[b.offsets[t]:b.offsets[t+1]]
}

// tileRange converts a pixel rectangle into an inclusive tile range.
func (b *TileBins) tileRange(r image.Rectangle) (tx0, ty0, tx1, ty1 int, ok bool) {
	r = r.Intersect(image.Rect(0, 0, b.width, b.height))
	if r.Empty() {
		return 0, 0, 0, 0, false
	}
	return r.Min.X / TileSize, r.Min.Y / TileSize,
		(r.Max.X - 1) / TileSize, (r.Max.Y - 1) / TileSize, true
}

// Build bins every triangle by its pixel bounding box. bounds[i] is the
// rectangle of triangle i; empty or off-screen rectangles are not binned.
func (b *TileBins) Build(bounds []image.Rectangle) {
	clear(b.counts)

	// Pass 1: count.
	total := 0
	for _, r := range bounds {
		tx0, ty0, tx1, ty1, ok := b.tileRange(r)
		if !ok {
			continue
		}
		for ty := ty0; ty <= ty1; ty++ {
			row := ty * b.tilesX
			for tx := tx0; tx <= tx1; tx++ {
				b.counts[row+tx]++
			}
		}
		total += (tx1 - tx0 + 1) * (ty1 - ty0 + 1)
	}

	// Prefix sums.
	b.offsets[0] = 0
	for t, c := range b.counts {
		b.offsets[t+1] = b.offsets[t] + c
	}
	copy(b.cursor, b.offsets[:len(b.cursor)])

	if cap(b.indices) < total {
		b.indices = make([]int, total)
	}
	b.indices = b.indices[:total]

	// Pass 2: scatter.
	for i, r := range bounds {
		tx0, ty0, tx1, ty1, ok := b.tileRange(r)
		if !ok {
			continue
		}
		for ty := ty0; ty <= ty1; ty++ {
			row := ty * b.tilesX
			for tx := tx0; tx <= tx1; tx++ {
				t := row + tx
				b.indices[b.cursor[t]] = i
				b.cursor[t]++
			}
		}
	}
}
