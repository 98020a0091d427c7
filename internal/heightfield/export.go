package heightfield

import (
	"fmt"
	"image"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

// WritePreviewPNG writes a grayscale snapshot of the heightfield, scaled to
// size x size with bilinear filtering. Heights are normalized into the full
// gray range so previews stay readable at any height scale.
func WritePreviewPNG(h *Heightfield, path string, size int) error {
	if size <= 0 {
		size = h.Resolution
	}
	stats := h.ComputeStats()
	span := stats.Max - stats.Min
	if span <= 0 {
		span = 1
	}

	src := image.NewGray16(image.Rect(0, 0, h.Resolution, h.Resolution))
	for z := 0; z < h.Resolution; z++ {
		for x := 0; x < h.Resolution; x++ {
			v := (float64(h.At(x, z)) - stats.Min) / span
			g := uint16(v * 0xFFFF)
			i := src.PixOffset(x, z)
			src.Pix[i] = uint8(g >> 8)
			src.Pix[i+1] = uint8(g)
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create preview file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, dst); err != nil {
		return fmt.Errorf("could not encode preview: %v", err)
	}
	return nil
}
