package upload

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
)

// CropSquare decodes data and returns the centered square crop, re-encoded
// as PNG. The crop side is the smaller of the two dimensions.
func CropSquare(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Pt(x0, y0), draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}

// CropCircle applies a circular alpha mask to the centered square crop and
// returns a PNG. Pixels outside the inscribed circle become transparent.
func CropCircle(data []byte) ([]byte, error) {
	squared, err := CropSquare(data)
	if err != nil {
		return nil, err
	}
	src, err := png.Decode(bytes.NewReader(squared))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cropped image: %w", err)
	}

	side := src.Bounds().Dx()
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.DrawMask(dst, dst.Bounds(), src, image.Point{}, &circleMask{side: side}, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode masked image: %w", err)
	}
	return buf.Bytes(), nil
}

// circleMask is an alpha mask for the circle inscribed in a side x side
// square.
type circleMask struct {
	side int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle { return image.Rect(0, 0, c.side, c.side) }

func (c *circleMask) At(x, y int) color.Color {
	r := float64(c.side) / 2
	dx := float64(x) + 0.5 - r
	dy := float64(y) + 0.5 - r
	if dx*dx+dy*dy <= r*r {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
