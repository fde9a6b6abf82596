// Package annotate rasterizes freehand annotation strokes into a JPEG
// attachment that multimodal AI models can consume.
package annotate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"strconv"
	"strings"

	"forge-server/internal/models"
)

// Point is one sampled pen position in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement.
type Stroke struct {
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

const (
	penRadius   = 2.0 // half of the 4px pen width
	jpegQuality = 85

	// Canvas backgrounds matching the editor's dark and light viewports.
	darkBackground  = "#050505"
	lightBackground = "#f3f4f6"
)

// Render draws the strokes over a solid background and returns the result
// as a base64 JPEG attachment named annotation.jpg.
func Render(width, height int, dark bool, strokes []Stroke) (models.Attachment, error) {
	if width <= 0 || height <= 0 {
		return models.Attachment{}, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	bg := lightBackground
	if dark {
		bg = darkBackground
	}
	bgColor, err := parseHexColor(bg)
	if err != nil {
		return models.Attachment{}, err
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	for _, stroke := range strokes {
		pen, err := parseHexColor(stroke.Color)
		if err != nil {
			// Unknown colors degrade to a visible default instead of
			// failing the whole render.
			pen = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
		}
		drawStroke(img, stroke.Points, pen)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return models.Attachment{}, fmt.Errorf("encode annotation: %w", err)
	}

	data := base64.StdEncoding.EncodeToString(buf.Bytes())
	return models.Attachment{
		Name:     "annotation.jpg",
		MimeType: "image/jpeg",
		Data:     data,
		Preview:  "data:image/jpeg;base64," + data,
	}, nil
}

// drawStroke stamps a filled disc along each segment so joints come out
// rounded, the same look a canvas round line cap gives.
func drawStroke(img *image.RGBA, points []Point, pen color.RGBA) {
	if len(points) == 0 {
		return
	}
	if len(points) == 1 {
		stampDisc(img, points[0], pen)
		return
	}
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		dist := math.Hypot(b.X-a.X, b.Y-a.Y)
		steps := int(dist) + 1
		for s := 0; s <= steps; s++ {
			t := float64(s) / float64(steps)
			stampDisc(img, Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, pen)
		}
	}
}

func stampDisc(img *image.RGBA, center Point, pen color.RGBA) {
	bounds := img.Bounds()
	minX := int(math.Floor(center.X - penRadius))
	maxX := int(math.Ceil(center.X + penRadius))
	minY := int(math.Floor(center.Y - penRadius))
	maxY := int(math.Ceil(center.Y + penRadius))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			dx := float64(x) + 0.5 - center.X
			dy := float64(y) + 0.5 - center.Y
			if dx*dx+dy*dy <= penRadius*penRadius {
				img.SetRGBA(x, y, pen)
			}
		}
	}
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("unsupported color %q", s)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}
