// Package render burns committed annotations into a copy of the photo.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
)

// Sizes in overlay units. They are scaled with the frame-to-image ratio so
// marks look the same as they did on screen.
const (
	StrokeWidth  = 3.0
	MarkerRadius = 8.0
	CircleRadius = 24.0
	ArrowHead    = 14.0
	TickLength   = 10.0

	circleSegments = 64
	labelPadding   = 3
)

// Options tune the output image
type Options struct {
	// MaxWidth downscales wider photos before drawing; zero keeps the original size
	MaxWidth int
	// Quality is the JPEG quality used by WriteFile
	Quality int
}

// Overlay draws annotations in list order, so later ones end up on top.
// Coordinates are mapped from frame to the image bounds; an unbounded frame
// means overlay and image pixels coincide.
func Overlay(img image.Image, frame editor.Frame, annotations []models.Annotation, opts Options) (*image.RGBA, error) {
	dst := toRGBA(img, opts.MaxWidth)
	c := newCanvas(dst, frame)

	for i, a := range annotations {
		if err := a.Complete(); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		col, err := ParseColor(a.Color)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		c.draw(a, col)
	}
	return dst, nil
}

func toRGBA(img image.Image, maxWidth int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}
	return dst
}

// canvas maps overlay coordinates to image pixels
type canvas struct {
	dst    *image.RGBA
	sx, sy float64
	scale  float64
}

func newCanvas(dst *image.RGBA, frame editor.Frame) *canvas {
	c := &canvas{dst: dst, sx: 1, sy: 1, scale: 1}
	if !frame.Unbounded() {
		b := dst.Bounds()
		c.sx = float64(b.Dx()) / frame.Width
		c.sy = float64(b.Dy()) / frame.Height
		c.scale = (c.sx + c.sy) / 2
	}
	return c
}

func (c *canvas) pt(p models.Point) (float64, float64) {
	return p.X * c.sx, p.Y * c.sy
}

func (c *canvas) draw(a models.Annotation, col color.RGBA) {
	x, y := c.pt(a.Start())
	stroke := math.Max(1, StrokeWidth*c.scale)

	switch a.Type {
	case models.TypeMarker:
		c.fill(col, circlePath(x, y, MarkerRadius*c.scale, false))

	case models.TypeCircle:
		r := CircleRadius * c.scale
		c.fill(col, circlePath(x, y, r+stroke/2, false), circlePath(x, y, r-stroke/2, true))

	case models.TypeArrow:
		end, _ := a.End()
		x2, y2 := c.pt(end)
		c.fill(col, segmentPath(x, y, x2, y2, stroke))
		c.fill(col, arrowHeadPath(x, y, x2, y2, ArrowHead*c.scale))

	case models.TypeMeasurement:
		end, _ := a.End()
		x2, y2 := c.pt(end)
		c.fill(col, segmentPath(x, y, x2, y2, stroke))
		nx, ny := normal(x, y, x2, y2)
		half := TickLength * c.scale / 2
		c.fill(col, segmentPath(x-nx*half, y-ny*half, x+nx*half, y+ny*half, stroke))
		c.fill(col, segmentPath(x2-nx*half, y2-ny*half, x2+nx*half, y2+ny*half, stroke))
		c.label(a.Text, (x+x2)/2, (y+y2)/2, col)

	case models.TypeText:
		c.label(a.Text, x, y, col)
	}
}

// fill rasterizes the given closed paths into their bounding box only,
// which keeps memory proportional to the mark rather than the photo.
func (c *canvas) fill(col color.RGBA, paths ...[][2]float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, path := range paths {
		for _, p := range path {
			minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
			minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
		}
	}

	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1).Intersect(c.dst.Bounds())
	if box.Empty() {
		return
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		z.MoveTo(float32(path[0][0]-ox), float32(path[0][1]-oy))
		for _, p := range path[1:] {
			z.LineTo(float32(p[0]-ox), float32(p[1]-oy))
		}
		z.ClosePath()
	}
	z.Draw(c.dst, box, image.NewUniform(col), image.Point{})
}

// label draws text on a filled box in the annotation color, centred on (x, y)
func (c *canvas) label(text string, x, y float64, col color.RGBA) {
	if text == "" {
		return
	}
	d := &font.Drawer{Dst: c.dst, Src: image.NewUniform(contrast(col)), Face: basicfont.Face7x13}
	w := d.MeasureString(text).Ceil()
	metrics := basicfont.Face7x13.Metrics()
	h := (metrics.Ascent + metrics.Descent).Ceil()

	left := int(math.Round(x)) - w/2
	top := int(math.Round(y)) - h/2
	box := image.Rect(left-labelPadding, top-labelPadding, left+w+labelPadding, top+h+labelPadding)
	xdraw.Draw(c.dst, box.Intersect(c.dst.Bounds()), image.NewUniform(col), image.Point{}, xdraw.Over)

	d.Dot = fixed.P(left, top+metrics.Ascent.Ceil())
	d.DrawString(text)
}

func circlePath(cx, cy, r float64, reverse bool) [][2]float64 {
	if r <= 0 {
		return nil
	}
	path := make([][2]float64, circleSegments)
	for i := range path {
		angle := 2 * math.Pi * float64(i) / circleSegments
		if reverse {
			angle = -angle
		}
		path[i] = [2]float64{cx + r*math.Cos(angle), cy + r*math.Sin(angle)}
	}
	return path
}

// segmentPath is a rectangle of the given width around the segment
func segmentPath(x1, y1, x2, y2, width float64) [][2]float64 {
	nx, ny := normal(x1, y1, x2, y2)
	h := width / 2
	return [][2]float64{
		{x1 + nx*h, y1 + ny*h},
		{x2 + nx*h, y2 + ny*h},
		{x2 - nx*h, y2 - ny*h},
		{x1 - nx*h, y1 - ny*h},
	}
}

func arrowHeadPath(x1, y1, x2, y2, size float64) [][2]float64 {
	angle := math.Atan2(y2-y1, x2-x1)
	a1 := angle + math.Pi/6
	a2 := angle - math.Pi/6
	return [][2]float64{
		{x2, y2},
		{x2 - math.Cos(a1)*size, y2 - math.Sin(a1)*size},
		{x2 - math.Cos(a2)*size, y2 - math.Sin(a2)*size},
	}
}

// normal returns the unit vector perpendicular to the segment.
// Degenerate segments get a vertical normal.
func normal(x1, y1, x2, y2 float64) (float64, float64) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return 0, 1
	}
	return -dy / length, dx / length
}

// contrast picks black or white text for a background color
func contrast(bg color.RGBA) color.Color {
	brightness := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if brightness < 128 {
		return color.White
	}
	return color.Black
}

// ParseColor parses a #RRGGBB palette color
func ParseColor(s string) (color.RGBA, error) {
	if !models.IsHexColor(s) {
		return color.RGBA{}, fmt.Errorf("invalid color: %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// ReadImage decodes a JPEG or PNG photo
func ReadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}
	return img, nil
}

// Size returns the pixel dimensions of the photo at path without decoding it fully
func Size(path string) (image.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, fmt.Errorf("not a supported photo: %w", err)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

// WriteFile encodes img to path, as PNG for .png paths and JPEG otherwise
func WriteFile(path string, img image.Image, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		err = png.Encode(f, img)
	default:
		quality := opts.Quality
		if quality <= 0 {
			quality = 90
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return f.Close()
}

// File reads the photo at src, draws the annotations and writes the result to dst
func File(src, dst string, frame editor.Frame, annotations []models.Annotation, opts Options) error {
	img, err := ReadImage(src)
	if err != nil {
		return err
	}
	out, err := Overlay(img, frame, annotations, opts)
	if err != nil {
		return err
	}
	return WriteFile(dst, out, opts)
}
