package render

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pders01/sitephoto/internal/editor"
	"github.com/pders01/sitephoto/internal/models"
	"github.com/pders01/sitephoto/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func isColor(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	got := img.RGBAAt(x, y)
	assert.Equal(t, want, got, "pixel (%d,%d)", x, y)
}

var red = color.RGBA{R: 0xFF, G: 0x3B, B: 0x30, A: 0xFF}

func TestOverlayMarkerMapsFrameToImage(t *testing.T) {
	src := blank(400, 200)
	marker := models.NewAnnotation("m", models.TypeMarker, models.Point{X: 50, Y: 25}, "#FF3B30")

	out, err := Overlay(src, editor.Frame{Width: 100, Height: 50}, []models.Annotation{marker}, Options{})
	require.NoError(t, err)

	// overlay (50,25) is image (200,100)
	isColor(t, out, 200, 100, red)
	isColor(t, out, 20, 20, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
}

func TestOverlayCircleIsRing(t *testing.T) {
	src := blank(200, 200)
	circle := models.NewAnnotation("c", models.TypeCircle, models.Point{X: 100, Y: 100}, "#FF3B30")

	out, err := Overlay(src, editor.Frame{}, []models.Annotation{circle}, Options{})
	require.NoError(t, err)

	isColor(t, out, 100+int(CircleRadius), 100, red)
	isColor(t, out, 100, 100, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
}

func TestOverlayLaterAnnotationsDrawOnTop(t *testing.T) {
	src := blank(100, 100)
	first := models.NewAnnotation("a", models.TypeMarker, models.Point{X: 50, Y: 50}, "#FF3B30")
	second := models.NewAnnotation("b", models.TypeMarker, models.Point{X: 50, Y: 50}, "#007AFF")

	out, err := Overlay(src, editor.Frame{}, []models.Annotation{first, second}, Options{})
	require.NoError(t, err)
	isColor(t, out, 50, 50, color.RGBA{R: 0x00, G: 0x7A, B: 0xFF, A: 0xFF})
}

func TestOverlayArrowAndMeasurement(t *testing.T) {
	src := blank(200, 200)
	arrow := models.NewSegment("a", models.TypeArrow, models.Point{X: 10, Y: 50}, models.Point{X: 190, Y: 50}, "#FF3B30")
	measure := models.NewSegment("m", models.TypeMeasurement, models.Point{X: 10, Y: 150}, models.Point{X: 190, Y: 150}, "#FF3B30")
	measure.Text = "12 ft"

	out, err := Overlay(src, editor.Frame{}, []models.Annotation{arrow, measure}, Options{})
	require.NoError(t, err)

	isColor(t, out, 100, 50, red)
	isColor(t, out, 40, 150, red)
	isColor(t, out, 100, 100, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
}

func TestOverlayRejectsBadInput(t *testing.T) {
	src := blank(10, 10)

	incomplete := models.NewAnnotation("t", models.TypeText, models.Point{}, "#FF3B30")
	_, err := Overlay(src, editor.Frame{}, []models.Annotation{incomplete}, Options{})
	assert.ErrorIs(t, err, models.ErrIncomplete)

	badColor := models.NewAnnotation("m", models.TypeMarker, models.Point{}, "red")
	_, err = Overlay(src, editor.Frame{}, []models.Annotation{badColor}, Options{})
	assert.ErrorContains(t, err, "invalid color")
}

func TestOverlayMaxWidth(t *testing.T) {
	out, err := Overlay(blank(400, 300), editor.Frame{}, nil, Options{MaxWidth: 200})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 150), out.Bounds())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#34c759")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x34, G: 0xC7, B: 0x59, A: 0xFF}, c)

	_, err = ParseColor("#12345")
	assert.Error(t, err)
}

func TestFileRoundTrip(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	src := ws.CreateJPEG("photo.jpg", 64, 48)
	marker := models.NewAnnotation("m", models.TypeMarker, models.Point{X: 32, Y: 24}, "#FF3B30")

	for _, name := range []string{"out.jpg", "out.png"} {
		dst := filepath.Join(ws.Path, name)
		require.NoError(t, File(src, dst, editor.Frame{Width: 64, Height: 48}, []models.Annotation{marker}, Options{}))

		img, err := ReadImage(dst)
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
	}

	err := File(filepath.Join(ws.Path, "missing.jpg"), filepath.Join(ws.Path, "x.jpg"), editor.Frame{}, nil, Options{})
	assert.ErrorContains(t, err, "failed to open photo")
}

func TestSize(t *testing.T) {
	ws := testutil.NewTempWorkspace(t)
	defer ws.Cleanup()

	size, err := Size(ws.CreateJPEG("p.jpg", 30, 20))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), size)

	_, err = Size(ws.CreateFile("notes.txt", "not a photo"))
	assert.ErrorContains(t, err, "not a supported photo")
}
