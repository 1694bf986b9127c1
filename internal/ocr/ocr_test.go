package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

type slowEngine struct {
	delay time.Duration
}

func (s slowEngine) Name() string { return "slow" }

func (s slowEngine) Recognize(ctx context.Context, _ image.Image, _ Options) (string, error) {
	select {
	case <-time.After(s.delay):
		return "late text", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	assert.Equal(t, []string{"ind", "eng"}, opts.languages())

	opts = Options{Languages: []string{"eng"}}.WithPSM(PSMSingleBlock)
	assert.Equal(t, []string{"eng"}, opts.languages())
	assert.Equal(t, PSMSingleBlock, opts.PageSegMode)
}

func TestWithTimeout_Expires(t *testing.T) {
	engine := WithTimeout(slowEngine{delay: time.Second}, 20*time.Millisecond)
	assert.Equal(t, "slow", engine.Name())

	text, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	assert.Empty(t, text)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWithTimeout_Completes(t *testing.T) {
	engine := WithTimeout(slowEngine{delay: time.Millisecond}, time.Second)

	text, err := engine.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)), Options{})
	require.NoError(t, err)
	assert.Equal(t, "late text", text)
}

func TestWithTimeout_NonPositive(t *testing.T) {
	inner := slowEngine{}
	assert.Equal(t, Engine(inner), WithTimeout(inner, 0))
}

func TestTesseractEngine_NilImage(t *testing.T) {
	_, err := NewTesseractEngine().Recognize(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestTesseractEngine_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTesseractEngine().Recognize(ctx, image.NewGray(image.Rect(0, 0, 4, 4)), Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestTesseractEngine_Recognize(t *testing.T) {
	ensureTesseractAvailable(t)

	small := image.NewRGBA(image.Rect(0, 0, 160, 30))
	draw.Draw(small, small.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, 20),
	}
	d.DrawString("HELLO BOQ")

	img := image.NewRGBA(image.Rect(0, 0, 640, 120))
	xdraw.NearestNeighbor.Scale(img, img.Bounds(), small, small.Bounds(), xdraw.Src, nil)

	text, err := NewTesseractEngine().Recognize(context.Background(), img, Options{
		Languages:   []string{"eng"},
		PageSegMode: PSMSingleBlock,
		DPI:         300,
	})
	require.NoError(t, err)
	t.Logf("recognized: %q", text)
}
