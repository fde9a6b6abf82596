package annotate

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_ProducesDecodableJPEG(t *testing.T) {
	shot, err := Render(120, 80, true, []Stroke{
		{Color: "#3b82f6", Points: []Point{{X: 10, Y: 10}, {X: 60, Y: 40}, {X: 100, Y: 20}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "annotation.jpg", shot.Name)
	assert.Equal(t, "image/jpeg", shot.MimeType)
	assert.True(t, strings.HasPrefix(shot.Preview, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(shot.Data)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestRender_StrokeLeavesInk(t *testing.T) {
	shot, err := Render(60, 60, false, []Stroke{
		{Color: "#ef4444", Points: []Point{{X: 10, Y: 30}, {X: 50, Y: 30}}},
	})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(shot.Data)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	// On the light background the red stroke should dominate the pixel at
	// the stroke's midpoint, within JPEG tolerance.
	r, g, b, _ := img.At(30, 30).RGBA()
	assert.Greater(t, r>>8, uint32(150))
	assert.Less(t, g>>8, uint32(140))
	assert.Less(t, b>>8, uint32(140))
}

func TestRender_EmptyStrokesStillRenders(t *testing.T) {
	shot, err := Render(32, 32, false, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, shot.Data)
}

func TestRender_BadColorFallsBack(t *testing.T) {
	_, err := Render(32, 32, true, []Stroke{
		{Color: "cornflower", Points: []Point{{X: 5, Y: 5}}},
	})
	assert.NoError(t, err)
}

func TestRender_RejectsInvalidCanvas(t *testing.T) {
	_, err := Render(0, 100, true, nil)
	assert.Error(t, err)
	_, err = Render(100, -1, false, nil)
	assert.Error(t, err)
}
