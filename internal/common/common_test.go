package common

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func noisyImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r := rand.New(rand.NewSource(1))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), 255})
		}
	}

	return img
}

func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	return img
}

func TestBound(t *testing.T) {
	img := Bound(noisyImage(200, 100), 50)
	require.Equal(t, 50, img.Bounds().Dx())
	require.Equal(t, 25, img.Bounds().Dy())

	small := noisyImage(20, 10)
	require.Equal(t, small, Bound(small, 50))
}

func TestCompressToBase64(t *testing.T) {
	const limit = 24 * 1024

	s, err := CompressToBase64(gradientImage(600, 600), limit)
	require.NoError(t, err)
	require.LessOrEqual(t, len(s), limit)

	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	_, err = DecodeImage("", bytes.NewReader(b))
	require.NoError(t, err)

	_, err = CompressToBase64(noisyImage(600, 600), 10)
	require.ErrorIs(t, err, ErrCannotCompress)
}

func TestDecodeEncodeImage(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, noisyImage(4, 4)))

	img, err := DecodeImage("image/png", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	b, err := EncodeImage("image/jpeg", img)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	_, err = EncodeImage("image/webp", img)
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	a := []int64{1, 2, 3, 4, 5}
	require.Equal(t, []int64{1, 2}, Batch(&a, 2))
	require.Equal(t, []int64{3, 4}, Batch(&a, 2))
	require.Equal(t, []int64{5}, Batch(&a, 2))
	require.Empty(t, a)
	require.Equal(t, "1,2", FormatFIDs([]int64{1, 2}))
}

func TestRenderTemplate(t *testing.T) {
	s, err := RenderTemplate("cast", " hi {{.Mentions}} {{.Vars.app}} ", map[string]any{
		"Mentions": "@alice",
		"Vars":     map[string]string{"app": "geoplet"},
	})
	require.NoError(t, err)
	require.Equal(t, "hi @alice geoplet", s)

	_, err = RenderTemplate("cast", "hi {{.Missing}}", map[string]any{"Mentions": "@alice"})
	require.Error(t, err)

	_, err = RenderTemplate("cast", "hi {{.Mentions", nil)
	require.Error(t, err)
}
