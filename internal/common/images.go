package common

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
)

var ErrCannotCompress = errors.New("cannot compress image under the size limit")

// Qualities and dimensions tried in order when squeezing an artwork under the
// on-chain limit.
var (
	compressQualities  = []int{85, 75, 65, 55, 45, 35}
	compressDimensions = []uint{512, 448, 384, 320, 256, 192, 160, 128}
)

// DecodeImage decodes jpeg, png or gif. The mime is only a hint, the content
// is sniffed when the mime is unknown.
func DecodeImage(mime string, data io.Reader) (img image.Image, err error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		img, err = jpeg.Decode(data)
	case "image/png":
		img, err = png.Decode(data)
	case "image/gif":
		img, err = gif.Decode(data)
	default:
		img, _, err = image.Decode(data)
	}

	return img, err
}

func EncodeImage(mime string, img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)

	var err error
	switch mime {
	case "image/jpeg", "image/jpg":
		err = jpeg.Encode(buf, flatten(img), &jpeg.Options{Quality: 90})
	case "image/png":
		err = png.Encode(buf, img)
	case "image/gif":
		err = gif.Encode(buf, img, nil)
	default:
		return nil, fmt.Errorf("unsupported mime %s", mime)
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Bound shrinks img so that no side exceeds maxDimension, keeping the aspect
// ratio. Smaller images are returned untouched.
func Bound(img image.Image, maxDimension uint) image.Image {
	b := img.Bounds()
	if uint(b.Dx()) <= maxDimension && uint(b.Dy()) <= maxDimension {
		return img
	}

	return resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3)
}

// CompressToBase64 encodes img as jpeg with decreasing quality and size until
// its base64 form is at most maxBytes long.
func CompressToBase64(img image.Image, maxBytes int) (string, error) {
	for _, dim := range compressDimensions {
		bounded := flatten(Bound(img, dim))
		for _, quality := range compressQualities {
			buf := new(bytes.Buffer)
			if err := jpeg.Encode(buf, bounded, &jpeg.Options{Quality: quality}); err != nil {
				return "", err
			}

			if base64.StdEncoding.EncodedLen(buf.Len()) <= maxBytes {
				return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
			}
		}
	}

	return "", ErrCannotCompress
}

// flatten draws img on a white background, jpeg has no alpha channel.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
