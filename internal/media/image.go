package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"

	jpegQuality = 85
)

var pngEnd = []byte("IEND")

// SanitizePNG cuts data after the first IEND chunk type and its 4-byte CRC.
// Buffers without a complete IEND chunk are returned unchanged.
func SanitizePNG(data []byte) []byte {
	idx := bytes.Index(data, pngEnd)
	if idx < 0 {
		return data
	}
	end := idx + len(pngEnd) + 4
	if end > len(data) {
		return data
	}
	return data[:end]
}

// FitWithin shrinks img to fit a maxW×maxH box keeping its aspect ratio.
// Images already inside the box are returned as is.
func FitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// EncodeImage decodes data as mimeType, shrinks it into the bounding box and
// returns it re-encoded in the same format as base64.
func EncodeImage(data []byte, mimeType string) (string, error) {
	var (
		img image.Image
		err error
	)
	switch mimeType {
	case mimePNG:
		img, err = png.Decode(bytes.NewReader(SanitizePNG(data)))
	case mimeJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img = FitWithin(img, MaxImageDimension, MaxImageDimension)

	var buf bytes.Buffer
	if mimeType == mimePNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	if ExceedsImageLimit(len(encoded)) {
		return "", fmt.Errorf("%w: encoded image is %d base64 bytes", ErrTooLarge, len(encoded))
	}
	return encoded, nil
}
