package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const (
	maxImageDimension = 1024 // Maximum width or height in pixels
	jpegQuality       = 85
)

// Orientation extracts the EXIF orientation from JPEG data. Missing or
// unreadable EXIF yields the default orientation 1.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	orientation, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := orientation.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// GeoTag extracts the capture coordinates from the JPEG's EXIF GPS block.
// Used as a fallback when the mobile client did not send coordinates.
func GeoTag(data []byte) (lat, lon float64, ok bool) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	lat, lon, err = x.LatLong()
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// correctOrientation applies the EXIF orientation to the decoded image.
func correctOrientation(img image.Image, orientation int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	switch orientation {
	case 2: // Flip horizontal
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(width-1-x, y, img.At(x, y))
			}
		}
		return newImg
	case 3: // Rotate 180
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(width-1-x, height-1-y, img.At(x, y))
			}
		}
		return newImg
	case 4: // Flip vertical
		newImg := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(x, height-1-y, img.At(x, y))
			}
		}
		return newImg
	case 5, 7: // Transpose / transverse
		newImg := image.NewRGBA(image.Rect(0, 0, height, width))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(height-1-y, x, img.At(x, y))
			}
		}
		return newImg
	case 6: // Rotate 90 clockwise
		newImg := image.NewRGBA(image.Rect(0, 0, height, width))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(height-1-y, x, img.At(x, y))
			}
		}
		return newImg
	case 8: // Rotate 90 counter-clockwise
		newImg := image.NewRGBA(image.Rect(0, 0, height, width))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				newImg.Set(y, width-1-x, img.At(x, y))
			}
		}
		return newImg
	default: // Orientation 1 or unknown
		return img
	}
}

// Normalize prepares a captured JPEG for storage: applies the EXIF
// orientation and downscales to at most maxImageDimension on the longest
// side, preserving aspect ratio. Images already within limits and already
// upright are returned as-is.
func Normalize(imageData []byte) ([]byte, error) {
	orientation := Orientation(imageData)

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if orientation != 1 {
		img = correctOrientation(img, orientation)
		log.Infof("Applied orientation correction: %d", orientation)
	}

	bounds := img.Bounds()
	originalWidth := bounds.Dx()
	originalHeight := bounds.Dy()

	if originalWidth <= maxImageDimension && originalHeight <= maxImageDimension {
		if orientation == 1 {
			return imageData, nil
		}
		// Re-encode so the stored bytes are upright.
		return encodeJPEG(img)
	}

	scaleX := float64(maxImageDimension) / float64(originalWidth)
	scaleY := float64(maxImageDimension) / float64(originalHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := int(float64(originalWidth) * scale)
	newHeight := int(float64(originalHeight) * scale)
	if newWidth > maxImageDimension {
		newWidth = maxImageDimension
	}
	if newHeight > maxImageDimension {
		newHeight = maxImageDimension
	}

	newImg := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(newImg, newImg.Bounds(), img, img.Bounds(), draw.Over, nil)

	out, err := encodeJPEG(newImg)
	if err != nil {
		return nil, err
	}

	log.Infof("Evidence image normalized: %d bytes -> %d bytes (original: %dx%d, new: %dx%d, orientation: %d)",
		len(imageData), len(out), originalWidth, originalHeight, newWidth, newHeight, orientation)
	return out, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
