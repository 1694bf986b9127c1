package boq

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

const (
	// upscaleFactor enlarges small table fonts before recognition
	upscaleFactor = 2
	// thresholdBlockSize is the side of the neighbourhood used for the local mean
	thresholdBlockSize = 31
	// thresholdOffset is subtracted from the local mean
	thresholdOffset = 10
)

// gaussianSigma derives the blur sigma from a kernel size the same way OpenCV
// does when the sigma is left unspecified.
func gaussianSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

// Preprocess prepares a scanned table for OCR: grayscale, 2x Catmull-Rom
// upscale, then a Gaussian adaptive threshold. Returns nil for an empty image.
func Preprocess(img image.Image) *image.Gray {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	gray := imaging.Grayscale(img)
	src := gray.Bounds()

	scaled := image.NewGray(image.Rect(0, 0, src.Dx()*upscaleFactor, src.Dy()*upscaleFactor))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, src, draw.Src, nil)

	return adaptiveThreshold(scaled, thresholdBlockSize, thresholdOffset)
}

// adaptiveThreshold sets a pixel to white when it is brighter than the
// Gaussian-weighted mean of its neighbourhood minus offset, else black.
func adaptiveThreshold(img *image.Gray, blockSize, offset int) *image.Gray {
	mean := imaging.Blur(img, gaussianSigma(blockSize))
	b := img.Bounds()
	out := image.NewGray(b)

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(img.Pix[y*img.Stride+x])
			m := int(mean.Pix[y*mean.Stride+x*4])
			if v > m-offset {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
