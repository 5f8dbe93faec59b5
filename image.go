// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageFunc is a function that takes a file extension and decides if
// this file extension is supported.
//
// The extension passed to this function could be for example ".txt" or ".jpg".
// JPGAndPNG and AllFormats are implementations.
type SupportedImageFunc func(ext string) bool

// JPGAndPNG is an implementation of SupportedImageFunc accepting jpg and png
// file extensions.
func JPGAndPNG(ext string) bool {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// AllFormats accepts every extension we have a decoder for: jpg, png, bmp,
// tiff and webp.
func AllFormats(ext string) bool {
	switch strings.ToLower(ext) {
	case ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return JPGAndPNG(ext)
	}
}

// SubImager is a type that can produce a sub image from an original image.
type SubImager interface {
	SubImage(r image.Rectangle) image.Image
}

// SubImage returns a subimage of img given the boundaries r.
// The rectangle should be a valid area in the image. If the image type does
// not have a sub image method an error is returned.
func SubImage(img image.Image, r image.Rectangle) (image.Image, error) {
	imager, ok := img.(SubImager)
	if !ok {
		return nil, fmt.Errorf("can't create sub image from type %v", reflect.TypeOf(img))
	}
	return imager.SubImage(r), nil
}

// ImageResizer resizes an image to the given width and height.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// NfntResizer uses the nfnt/resize package to resize an image.
// It is used for the library tiles, those are usually scaled down a lot and
// don't require anti-aliasing.
type NfntResizer struct {
	// InterP is the interpolation function to use.
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{interP}
}

// GetInterP returns an interpolation function given a desired quality.
// The higher the quality the better the interpolation should be, but execution
// time is higher. Currently supported are values between 0 and 4, each
// selecting a different interpolation function. Values greater than 4 are
// treated as 4.
func GetInterP(quality uint) resize.InterpolationFunction {
	switch quality {
	case 0:
		return resize.NearestNeighbor
	case 1:
		return resize.Bilinear
	case 2:
		return resize.Bicubic
	case 3:
		return resize.MitchellNetravali
	case 4:
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}

// InterPString returns a name for the quality as used by GetInterP.
func InterPString(quality uint) string {
	switch quality {
	case 0:
		return "NearestNeighbor"
	case 1:
		return "Bilinear"
	case 2:
		return "Bicubic"
	case 3:
		return "MitchellNetravali"
	case 4:
		return "Lanczos2"
	default:
		return "Lanczos3"
	}
}

// Resize calls nfnt/resize methods.
func (resizer NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	return resize.Resize(width, height, img, resizer.InterP)
}

// ScaleResizer resizes with a x/image/draw kernel. With CatmullRom the
// kernel is stretched when scaling down, that is the result is anti-aliased.
// It is used for the target image.
type ScaleResizer struct {
	Scaler xdraw.Scaler
}

// Resize scales img to exactly width x height.
func (resizer ScaleResizer) Resize(width, height uint, img image.Image) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	resizer.Scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// ResizerName returns an identifier for the interpolation of resizer, for
// example "nfnt-Lanczos3" or "xdraw-CatmullRom". Two resizers with the same
// name produce the same images.
func ResizerName(resizer ImageResizer) string {
	switch r := resizer.(type) {
	case NfntResizer:
		switch r.InterP {
		case resize.NearestNeighbor:
			return "nfnt-NearestNeighbor"
		case resize.Bilinear:
			return "nfnt-Bilinear"
		case resize.Bicubic:
			return "nfnt-Bicubic"
		case resize.MitchellNetravali:
			return "nfnt-MitchellNetravali"
		case resize.Lanczos2:
			return "nfnt-Lanczos2"
		case resize.Lanczos3:
			return "nfnt-Lanczos3"
		}
		return fmt.Sprintf("nfnt-%d", r.InterP)
	case ScaleResizer:
		switch r.Scaler {
		case xdraw.NearestNeighbor:
			return "xdraw-NearestNeighbor"
		case xdraw.ApproxBiLinear:
			return "xdraw-ApproxBiLinear"
		case xdraw.BiLinear:
			return "xdraw-BiLinear"
		case xdraw.CatmullRom:
			return "xdraw-CatmullRom"
		}
		return fmt.Sprintf("xdraw-%T", r.Scaler)
	default:
		return fmt.Sprintf("%T", resizer)
	}
}

var (
	// DefaultTileResizer is used to resize library images.
	DefaultTileResizer ImageResizer = NewNfntResizer(resize.Bilinear)

	// DefaultTargetResizer is used to normalize the target image.
	DefaultTargetResizer ImageResizer = ScaleResizer{Scaler: xdraw.CatmullRom}
)

// ToRGBA returns a copy of img as an *image.RGBA with bounds starting at
// (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	res := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(res, res.Bounds(), img, bounds.Min, xdraw.Src)
	return res
}

// CloneRGBA returns a deep copy of img, nil for nil.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	if img == nil {
		return nil
	}
	res := &image.RGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(res.Pix, img.Pix)
	return res
}

type opaquer interface {
	Opaque() bool
}

// FlattenAlpha drops the alpha channel of img by compositing it over a white
// background. Images that report to be opaque are returned unchanged.
func FlattenAlpha(img image.Image) image.Image {
	if o, ok := img.(opaquer); ok && o.Opaque() {
		return img
	}
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// ToRGB converts an arbitrary image to an opaque *image.RGBA. This is the
// three channel representation used everywhere in the mosaic pipeline.
func ToRGB(img image.Image) *image.RGBA {
	return ToRGBA(FlattenAlpha(img))
}

// ResizeRGB resizes img to width x height with the given resizer and returns
// an opaque RGBA image. If img already has the requested size it is copied
// without resizing, thus resizing is idempotent.
func ResizeRGB(resizer ImageResizer, width, height int, img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return ToRGB(img)
	}
	return ToRGB(resizer.Resize(uint(width), uint(height), img))
}

// LoadImage decodes the image stored in the given file.
func LoadImage(path string) (image.Image, error) {
	r, openErr := os.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer r.Close()
	img, _, decodeErr := image.Decode(r)
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, decodeErr)
	}
	return img, nil
}

// SaveImage encodes img depending on the file extension of file. Supported
// are jpg, png, bmp and tiff. jpgQuality is only used for jpg files.
func SaveImage(file string, img image.Image, jpgQuality int) error {
	ext := strings.ToLower(filepath.Ext(file))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff":
	default:
		return fmt.Errorf("unsupported file type: %s, expected .jpg, .png, .bmp or .tiff", ext)
	}
	outFile, outErr := os.Create(file)
	if outErr != nil {
		return outErr
	}
	var encErr error
	switch ext {
	case ".jpg", ".jpeg":
		encErr = jpeg.Encode(outFile, img, &jpeg.Options{Quality: jpgQuality})
	case ".png":
		encErr = png.Encode(outFile, img)
	case ".bmp":
		encErr = bmp.Encode(outFile, img)
	default:
		encErr = tiff.Encode(outFile, img, nil)
	}
	if closeErr := outFile.Close(); encErr == nil {
		encErr = closeErr
	}
	return encErr
}
