package process

import (
	"errors"
	"image"
	"os"

	"motioncam/video/source"

	"gocv.io/x/gocv"
)

var ErrEmptyImage = errors.New("empty image")

// WriteThumb writes a small JPEG of input to path.
func WriteThumb(path string, input source.Image) error {
	if input.Mat.Empty() {
		return ErrEmptyImage
	}
	tmat := gocv.NewMat()
	defer tmat.Close()
	gocv.Resize(input.Mat, &tmat, image.Point{X: 240, Y: 135}, 0, 0, gocv.InterpolationArea)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, tmat)
	if err != nil {
		return err
	}
	defer buf.Close()

	return os.WriteFile(path, buf.GetBytes(), 0644)
}
