package core

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
	"github.com/smarty/webapk/contracts"
	"github.com/smartystreets/logging"
)

// IconInjector turns one user-supplied raster image into the five fixed-size
// launcher icons and replaces the corresponding archive entries. All five
// buckets are always rewritten; skipping none keeps the template and the
// request icons from ever mixing.
type IconInjector struct {
	logger *logging.Logger
}

func NewIconInjector() *IconInjector {
	return &IconInjector{}
}

func (this *IconInjector) Inject(archive contracts.ArchiveEditor, source []byte) error {
	decoded, format, err := image.Decode(bytes.NewReader(source))
	if err != nil {
		return contracts.ImageDecodeError{Cause: err}
	}
	this.logger.Printf("decoded %s icon source %dx%d", format,
		decoded.Bounds().Dx(), decoded.Bounds().Dy())

	for _, bucket := range contracts.IconBuckets {
		encoded, err := this.render(decoded, bucket.Pixels)
		if err != nil {
			return err
		}
		// Launcher icons are conventionally stored verbatim; PNG is already
		// compressed so deflating it buys nothing.
		err = archive.ReplaceEntry(bucket.Path, encoded, contracts.Stored)
		if err != nil {
			return err
		}
	}
	return nil
}

func (this *IconInjector) render(source image.Image, pixels int) ([]byte, error) {
	square := resize.Resize(uint(pixels), uint(pixels), source, resize.Bilinear)
	buffer := new(bytes.Buffer)
	err := png.Encode(buffer, square)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
