// Package imgmin reduces the size of image assets.
package imgmin

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"git.fractalqb.de/fractalqb/mpmk/mkfs"
	"git.fractalqb.de/fractalqb/mpmk/mpmkore"
	"github.com/gabriel-vasile/mimetype"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

type CompressorFunc func([]byte) ([]byte, error)

func (f CompressorFunc) Compress(data []byte) ([]byte, error) { return f(data) }

// Recoder recompresses PNG and JPEG images. The result is only used if it
// is smaller than the original. Other formats pass unchanged.
type Recoder struct {
	// JPEGQuality enables lossy JPEG recompression with the given quality
	// in 1…100. Zero keeps JPEGs unchanged.
	JPEGQuality int
}

var _ Compressor = Recoder{}

func (rc Recoder) Compress(data []byte) ([]byte, error) {
	switch mt := mimetype.Detect(data); {
	case mt.Is("image/png"):
		return smaller(data, rc.png)
	case mt.Is("image/jpeg"):
		if rc.JPEGQuality <= 0 {
			return data, nil
		}
		return smaller(data, rc.jpeg)
	}
	return data, nil
}

func (rc Recoder) png(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err = enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (rc Recoder) jpeg(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}
	var buf bytes.Buffer
	if err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: min(rc.JPEGQuality, 100)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func smaller(data []byte, recode func([]byte) ([]byte, error)) ([]byte, error) {
	res, err := recode(data)
	if err != nil {
		return nil, err
	}
	if len(res) < len(data) {
		return res, nil
	}
	return data, nil
}

// Op returns the task operation that writes the compressed images to dest.
func Op(c Compressor, dest mkfs.Dest) mkfs.Transform {
	return mkfs.Transform{
		Dest: dest,
		Desc: fmt.Sprintf("compress images %s -> %s", dest.Strip, dest.Dir),
		Func: func(tr *mpmkore.Trace, _ *mpmkore.Env, path string, data []byte) ([]byte, error) {
			res, err := c.Compress(data)
			if err != nil {
				return nil, err
			}
			tr.Debug("compressed `image` from `size` to `result` bytes",
				`image`, path,
				`size`, len(data),
				`result`, len(res),
			)
			return res, nil
		},
	}
}
