package transcode

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// reencodeImage decodes data and re-encodes it to the target format at the
// given quality. The image is not scaled; only the encoding changes. The
// quality knob (conceptually 0.3-0.9, unvalidated) only affects lossy
// formats; png and gif ignore it.
func reencodeImage(data []byte, format string, quality float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var out bytes.Buffer
	switch format {
	case "jpg", "jpeg":
		q := int(quality * 100)
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: q})
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&out, img)
	case "gif":
		err = gif.Encode(&out, img, nil)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	return out.Bytes(), nil
}
