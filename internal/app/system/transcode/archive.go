package transcode

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// zipWrap losslessly wraps data into a zip container holding a single entry
// named after the original file.
func zipWrap(entryName string, data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := zip.NewWriter(&out)

	w, err := zw.Create(entryName)
	if err != nil {
		return nil, fmt.Errorf("creating zip entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("writing zip entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing zip: %w", err)
	}

	return out.Bytes(), nil
}
