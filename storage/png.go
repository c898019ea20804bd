package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SavePNG renders fig into <dir>/<name>.png and returns the file path.
func SavePNG(dir, name string, fig PNGEncoder) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("png: create output dir: %w", err)
	}

	if !strings.HasSuffix(name, ".png") {
		name += ".png"
	}
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("png: create file %q: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := fig.WritePNG(w); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("png: render %q: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("png: flush %q: %w", path, err)
	}
	return path, f.Close()
}
