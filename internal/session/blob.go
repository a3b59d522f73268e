package session

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elsanchez/smart-publish/internal/domain"
)

// MaxBlobSize es el techo del blob de sesión persistido (100 KiB)
const MaxBlobSize = 100 * 1024

// WriteBlob persiste un blob de estado de sesión. Si el blob supera el techo
// se comprime con gzip y se guarda con extensión .gz; si ni comprimido cabe,
// devuelve ErrSessionTooLarge. Devuelve la ruta final escrita.
func WriteBlob(path string, data []byte) (string, error) {
	if len(data) <= MaxBlobSize {
		if err := os.WriteFile(path, data, 0600); err != nil {
			return "", fmt.Errorf("write session blob: %w", err)
		}
		// Limpiar un .gz anterior si el blob volvió a caber sin comprimir
		os.Remove(path + ".gz")
		return path, nil
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return "", fmt.Errorf("compress session blob: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("compress session blob: %w", err)
	}

	if buf.Len() > MaxBlobSize {
		return "", fmt.Errorf("session blob is %d bytes compressed: %w", buf.Len(), domain.ErrSessionTooLarge)
	}

	gzPath := path + ".gz"
	if err := os.WriteFile(gzPath, buf.Bytes(), 0600); err != nil {
		return "", fmt.Errorf("write session blob: %w", err)
	}
	os.Remove(path)
	return gzPath, nil
}

// ReadBlob lee un blob de sesión, descomprimiéndolo si la ruta termina en .gz
func ReadBlob(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session blob: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return data, nil
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress session blob: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress session blob: %w", err)
	}
	return out, nil
}
