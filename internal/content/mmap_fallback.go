//go:build !unix

package content

import "os"

// mmapAcquire falls back to a plain read on platforms without a mapped
// unix implementation; the caller's chunked-read path handles the rest.
func mmapAcquire(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
