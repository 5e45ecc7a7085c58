// Package jsonl writes line-delimited JSON: one object per line, no
// enclosing array, no trailing separators.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Write streams items to w, one JSON object per line. HTML escaping is
// off so chat text survives byte-for-byte.
func Write[T any](w io.Writer, items []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	return bw.Flush()
}

// WriteFile writes items to a fresh file at path.
func WriteFile[T any](path string, items []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
