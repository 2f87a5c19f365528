package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// WriteDump writes one "name:\n<description>\n\n" block per region of img.
func WriteDump(path string, img Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := writeRegions(w, img); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeRegions(w io.Writer, img Image) error {
	for _, name := range img.RegionNames() {
		if _, err := fmt.Fprintf(w, "%s:\n%s\n\n", name, img.Describe(name)); err != nil {
			return err
		}
	}
	return nil
}
