package lkimage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

var (
	ErrTruncated        = errors.New("partition data runs past end of image")
	ErrPartitionMissing = errors.New("partition not found")
)

var xzMagic = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}

// RawRegion names the single region of a buffer without LK headers.
const RawRegion = "raw"

// Image is a bootloader image held in memory. Partitions are views into the
// same buffer, so Replace is immediately visible through them.
type Image struct {
	path       string
	data       []byte
	partitions []*Partition
	byName     map[string]*Partition
	compressed bool
}

// Load reads path, decompressing xz input, and parses it.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	compressed := false
	if bytes.HasPrefix(data, xzMagic) {
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		data, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
		compressed = true
	}

	img, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	img.compressed = compressed
	return img, nil
}

// Parse walks the LK partition headers of data. A buffer that does not start
// with an LK header is exposed as one raw region covering all of it.
func Parse(name string, data []byte) (*Image, error) {
	img := &Image{path: name, data: data, byName: map[string]*Partition{}}

	offset := 0
	for offset+DefaultHeaderSize <= len(data) {
		h, ok := parseHeader(data[offset:])
		if !ok {
			break
		}
		start := offset + int(h.HeaderSize)
		end := start + int(h.DataSize)
		if end > len(data) || end < start {
			return nil, fmt.Errorf("%s at 0x%x: %w", h.Name, offset, ErrTruncated)
		}
		img.add(&Partition{Header: h, Offset: offset, image: img})

		if h.ImageListEnd {
			break
		}
		offset = end
		if h.Extended && h.Alignment > 0 {
			offset = alignUp(offset, int(h.Alignment))
		}
	}

	if len(img.partitions) == 0 {
		img.add(&Partition{
			Header: Header{Name: RawRegion, DataSize: uint32(len(data))},
			raw:    true,
			image:  img,
		})
	}
	return img, nil
}

func (img *Image) add(p *Partition) {
	p.name = p.Header.Name
	if p.name == "" {
		p.name = "unnamed"
	}
	if _, exists := img.byName[p.name]; exists {
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s_%d", p.name, i)
			if _, taken := img.byName[candidate]; !taken {
				p.name = candidate
				break
			}
		}
	}
	img.byName[p.name] = p
	img.partitions = append(img.partitions, p)
}

func alignUp(v, align int) int {
	if rem := v % align; rem != 0 {
		return v + align - rem
	}
	return v
}

func (img *Image) Name() string {
	return img.path
}

func (img *Image) Contents() []byte {
	return img.data
}

func (img *Image) Compressed() bool {
	return img.compressed
}

func (img *Image) Partitions() []*Partition {
	return img.partitions
}

func (img *Image) Partition(name string) (*Partition, bool) {
	p, ok := img.byName[name]
	return p, ok
}

// RegionNames lists partition names in image order.
func (img *Image) RegionNames() []string {
	names := make([]string, 0, len(img.partitions))
	for _, p := range img.partitions {
		names = append(names, p.name)
	}
	return names
}

func (img *Image) Describe(region string) string {
	p, ok := img.byName[region]
	if !ok {
		return ""
	}
	return p.String()
}

// Replace overwrites the first occurrence of needle with patch. Only the
// matched span is written: a shorter patch leaves the needle's tail intact,
// and the image never changes length.
func (img *Image) Replace(needle, patch []byte) (int, bool) {
	if len(needle) == 0 {
		return -1, false
	}
	i := bytes.Index(img.data, needle)
	if i < 0 {
		return -1, false
	}
	copy(img.data[i:i+len(needle)], patch)
	return i, true
}

// Save writes the (decompressed) image to path.
func (img *Image) Save(path string) error {
	return writeFile(path, img.data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
