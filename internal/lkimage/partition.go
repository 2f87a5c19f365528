package lkimage

import (
	"fmt"
	"strings"
)

type Partition struct {
	Header Header
	// Offset is where the header starts in the image.
	Offset int

	name  string
	raw   bool
	image *Image
}

// Name is unique within the image. Repeated header names get a _N suffix.
func (p *Partition) Name() string {
	return p.name
}

func (p *Partition) Raw() bool {
	return p.raw
}

func (p *Partition) DataOffset() int {
	if p.raw {
		return 0
	}
	return p.Offset + int(p.Header.HeaderSize)
}

func (p *Partition) Size() int {
	return int(p.Header.DataSize)
}

// Data returns the partition payload. It aliases the image buffer.
func (p *Partition) Data() []byte {
	start := p.DataOffset()
	return p.image.data[start : start+p.Size()]
}

func (p *Partition) Save(path string) error {
	return writeFile(path, p.Data())
}

func (p *Partition) String() string {
	var b strings.Builder
	if p.raw {
		fmt.Fprintf(&b, "Name:            %s (no LK header)\n", p.name)
		fmt.Fprintf(&b, "Data size:       %d bytes", p.Size())
		return b.String()
	}

	h := p.Header
	fmt.Fprintf(&b, "Name:            %s\n", h.Name)
	fmt.Fprintf(&b, "Header offset:   0x%08x\n", p.Offset)
	fmt.Fprintf(&b, "Data offset:     0x%08x\n", p.DataOffset())
	fmt.Fprintf(&b, "Data size:       %d bytes\n", h.DataSize)
	fmt.Fprintf(&b, "Addressing mode: 0x%08x\n", h.AddressingMode)
	fmt.Fprintf(&b, "Memory address:  0x%08x\n", h.MemoryAddress)
	if h.Extended {
		fmt.Fprintf(&b, "Header size:     %d bytes\n", h.HeaderSize)
		fmt.Fprintf(&b, "Header version:  %d\n", h.HeaderVersion)
		fmt.Fprintf(&b, "Image type:      0x%08x\n", h.ImageType)
		fmt.Fprintf(&b, "Image list end:  %t\n", h.ImageListEnd)
		fmt.Fprintf(&b, "Alignment:       %d", h.Alignment)
	} else {
		b.WriteString("Extended header: no")
	}
	return b.String()
}

type Analysis struct {
	ImagePath      string          `json:"image_path"`
	ImageSize      int             `json:"image_size"`
	Compressed     bool            `json:"compressed"`
	PartitionCount int             `json:"partition_count"`
	Partitions     []PartitionInfo `json:"partitions"`
}

type PartitionInfo struct {
	Name          string `json:"name"`
	Size          int    `json:"size"`
	HasExtHeader  bool   `json:"has_ext_header"`
	MemoryAddress string `json:"memory_address"`
}

func (img *Image) Analyze() Analysis {
	a := Analysis{
		ImagePath:      img.path,
		ImageSize:      len(img.data),
		Compressed:     img.compressed,
		PartitionCount: len(img.partitions),
		Partitions:     make([]PartitionInfo, 0, len(img.partitions)),
	}
	if a.ImagePath == "" {
		a.ImagePath = "Unknown"
	}
	for _, p := range img.partitions {
		a.Partitions = append(a.Partitions, PartitionInfo{
			Name:          p.name,
			Size:          p.Size(),
			HasExtHeader:  p.Header.Extended,
			MemoryAddress: fmt.Sprintf("0x%08x", p.Header.MemoryAddress),
		})
	}
	return a
}
