package hexdump

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// RowSize is the number of bytes per dump line.
const RowSize = 32

var red = color.New(color.FgRed)

// Dump renders data as offset, hex and ASCII columns. Bytes whose mark is
// set are printed in red. mark may be nil or shorter than data.
func Dump(offset int, data []byte, mark []bool) string {
	var result strings.Builder

	for len(data) > 0 {
		l := len(data)
		if l > RowSize {
			l = RowSize
		}
		work := data[:l]
		data = data[l:]
		var workMark []bool
		if len(mark) > 0 {
			n := l
			if n > len(mark) {
				n = len(mark)
			}
			workMark = mark[:n]
			mark = mark[n:]
		}

		var workHex, workASCII strings.Builder
		for i := 0; i < RowSize; i++ {
			if i >= len(work) {
				workHex.WriteString("   ")
				workASCII.WriteString(" ")
			} else {
				m := work[i]
				delta := i < len(workMark) && workMark[i]
				hex := fmt.Sprintf("%02x ", m)
				if m < 32 || m > 126 {
					m = '.'
				}
				char := string(rune(m))
				if delta {
					hex = red.Sprint(hex)
					char = red.Sprint(char)
				}
				workHex.WriteString(hex)
				workASCII.WriteString(char)
			}
			if i%8 == 7 {
				workHex.WriteString(" ")
			}
		}

		fmt.Fprintf(&result, "%08x  %s|%s|\n", offset, workHex.String(), workASCII.String())
		offset += l
	}

	return result.String()
}

// Row is one RowSize window where two buffers differ.
type Row struct {
	Offset int
	A, B   []byte
	Mark   []bool
}

// Diff compares a and b row by row and returns the rows with at least one
// differing byte. Bytes past the end of the shorter buffer count as changed.
func Diff(a, b []byte) []Row {
	size := len(a)
	if len(b) > size {
		size = len(b)
	}

	var rows []Row
	for off := 0; off < size; off += RowSize {
		end := off + RowSize
		if end > size {
			end = size
		}
		mark := make([]bool, end-off)
		changed := false
		for i := off; i < end; i++ {
			if i >= len(a) || i >= len(b) || a[i] != b[i] {
				mark[i-off] = true
				changed = true
			}
		}
		if changed {
			rows = append(rows, Row{Offset: off, A: window(a, off, end), B: window(b, off, end), Mark: mark})
		}
	}
	return rows
}

func window(data []byte, start, end int) []byte {
	if start >= len(data) {
		return nil
	}
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}

// RenderDiff prints each differing row of a and b as a pair of dump lines.
func RenderDiff(a, b []byte) string {
	var out strings.Builder
	for _, row := range Diff(a, b) {
		out.WriteString("- ")
		out.WriteString(Dump(row.Offset, row.A, row.Mark))
		out.WriteString("+ ")
		out.WriteString(Dump(row.Offset, row.B, row.Mark))
	}
	return out.String()
}
