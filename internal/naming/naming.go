package naming

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	backupStamp  = "20060102_150405"
	reportSuffix = ".patch_report.json"
	debugSuffix  = ".debug.txt"
)

// stem splits path into its directory-qualified stem and extension. A
// trailing .xz is dropped first since images are always written
// decompressed.
func stem(path string) (string, string) {
	if strings.EqualFold(filepath.Ext(path), ".xz") {
		path = path[:len(path)-len(".xz")]
	}
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)], ext
}

// PatchedPath is the default output for image: lk.img -> lk-patched.img.
func PatchedPath(image string) string {
	base, ext := stem(image)
	return base + "-patched" + ext
}

// ReportPath replaces the extension of output with .patch_report.json.
func ReportPath(output string) string {
	ext := filepath.Ext(output)
	return output[:len(output)-len(ext)] + reportSuffix
}

func DebugPath(image string) string {
	return image + debugSuffix
}

// BackupPath names a timestamped copy of image, placed in dir when set and
// next to the image otherwise. The copy is byte for byte, so the original
// extension is kept as is.
func BackupPath(image, dir string, now time.Time) string {
	file := filepath.Base(image)
	ext := filepath.Ext(file)
	name := file[:len(file)-len(ext)] + "_backup_" + now.Format(backupStamp) + ext
	if dir == "" {
		dir = filepath.Dir(image)
	}
	return filepath.Join(dir, name)
}

// PartitionPath is the default dump file for one partition of image.
func PartitionPath(image, partition string) string {
	base, _ := stem(filepath.Base(image))
	if base == "" {
		return partition + ".bin"
	}
	return base + "_" + partition + ".bin"
}

// SafeName replaces every non alphanumeric byte of name with '_'.
func SafeName(name string) string {
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
