package conv

import "strconv"

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders n in binary units with one decimal below 10.
func FormatBytes(n int64) string {
	if n <= 0 {
		return "未知大小"
	}
	size := float64(n)
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	precision := 1
	if size >= 10 || unit == 0 {
		precision = 0
	}
	return strconv.FormatFloat(size, 'f', precision, 64) + byteUnits[unit]
}
