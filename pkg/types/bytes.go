package types

import "fmt"

// Bytes is a uint64 wrapper representing a size in bytes.
type Bytes uint64

var _units = []string{"KB", "MB", "GB", "TB"}

// ToBytes converts a raw byte count.
func ToBytes(n uint64) Bytes { return Bytes(n) }

// ToUint64 returns the raw byte count.
func (b Bytes) ToUint64() uint64 { return uint64(b) }

// Humanized returns a human-readable string with automatic unit (B, KB, MB, GB, TB).
func (b Bytes) Humanized() string {
	if b < 1<<10 {
		return fmt.Sprintf("%d B", b)
	}
	v := float64(b) / (1 << 10)
	unit := 0
	for v >= 1024 && unit < len(_units)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", v, _units[unit])
}

// MB returns the number of megabytes (1024 base).
func (b Bytes) MB() float64 { return float64(b) / (1024 * 1024) }
