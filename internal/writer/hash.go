package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/SteelMorgan/ufwlog/internal/domain"
)

// recordHash calculates SHA256 hash of a record.
// The kernel line carries no year, so the hostname, the head and the full
// source line identify a record. Used as the ReplacingMergeTree version key.
func recordHash(record *domain.LogRecord) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s|", record.Hostname)
	fmt.Fprintf(h, "%02d-%02d %s|", record.Month, record.Day, record.Time)
	fmt.Fprintf(h, "%s|", record.Uptime)
	fmt.Fprintf(h, "%s|", record.Origin)

	return hex.EncodeToString(h.Sum(nil))
}
