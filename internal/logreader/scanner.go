package logreader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultBaseName is the file name ufw logs to under /var/log
const DefaultBaseName = "ufw.log"

// LogFile is a discovered UFW log file
type LogFile struct {
	Path     string
	Rotation int // 0 for the live file, N for ufw.log.N[.gz]
}

// ResolveInputs expands the input path into the list of files to read, in
// chronological order. A regular file is returned as is. A directory is
// scanned for baseName and its logrotate siblings (baseName.1,
// baseName.2.gz, ...), oldest first.
func ResolveInputs(path, baseName string) ([]LogFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.IsDir() {
		return []LogFile{{Path: path}}, nil
	}
	return ScanForLogs(path, baseName)
}

// ScanForLogs lists baseName and its rotated copies in dir, oldest first
func ScanForLogs(dir, baseName string) ([]LogFile, error) {
	if baseName == "" {
		baseName = DefaultBaseName
	}

	log.Debug().Str("dir", dir).Str("base_name", baseName).Msg("Scanning for ufw logs...")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []LogFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		rotation, ok := rotationIndex(entry.Name(), baseName)
		if !ok {
			continue
		}
		files = append(files, LogFile{
			Path:     filepath.Join(dir, entry.Name()),
			Rotation: rotation,
		})
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files found in %s", baseName, dir)
	}

	// Higher rotation index means older content
	sort.Slice(files, func(i, j int) bool {
		return files[i].Rotation > files[j].Rotation
	})

	log.Info().Int("files", len(files)).Str("dir", dir).Msg("Log scan complete")
	return files, nil
}

// rotationIndex parses "ufw.log", "ufw.log.3", "ufw.log.3.gz", "ufw.log.3.zst"
func rotationIndex(name, baseName string) (int, bool) {
	if name == baseName {
		return 0, true
	}
	rest, ok := strings.CutPrefix(name, baseName+".")
	if !ok {
		return 0, false
	}
	rest = strings.TrimSuffix(strings.TrimSuffix(rest, ".gz"), ".zst")
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
