package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"almanac/internal/config"
)

// FileInfo describes a bar file found on disk
type FileInfo struct {
	Path    string
	Name    string
	Product string
	Size    int64
	ModTime time.Time
}

// FindBarFiles lists the loadable bar files in dir, sorted by name
func FindBarFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case config.ExtCSV, config.ExtTXT, config.ExtXLSX:
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, name),
			Name:    name,
			Product: ProductName(name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ProductName derives the contract symbol from a file name:
// "data/daily/ES_daily.txt" is "ES".
func ProductName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimSuffix(name, "_daily")
	return strings.ToUpper(name)
}
