package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"mlbcli/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindByPattern finds files matching a glob pattern. A relative pattern
// resolves against the base path. Directories are skipped and the result is
// sorted by path, so concatenating matches is deterministic.
func (d *Discovery) FindByPattern(pattern string) ([]FileInfo, error) {
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(d.basePath, pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// FindCSVFiles finds all CSV files in the specified directory, sorted by name
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// FindSeasonFiles groups the CSV files under a directory tree by the season
// year in their names (Batting_2005.csv). Files without a season are ignored.
func (d *Discovery) FindSeasonFiles(dir string) (map[int][]FileInfo, error) {
	matches, err := d.FindByPattern(filepath.Join(dir, "*", "*.csv"))
	if err != nil {
		return nil, err
	}

	bySeason := make(map[int][]FileInfo)
	for _, file := range matches {
		if season := config.SeasonFromFilename(file.Name); season > 0 {
			bySeason[season] = append(bySeason[season], file)
		}
	}
	return bySeason, nil
}

// ListSeasonDirs lists the season-numbered subdirectories of the raw data
// directory, ascending. Non-numeric directories are ignored.
func (d *Discovery) ListSeasonDirs(rawDir string) ([]int, error) {
	fullPath := rawDir
	if !filepath.IsAbs(rawDir) {
		fullPath = filepath.Join(d.basePath, rawDir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var seasons []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if year, err := strconv.Atoi(entry.Name()); err == nil {
			seasons = append(seasons, year)
		}
	}

	sort.Ints(seasons)
	return seasons, nil
}
