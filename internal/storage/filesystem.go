package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path outside library root")

// Filesystem exposes the image library as paths relative to its root.
type Filesystem struct {
	baseDir string
}

// FileInfo describes one regular file in the library.
type FileInfo struct {
	Path    string // relative, slash separated
	Size    int64
	ModTime int64
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".jpe":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".dib":  true,
	".tif":  true,
	".tiff": true,
}

func NewFilesystem(baseDir string) (*Filesystem, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve library dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &Filesystem{baseDir: abs}, nil
}

func (fs *Filesystem) Root() string {
	return fs.baseDir
}

// Resolve maps a library-relative path to an absolute one. Paths that
// would leave the root are rejected.
func (fs *Filesystem) Resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	path := filepath.Join(fs.baseDir, clean)
	// Symlinks may still point elsewhere.
	if real, err := filepath.EvalSymlinks(path); err == nil {
		root, rerr := filepath.EvalSymlinks(fs.baseDir)
		if rerr == nil && real != root && !strings.HasPrefix(real, root+string(filepath.Separator)) {
			return "", ErrOutsideRoot
		}
	}
	return path, nil
}

func (fs *Filesystem) Stat(rel string) (*FileInfo, error) {
	path, err := fs.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", rel)
	}
	return &FileInfo{
		Path:    filepath.ToSlash(strings.TrimPrefix(path, fs.baseDir+string(filepath.Separator))),
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}, nil
}

func (fs *Filesystem) Exists(rel string) bool {
	_, err := fs.Stat(rel)
	return err == nil
}

// Walk calls fn for every regular file with an image extension under the
// root. Hidden directories are skipped.
func (fs *Filesystem) Walk(fn func(FileInfo) error) error {
	return filepath.WalkDir(fs.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != fs.baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsImageName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		rel, err := filepath.Rel(fs.baseDir, path)
		if err != nil {
			return err
		}
		return fn(FileInfo{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
	})
}

// IsImageName reports whether name carries a known image extension.
func IsImageName(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}
