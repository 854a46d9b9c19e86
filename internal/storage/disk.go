package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to a database in WAL mode.
var sqliteSidecars = []string{"-wal", "-shm", "-journal"}

// DiskUsage is the on-disk footprint of an index, split by component.
type DiskUsage struct {
	IndexBytes    int64 `json:"index_bytes"`
	MetadataBytes int64 `json:"metadata_bytes"`
	UploadBytes   int64 `json:"upload_bytes"`
}

// Total returns the sum of all components.
func (u DiskUsage) Total() int64 {
	return u.IndexBytes + u.MetadataBytes + u.UploadBytes
}

// MeasureDisk reports the size of the vector index file, the metadata file
// (including any SQLite sidecar files) and the upload directory.
// Paths that do not exist count as zero.
func MeasureDisk(indexPath, metadataPath, uploadDir string) (DiskUsage, error) {
	var u DiskUsage
	var err error
	if u.IndexBytes, err = pathSize(indexPath); err != nil {
		return DiskUsage{}, err
	}
	if u.MetadataBytes, err = pathSize(metadataPath); err != nil {
		return DiskUsage{}, err
	}
	if metadataPath != "" {
		for _, suffix := range sqliteSidecars {
			n, err := pathSize(metadataPath + suffix)
			if err != nil {
				return DiskUsage{}, err
			}
			u.MetadataBytes += n
		}
	}
	if u.UploadBytes, err = pathSize(uploadDir); err != nil {
		return DiskUsage{}, err
	}
	return u, nil
}

// pathSize returns the size of a file, or the recursive size of the regular
// files under a directory.
func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
