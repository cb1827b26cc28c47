package memo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const defaultFileMode os.FileMode = 0o644

var (
	errNullCollection = errors.New("collection is null")
	errEmptyKey       = errors.New("collection has an empty identity")
)

// decode parses a mapping-form collection. Empty input, malformed JSON,
// a schema mismatch, and a JSON null all fail.
func decode[T any](data []byte) (map[string]T, error) {
	var docs map[string]T
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		return nil, errNullCollection
	}
	return docs, nil
}

func encode[T any](docs map[string]T, indent string) ([]byte, error) {
	if docs == nil {
		docs = map[string]T{}
	}
	data, err := json.MarshalIndent(docs, "", indent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return data, nil
}

// writeFile replaces path with data by writing a sibling temp file and
// renaming it into place. The parent directory must already exist. An
// existing file's permissions are carried over.
func writeFile(path string, data []byte) error {
	mode := defaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, path, err)
	}

	return nil
}
