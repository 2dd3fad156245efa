package persist

import (
	"errors"
	"io/fs"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// fileError wraps a filesystem failure in a classified PathError.
func fileError(op, path string, err error) error {
	return &types.PathError{Op: op, Path: path, Kind: classify(err), Err: err}
}

// parseError wraps a decode failure.
func parseError(path string, err error) error {
	return &types.PathError{Op: "decode", Path: path, Kind: types.ErrParse, Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return types.ErrFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return types.ErrPermission
	default:
		return types.ErrIO
	}
}
