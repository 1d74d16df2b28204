package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// FreeSpace returns the number of bytes available to unprivileged users on
// the filesystem holding path.
func FreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckScratchSpace verifies that the scratch filesystem can hold the
// intermediate copies for a file of the given size. Splitting and
// rebuilding needs roughly twice the source size.
func CheckScratchSpace(path string, sourceSize int64) Result {
	const name = "Scratch space"

	required := uint64(sourceSize) * 2
	available, err := FreeSpace(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if available < required {
		return Result{Name: name, Detail: fmt.Sprintf(
			"%s has %d MiB free, need %d MiB", path, available/(1<<20), required/(1<<20))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(
		"%s (%d MiB free)", path, available/(1<<20))}
}
