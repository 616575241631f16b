//go:build !linux

package hostfs

import (
	"os"

	"github.com/wippyai/fsproxy/provider"
)

func timestamps(path string) (provider.FileTimeStampRaw, error) {
	info, err := os.Stat(path)
	if err != nil {
		return provider.FileTimeStampRaw{}, err
	}
	mod := info.ModTime().Unix()
	return provider.FileTimeStampRaw{Created: mod, Modified: mod, Accessed: mod}, nil
}
