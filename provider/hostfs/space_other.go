//go:build !linux && !darwin

package hostfs

import "github.com/wippyai/fsproxy/result"

func diskSpace(string) (int64, int64, error) {
	return 0, 0, result.ErrNotImplemented
}
