// Package hostfs implements provider.FileSystem over a local directory.
//
// Client paths are absolute and rooted at the directory passed to New:
//
//	fs, err := hostfs.New("/srv/saves")
//	fs.CreateFile("/slot0/data.bin", 4096, 0) // creates /srv/saves/slot0/data.bin
//
// A ".." that would climb above the root is rejected with
// result.ErrInvalidPath, as is a path whose existing part leads out of the
// root through a symbolic link or ends in a dangling one. Links are checked
// when the path is resolved, so a link swapped in between the check and the
// host call is not caught. Host errors are translated to filesystem result
// codes (ENOENT to ErrPathNotFound, ENOTEMPTY to ErrDirectoryNotEmpty and so
// on); the original error stays reachable through errors.Unwrap.
//
// Files enforce the mode they were opened with: writes past the end need
// provider.OpenAllowAppend. Directory listings are captured at open time.
package hostfs
