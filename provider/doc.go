// Package provider defines the filesystem capability behind the proxy.
//
// A FileSystem performs the actual storage work; the proxy only decodes
// requests, forwards them, and reports the outcome. Implementations signal
// failure by returning an error that is (or wraps) a result.Code, which the
// proxy sends to the client unchanged:
//
//	func (fs *myFS) DeleteFile(path string) error {
//		if !fs.exists(path) {
//			return result.ErrPathNotFound
//		}
//		...
//	}
//
// OpenFile and OpenDirectory return child objects whose lifetime is owned by
// the caller from then on.
//
// See provider/hostfs for a provider rooted at a local directory.
package provider
