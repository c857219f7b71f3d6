//go:build !linux

package watcher

// DetectFilesystemType is only implemented on Linux; elsewhere fsnotify is
// always tried first.
func DetectFilesystemType(string) FilesystemType {
	return FSTypeUnknown
}
