//go:build windows

package device

// DefaultADBPath is resolved through PATH.
const DefaultADBPath = "adb.exe"
