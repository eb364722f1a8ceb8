package api

import "context"

// Device info keys returned by Device.QueryInfo.
const (
	InfoDeviceID       = "deviceId"
	InfoModel          = "model"
	InfoManufacturer   = "manufacturer"
	InfoAndroidVersion = "androidVersion"
	InfoAPILevel       = "apiLevel"
)

// Device 是設備控制的外部協作者
// Each method blocks for the duration of one external command and either
// succeeds or returns an error wrapping ErrDeviceCommandFailed.
type Device interface {
	ID() string
	Connect(ctx context.Context) error

	InstallApp(ctx context.Context, apkPath string) error
	UninstallApp(ctx context.Context, packageName string) error
	StartApp(ctx context.Context, packageName, activityName string) error
	StopApp(ctx context.Context, packageName string) error

	UnlockScreen(ctx context.Context) error
	LockScreen(ctx context.Context) error

	InputText(ctx context.Context, text string) error
	InputKeyEvent(ctx context.Context, keyCode string) error
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error

	// CaptureScreenshot writes a PNG of the current screen to outputPath.
	CaptureScreenshot(ctx context.Context, outputPath string) error
	QueryInfo(ctx context.Context) (map[string]string, error)
}

// VisionBackend describes an image in natural language.
// It fails with ErrBackendUnavailable when it has no credentials and with
// ErrBackendError on transport or remote failure.
type VisionBackend interface {
	Describe(ctx context.Context, imagePath, prompt string) (string, error)
}
