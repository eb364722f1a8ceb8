package device

import (
	"adbtool/pkg/api"
	"adbtool/pkg/utils"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single adb command.
	DefaultTimeout = 30 * time.Second

	defaultRemoteDir = "/sdcard"
)

// ADB implements api.Device by issuing `adb -s <id> ...` commands.
type ADB struct {
	id        string
	adbPath   string
	timeout   time.Duration // 0 disables the per-command timeout
	remoteDir string        // where screencap writes before pull
	runner    Runner
}

// Option configures an ADB device.
type Option func(*ADB)

// WithRunner replaces the process runner (tests use a recording fake).
func WithRunner(r Runner) Option {
	return func(a *ADB) { a.runner = r }
}

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *ADB) { a.timeout = d }
}

// WithRemoteDir sets the device directory used for temporary screenshots.
func WithRemoteDir(dir string) Option {
	return func(a *ADB) {
		if dir != "" {
			a.remoteDir = strings.TrimSuffix(dir, "/")
		}
	}
}

// New 建立一個 ADB 設備控制器
func New(id, adbPath string, opts ...Option) *ADB {
	if adbPath == "" {
		adbPath = DefaultADBPath
	}
	a := &ADB{
		id:        id,
		adbPath:   adbPath,
		timeout:   DefaultTimeout,
		remoteDir: defaultRemoteDir,
		runner:    ExecRunner{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *ADB) ID() string {
	return a.id
}

// exec runs one adb command against this device.
func (a *ADB) exec(ctx context.Context, args ...string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return a.runner.Run(ctx, a.adbPath, append([]string{"-s", a.id}, args...)...)
}

// shell runs a command through the device's sh. adb joins the arguments with
// spaces, so each one is quoted for the device shell.
func (a *ADB) shell(ctx context.Context, args ...string) error {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, "shell")
	for _, arg := range args {
		quoted = append(quoted, shellQuote(arg))
	}
	_, err := a.exec(ctx, quoted...)
	return err
}

// shellQuote leaves plain words alone and single-quotes everything else,
// writing an embedded ' as '\''.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeShellRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("@%+=:,./_-", r)
}

// Connect verifies that the device is attached and online.
func (a *ADB) Connect(ctx context.Context) error {
	state, err := a.exec(ctx, "get-state")
	if err != nil {
		return err
	}
	if state != "device" {
		return &api.CommandError{
			Command:  fmt.Sprintf("%s -s %s get-state", a.adbPath, a.id),
			ExitCode: 0,
			Output:   state,
			Err:      fmt.Errorf("device %s is %q", a.id, state),
		}
	}
	slog.Info("Device connected", "device", a.id)
	return nil
}

func (a *ADB) InstallApp(ctx context.Context, apkPath string) error {
	_, err := a.exec(ctx, "install", "-r", apkPath)
	return err
}

func (a *ADB) UninstallApp(ctx context.Context, packageName string) error {
	_, err := a.exec(ctx, "uninstall", packageName)
	return err
}

func (a *ADB) StartApp(ctx context.Context, packageName, activityName string) error {
	return a.shell(ctx, "am", "start", "-n", packageName+"/"+activityName)
}

func (a *ADB) StopApp(ctx context.Context, packageName string) error {
	return a.shell(ctx, "am", "force-stop", packageName)
}

// UnlockScreen 喚醒螢幕後上滑解鎖 (僅適用於無密碼鎖屏)
func (a *ADB) UnlockScreen(ctx context.Context) error {
	if err := a.InputKeyEvent(ctx, "KEYCODE_WAKEUP"); err != nil {
		return err
	}
	return a.Swipe(ctx, 300, 1000, 300, 500, 0)
}

func (a *ADB) LockScreen(ctx context.Context) error {
	return a.InputKeyEvent(ctx, "KEYCODE_POWER")
}

// InputText types text; `input text` treats a space as an argument break, so
// spaces are sent as %s.
func (a *ADB) InputText(ctx context.Context, text string) error {
	return a.shell(ctx, "input", "text", strings.ReplaceAll(text, " ", "%s"))
}

func (a *ADB) InputKeyEvent(ctx context.Context, keyCode string) error {
	return a.shell(ctx, "input", "keyevent", keyCode)
}

func (a *ADB) Tap(ctx context.Context, x, y int) error {
	return a.shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
}

// Swipe drags from start to end. durationMs 0 omits the duration so the device
// picks its default; only the unlock gesture relies on that.
func (a *ADB) Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error {
	args := []string{"input", "swipe",
		strconv.Itoa(startX), strconv.Itoa(startY),
		strconv.Itoa(endX), strconv.Itoa(endY),
	}
	if durationMs > 0 {
		args = append(args, strconv.Itoa(durationMs))
	}
	return a.shell(ctx, args...)
}

// CaptureScreenshot 在設備上截圖，拉回本機後刪除設備上的暫存檔
func (a *ADB) CaptureScreenshot(ctx context.Context, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create screenshot directory: %w", err)
		}
	}

	remote := a.remoteDir + "/" + utils.GenerateTimestampPrefix() + "screenshot.png"
	if err := a.shell(ctx, "screencap", "-p", remote); err != nil {
		return err
	}
	defer func() {
		if err := a.shell(context.WithoutCancel(ctx), "rm", "-f", remote); err != nil {
			slog.Warn("Failed to remove remote screenshot", "path", remote, "error", err)
		}
	}()

	if _, err := a.exec(ctx, "pull", remote, outputPath); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Screenshot saved", "path", outputPath)
	return nil
}

var infoProps = []struct {
	key, prop string
}{
	{api.InfoModel, "ro.product.model"},
	{api.InfoManufacturer, "ro.product.manufacturer"},
	{api.InfoAndroidVersion, "ro.build.version.release"},
	{api.InfoAPILevel, "ro.build.version.sdk"},
}

func (a *ADB) QueryInfo(ctx context.Context) (map[string]string, error) {
	info := map[string]string{api.InfoDeviceID: a.id}
	for _, p := range infoProps {
		out, err := a.exec(ctx, "shell", "getprop", shellQuote(p.prop))
		if err != nil {
			return nil, err
		}
		info[p.key] = strings.TrimSpace(out)
	}
	return info, nil
}

var _ api.Device = (*ADB)(nil)
