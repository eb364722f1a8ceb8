package tools

import (
	"adbtool/pkg/api"
	"strconv"
)

// 各操作的參數結構，由建構函式驗證後才會碰到設備

const (
	defaultSwipeDuration  = 500
	defaultDescribePrompt = "请详细描述截图内容"
	defaultScreenshotPath = "screenshot.png"
)

type noParams struct{}

func newNoParams(api.Params) (noParams, error) { return noParams{}, nil }

type installParams struct {
	APKPath string
}

func newInstallParams(p api.Params) (installParams, error) {
	path, err := p.String("apk_path")
	return installParams{APKPath: path}, err
}

type packageParams struct {
	PackageName string
}

func newPackageParams(p api.Params) (packageParams, error) {
	pkg, err := p.String("package_name")
	return packageParams{PackageName: pkg}, err
}

type startParams struct {
	PackageName  string
	ActivityName string
}

func newStartParams(p api.Params) (startParams, error) {
	pkg, err := p.String("package_name")
	if err != nil {
		return startParams{}, err
	}
	activity, err := p.String("activity_name")
	if err != nil {
		return startParams{}, err
	}
	return startParams{PackageName: pkg, ActivityName: activity}, nil
}

type textParams struct {
	Text string
}

func newTextParams(p api.Params) (textParams, error) {
	text, err := p.String("text")
	return textParams{Text: text}, err
}

type keyParams struct {
	KeyCode string
}

// key_code may be a keycode name (KEYCODE_HOME) or its number (3).
func newKeyParams(p api.Params) (keyParams, error) {
	if v, ok := p["key_code"]; ok {
		if _, isString := v.(string); !isString {
			n, err := p.Int("key_code")
			if err != nil {
				return keyParams{}, err
			}
			return keyParams{KeyCode: strconv.Itoa(n)}, nil
		}
	}
	code, err := p.String("key_code")
	return keyParams{KeyCode: code}, err
}

type tapParams struct {
	X, Y int
}

func newTapParams(p api.Params) (tapParams, error) {
	x, err := p.Int("x")
	if err != nil {
		return tapParams{}, err
	}
	y, err := p.Int("y")
	if err != nil {
		return tapParams{}, err
	}
	return tapParams{X: x, Y: y}, nil
}

type swipeParams struct {
	StartX, StartY int
	EndX, EndY     int
	DurationMs     int
}

func newSwipeParams(p api.Params) (swipeParams, error) {
	var sp swipeParams
	for _, f := range []struct {
		key string
		dst *int
	}{
		{"start_x", &sp.StartX},
		{"start_y", &sp.StartY},
		{"end_x", &sp.EndX},
		{"end_y", &sp.EndY},
	} {
		v, err := p.Int(f.key)
		if err != nil {
			return swipeParams{}, err
		}
		*f.dst = v
	}
	d, err := p.IntOr("duration", defaultSwipeDuration)
	if err != nil {
		return swipeParams{}, err
	}
	if d <= 0 {
		return swipeParams{}, api.InvalidParameters("参数duration必须为正整数")
	}
	sp.DurationMs = d
	return sp, nil
}

type screenshotParams struct {
	OutputPath string
}

func newScreenshotParams(p api.Params) (screenshotParams, error) {
	path, err := p.String("output_path")
	return screenshotParams{OutputPath: path}, err
}

type describeParams struct {
	Prompt     string
	OutputPath string
}

func newDescribeParams(p api.Params) (describeParams, error) {
	prompt, err := p.StringOr("prompt", defaultDescribePrompt)
	if err != nil {
		return describeParams{}, err
	}
	path, err := p.StringOr("output_path", defaultScreenshotPath)
	if err != nil {
		return describeParams{}, err
	}
	return describeParams{Prompt: prompt, OutputPath: path}, nil
}
