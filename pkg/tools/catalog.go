package tools

import (
	"adbtool/pkg/api"
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// DeviceTool 是一個包裝了 Device 單一動作的工具
// decode validates the raw params into P before run touches the device.
type DeviceTool[P any] struct {
	description string
	schema      *jsonschema.Schema
	decode      func(api.Params) (P, error)
	run         func(ctx context.Context, p P) (*Result, error)
}

func (t *DeviceTool[P]) Description() string {
	return t.description
}

func (t *DeviceTool[P]) InputSchema() *jsonschema.Schema {
	return t.schema
}

func (t *DeviceTool[P]) Execute(ctx context.Context, params Params) (*Result, error) {
	p, err := t.decode(params)
	if err != nil {
		return nil, err
	}
	return t.run(ctx, p)
}

type catalogEntry struct {
	name string
	op   Operation
}

// deviceFailed wraps a device error under the operation's failure message.
func deviceFailed(message string, err error) error {
	return &api.ToolError{Kind: api.ErrDeviceCommandFailed, Message: message, Cause: err}
}

// simple builds a tool whose only outcome is a fixed success or failure message.
func simple[P any](description string, schema *jsonschema.Schema, decode func(api.Params) (P, error),
	call func(ctx context.Context, p P) error, okMsg, failMsg string) *DeviceTool[P] {
	return &DeviceTool[P]{
		description: description,
		schema:      schema,
		decode:      decode,
		run: func(ctx context.Context, p P) (*Result, error) {
			if err := call(ctx, p); err != nil {
				return nil, deviceFailed(failMsg, err)
			}
			return api.NewResult(okMsg), nil
		},
	}
}

func deviceCatalog(d api.Device) []catalogEntry {
	return []catalogEntry{
		{"app_install", simple("安装Android应用",
			objectSchema(props{"apk_path": str("APK文件路径")}, "apk_path"),
			newInstallParams,
			func(ctx context.Context, p installParams) error { return d.InstallApp(ctx, p.APKPath) },
			"应用安装成功", "应用安装失败")},
		{"app_uninstall", simple("卸载Android应用",
			objectSchema(props{"package_name": str("应用包名")}, "package_name"),
			newPackageParams,
			func(ctx context.Context, p packageParams) error { return d.UninstallApp(ctx, p.PackageName) },
			"应用卸载成功", "应用卸载失败")},
		{"app_start", simple("启动Android应用",
			objectSchema(props{
				"package_name":  str("应用包名"),
				"activity_name": str("启动的Activity名称"),
			}, "package_name", "activity_name"),
			newStartParams,
			func(ctx context.Context, p startParams) error {
				return d.StartApp(ctx, p.PackageName, p.ActivityName)
			},
			"应用启动成功", "应用启动失败")},
		{"app_stop", simple("停止Android应用",
			objectSchema(props{"package_name": str("应用包名")}, "package_name"),
			newPackageParams,
			func(ctx context.Context, p packageParams) error { return d.StopApp(ctx, p.PackageName) },
			"应用停止成功", "应用停止失败")},
		{"screen_unlock", simple("解锁屏幕", objectSchema(nil), newNoParams,
			func(ctx context.Context, _ noParams) error { return d.UnlockScreen(ctx) },
			"屏幕解锁成功", "屏幕解锁失败")},
		{"screen_lock", simple("锁定屏幕", objectSchema(nil), newNoParams,
			func(ctx context.Context, _ noParams) error { return d.LockScreen(ctx) },
			"屏幕锁定成功", "屏幕锁定失败")},
		{"input_text", simple("输入文本",
			objectSchema(props{"text": str("要输入的文本")}, "text"),
			newTextParams,
			func(ctx context.Context, p textParams) error { return d.InputText(ctx, p.Text) },
			"文本输入成功", "文本输入失败")},
		{"input_key", simple("输入按键",
			objectSchema(props{"key_code": {
				Types:       []string{"string", "integer"},
				Description: "按键代码，例如 KEYCODE_HOME 或 3",
			}}, "key_code"),
			newKeyParams,
			func(ctx context.Context, p keyParams) error { return d.InputKeyEvent(ctx, p.KeyCode) },
			"按键输入成功", "按键输入失败")},
		{"tap", simple("点击屏幕",
			objectSchema(props{"x": integer("X坐标"), "y": integer("Y坐标")}, "x", "y"),
			newTapParams,
			func(ctx context.Context, p tapParams) error { return d.Tap(ctx, p.X, p.Y) },
			"屏幕点击成功", "屏幕点击失败")},
		{"swipe", simple("滑动屏幕",
			objectSchema(props{
				"start_x":  integer("起始X坐标"),
				"start_y":  integer("起始Y坐标"),
				"end_x":    integer("结束X坐标"),
				"end_y":    integer("结束Y坐标"),
				"duration": withDefault(integer("滑动持续时间(毫秒)"), defaultSwipeDuration),
			}, "start_x", "start_y", "end_x", "end_y"),
			newSwipeParams,
			func(ctx context.Context, p swipeParams) error {
				return d.Swipe(ctx, p.StartX, p.StartY, p.EndX, p.EndY, p.DurationMs)
			},
			"屏幕滑动成功", "屏幕滑动失败")},
		{"get_device_info", &DeviceTool[noParams]{
			description: "获取设备信息",
			schema:      objectSchema(nil),
			decode:      newNoParams,
			run: func(ctx context.Context, _ noParams) (*Result, error) {
				info, err := d.QueryInfo(ctx)
				if err != nil {
					return nil, deviceFailed("获取设备信息失败", err)
				}
				res := api.NewResult("获取设备信息成功")
				for k, v := range info {
					res.Data[k] = v
				}
				return res, nil
			},
		}},
		{"screenshot", &DeviceTool[screenshotParams]{
			description: "截图",
			schema:      objectSchema(props{"output_path": str("截图保存路径")}, "output_path"),
			decode:      newScreenshotParams,
			run: func(ctx context.Context, p screenshotParams) (*Result, error) {
				if err := d.CaptureScreenshot(ctx, p.OutputPath); err != nil {
					return nil, deviceFailed("截图失败", err)
				}
				return api.NewResult("截图成功").With("screenshot_path", p.OutputPath), nil
			},
		}},
	}
}

type props = map[string]*jsonschema.Schema

func objectSchema(properties props, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = props{}
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func str(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func integer(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func withDefault(s *jsonschema.Schema, v any) *jsonschema.Schema {
	raw, err := json.Marshal(v)
	if err == nil {
		s.Default = raw
	}
	return s
}

// ParameterNames returns the declared parameter names of schema: required
// ones in declaration order, then the optional ones sorted.
func ParameterNames(schema *jsonschema.Schema) (required, optional []string) {
	if schema == nil {
		return nil, nil
	}
	isRequired := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		isRequired[name] = true
		required = append(required, name)
	}
	for _, name := range sortedKeys(schema.Properties) {
		if !isRequired[name] {
			optional = append(optional, name)
		}
	}
	return required, optional
}
