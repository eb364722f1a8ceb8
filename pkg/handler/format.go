package handler

import (
	"adbtool/pkg/api"
	"adbtool/pkg/tools"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// FormatResult renders a result the way the shell prints it.
func FormatResult(res *api.Result) string {
	if res == nil {
		return "失败: 工具未返回结果"
	}
	if !res.OK() {
		return "失败: " + res.Message
	}

	var sb strings.Builder
	sb.WriteString("成功: " + res.Message)
	if len(res.Data) > 0 {
		sb.WriteString("\n结果:")
		for _, k := range slices.Sorted(maps.Keys(res.Data)) {
			fmt.Fprintf(&sb, "\n  %s: %v", k, res.Data[k])
		}
	}
	return sb.String()
}

// FormatHelp lists every operation with its description and parameter names.
func FormatHelp(catalog []api.ToolInfo) string {
	var sb strings.Builder
	sb.WriteString("可用工具:\n")
	for _, info := range catalog {
		fmt.Fprintf(&sb, "  %-20s %s", info.Name, info.Description)
		if params := parameterList(info.InputSchema); params != "" {
			sb.WriteString("  " + params)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n使用方法: <tool_name> --param1=value1 --param2=value2\n")
	sb.WriteString("示例: app_install --apk_path=myapp.apk\n\n")
	sb.WriteString("输入 'exit' 或 'quit' 退出程序")
	return sb.String()
}

// parameterList renders "--a=<a> [--b=<b>]"; optional ones are bracketed.
func parameterList(schema any) string {
	s, ok := schema.(*jsonschema.Schema)
	if !ok {
		return ""
	}
	required, optional := tools.ParameterNames(s)
	var parts []string
	for _, name := range required {
		parts = append(parts, fmt.Sprintf("--%s=<%s>", name, name))
	}
	for _, name := range optional {
		parts = append(parts, fmt.Sprintf("[--%s=<%s>]", name, name))
	}
	return strings.Join(parts, " ")
}
