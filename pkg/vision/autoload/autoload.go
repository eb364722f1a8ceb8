// Package autoload registers every vision provider factory.
package autoload

import (
	_ "adbtool/pkg/vision/gemini"
	_ "adbtool/pkg/vision/ollama"
	_ "adbtool/pkg/vision/openailm"
)
