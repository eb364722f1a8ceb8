// Package autoload registers every remote channel factory.
package autoload

import (
	_ "adbtool/pkg/channels/telegram"
	_ "adbtool/pkg/channels/web"
)
