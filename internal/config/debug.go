package config

import "os"

func IsDebug() bool {
	return os.Getenv("TUSKCTX_DEBUG") == "1"
}
