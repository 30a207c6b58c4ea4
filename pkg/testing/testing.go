package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests share one working directory (the project root) so relative paths
	// such as the logs directory resolve the same way as for cmd/server
	//
	//   import (
	//     _ "liyu1981.xyz/iot-gateway-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}

	if _, found := os.LookupEnv("IOT_LOG_DIR"); !found {
		_ = os.Setenv("IOT_LOG_DIR", path.Join(os.TempDir(), "iot-gateway-test-logs"))
	}
}
