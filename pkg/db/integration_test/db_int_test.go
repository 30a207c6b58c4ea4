package test

import (
	"os"
	"path/filepath"
	"testing"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/db"
)

func TestOpenWithEnvConfig(t *testing.T) {
	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}
	common.SetTestLoggerNop()

	testPath := filepath.Join(t.TempDir(), "gateway.db")

	t.Setenv(common.EnvKeyIOTDBType, "file")
	t.Setenv(common.EnvKeyIOTDbPath, testPath)
	t.Setenv(common.EnvKeyIOTJwtSecret, "integration-secret-0123")
	t.Setenv(common.EnvKeyIOTUserEndpoint, "https://cloud.example.org/ocs/v1.php/cloud/users/")
	t.Setenv(common.EnvKeyIOTWebdavEndpoint, "https://cloud.example.org/remote.php/dav/files/")

	cfg, err := common.LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	instance, err := db.Open(cfg)
	if err != nil || instance == nil || instance.Conn == nil {
		t.Fatalf("Expected non-nil DB connection, got error %v", err)
	}

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Errorf("Expected database file to be created at %s", testPath)
	}
}
