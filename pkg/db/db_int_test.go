package db

import (
	"os"
	"path/filepath"
	"testing"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
)

func TestWithFilePath(t *testing.T) {
	common.SetTestLoggerNop()

	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}

	testPath := filepath.Join(t.TempDir(), "test.db")

	instance, err := NewInstance(UseSqliteDialector(testPath), true)
	if err != nil || instance == nil || instance.Conn == nil {
		t.Fatalf("Expected non-nil DB connection, got error %v", err)
	}

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Errorf("Expected database file to be created at %s", testPath)
	}
}

func TestWithPostgres(t *testing.T) {
	common.SetTestLoggerNop()

	dsn := os.Getenv(common.EnvKeyIOTDbDSN)
	if os.Getenv(common.EnvKeyRunIntegrationTests) != "true" || dsn == "" {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS or IOT_DB_DSN not set")
	}

	instance, err := NewInstance(UsePostgresDialector(dsn), false)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}

	var one int
	if err := instance.Conn.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Errorf("Expected SELECT 1 to succeed, got %d, %v", one, err)
	}
}
