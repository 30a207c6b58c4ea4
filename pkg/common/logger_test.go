package common

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

func TestLoggingCapture(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	logger := GetLogger()
	logger.Info("Test log message", zap.String("key", "value"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Test log message") {
		t.Errorf("expected log output to contain message, got: %s", logOutput)
	}
}

func TestCategoryLogger(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	GetCategoryLogger(LoggerNameGateway, LoggerCategoryDevice).Info("Device created")
	GetCategoryLogger(LoggerNameGateway, LoggerCategoryDevice).Debug("dropped below level")

	out := buf.String()
	if !strings.Contains(out, `"logger":"gateway"`) || !strings.Contains(out, `"category":"device"`) {
		t.Errorf("expected named logger with category field, got: %s", out)
	}
	if strings.Contains(out, "dropped below level") {
		t.Errorf("debug entry should not be captured at info level")
	}
}
