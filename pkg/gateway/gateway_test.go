package gateway

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

func TestLookup(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()

	var out bytes.Buffer
	tx := gw.Db.Conn.Session(&gorm.Session{
		Logger: logger.New(log.New(&out, "", 0), logger.Config{LogLevel: logger.Warn}),
	})

	var device models.Device
	found, err := lookup(tx, &device, "device_id = ?", 1)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Kitchen hub", device.DeviceName)

	var missing models.Device
	found, err = lookup(tx, &missing, "device_id = ?", 999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, missing.DeviceID)

	// a missing row is an answer, not an error gorm should log
	assert.Empty(t, out.String())
}
