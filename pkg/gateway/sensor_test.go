package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

func TestCreateSensor(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	sensor, err := gw.Sensor.Create(ctx, "alice", models.SensorCreate{
		SensorName: "hygro",
		Topic:      ptr("home/kitchen/hum"),
		DatatypeID: 1,
		DeviceID:   1,
	})
	require.NoError(t, err)
	assert.True(t, sensor.IsEnabled)
	assert.Equal(t, "home/kitchen/hum", sensor.Topic)

	sensor, err = gw.Sensor.Create(ctx, "alice", models.SensorCreate{
		SensorName: "off",
		IsEnabled:  ptr(false),
		DatatypeID: 1,
		DeviceID:   2,
	})
	require.NoError(t, err)
	assert.False(t, sensor.IsEnabled)
}

func TestCreateSensor_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	// foreign and missing devices are both a bad request
	for _, deviceID := range []int{3, 999} {
		_, err := gw.Sensor.Create(ctx, "alice", models.SensorCreate{SensorName: "x", DatatypeID: 1, DeviceID: deviceID})
		require.Error(t, err)
		e := apierr.From(err)
		assert.Equal(t, 400, e.Code)
		assert.Equal(t, MsgTargetDevice, e.Message)
	}

	_, err := gw.Sensor.Create(ctx, "alice", models.SensorCreate{SensorName: "x", DatatypeID: 999, DeviceID: 1})
	require.Error(t, err)
	assert.Equal(t, MsgTargetDatatype, apierr.From(err).Message)
}

func TestUpdateSensor(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	sensor, err := gw.Sensor.Update(ctx, "alice", models.SensorUpdate{
		SensorID:  4,
		IsEnabled: ptr(true),
		DeviceID:  ptr(2),
	})
	require.NoError(t, err)
	assert.True(t, sensor.IsEnabled)
	assert.Equal(t, 2, sensor.DeviceID)
	assert.Equal(t, "spare", sensor.SensorName)
}

func TestUpdateSensor_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	_, err := gw.Sensor.Update(ctx, "alice", models.SensorUpdate{SensorID: 999, Topic: ptr("t")})
	assert.True(t, apierr.IsNotFound(err))

	_, err = gw.Sensor.Update(ctx, "alice", models.SensorUpdate{SensorID: 3, Topic: ptr("t")})
	assert.True(t, apierr.IsPermission(err))

	// moving an owned sensor onto somebody else's device
	_, err = gw.Sensor.Update(ctx, "alice", models.SensorUpdate{SensorID: 1, DeviceID: ptr(3)})
	assert.True(t, apierr.IsPermission(err))

	_, err = gw.Sensor.Update(ctx, "alice", models.SensorUpdate{SensorID: 1, DeviceID: ptr(999)})
	require.Error(t, err)
	assert.Equal(t, 400, apierr.From(err).Code)

	_, err = gw.Sensor.Update(ctx, "alice", models.SensorUpdate{SensorID: 1, DatatypeID: ptr(999)})
	require.Error(t, err)
	assert.Equal(t, MsgTargetDatatype, apierr.From(err).Message)

	var sensor models.Sensor
	require.NoError(t, gw.Db.Conn.Where("sensor_id = ?", 1).Take(&sensor).Error)
	assert.Equal(t, 1, sensor.DeviceID)
	assert.Equal(t, 1, sensor.DatatypeID)
}

func TestDeleteSensor(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	deleted, err := gw.Sensor.Delete(ctx, "alice", 4)
	require.NoError(t, err)
	assert.Equal(t, "spare", deleted.SensorName)

	_, err = gw.Sensor.Delete(ctx, "alice", 4)
	assert.True(t, apierr.IsNotFound(err))

	_, err = gw.Sensor.Delete(ctx, "alice", 3)
	assert.True(t, apierr.IsPermission(err))

	// files still point at sensor 1
	_, err = gw.Sensor.Delete(ctx, "alice", 1)
	assert.True(t, apierr.IsConflict(err))
}
