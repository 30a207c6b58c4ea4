package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

func TestIsOwner(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	cases := []struct {
		uid  string
		kind EntityKind
		id   int
		want bool
	}{
		{"alice", KindDevice, 1, true},
		{"alice", KindDevice, 3, false},
		{"bob", KindDevice, 3, true},
		{"alice", KindDevice, 999, false},
		{"alice", KindSensor, 1, true},
		{"alice", KindSensor, 2, true},
		{"alice", KindSensor, 3, false},
		{"bob", KindSensor, 1, false},
		{"alice", KindSensor, 999, false},
		{"alice", KindFile, 10, true},
		{"alice", KindFile, 11, true},
		{"alice", KindFile, 12, false},
		{"bob", KindFile, 12, true},
		// file without a sensor link
		{"alice", KindFile, 15, false},
		{"alice", KindFile, 999, false},
		{"", KindDevice, 1, false},
	}
	for _, c := range cases {
		got, err := gw.Ownership.IsOwner(ctx, c.uid, c.kind, c.id)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s %s %d", c.uid, c.kind, c.id)
	}
}

func TestIsOwner_EdgeCases(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	_, err := gw.Ownership.IsOwner(ctx, "alice", EntityKind("datatype"), 1)
	assert.Error(t, err)

	// moving the sensor moves the ownership of its files with it
	require.NoError(t, gw.Db.Conn.Model(&models.Sensor{}).Where("sensor_id = ?", 1).Update("device_id", 3).Error)

	owned, err := gw.Ownership.IsOwner(ctx, "alice", KindFile, 10)
	require.NoError(t, err)
	assert.False(t, owned)

	owned, err = gw.Ownership.IsOwner(ctx, "bob", KindFile, 10)
	require.NoError(t, err)
	assert.True(t, owned)
}
