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

func TestTagLifecycle(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	tag, err := gw.Tag.Create(ctx, "alice", models.TagCreate{TagName: "Night"})
	require.NoError(t, err)
	assert.NotZero(t, tag.TagID)

	found, err := gw.Tag.List(ctx, models.TagFilter{TagName: ptr("door")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, common.Mapper(found, func(tg models.Tag) int { return tg.TagID }))

	tag, err = gw.Tag.Update(ctx, "alice", models.TagUpdate{TagID: tag.TagID, TagName: ptr("Nightly")})
	require.NoError(t, err)
	assert.Equal(t, "Nightly", tag.TagName)

	_, err = gw.Tag.Update(ctx, "alice", models.TagUpdate{TagID: 999, TagName: ptr("x")})
	assert.True(t, apierr.IsNotFound(err))
}

func TestDeleteTag(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, gw, _ := GetMockGatewayWithIsolatedSqlite(t)
	defer ctrl.Finish()
	ctx := context.Background()

	deleted, err := gw.Tag.Delete(ctx, "alice", 1)
	require.NoError(t, err)
	assert.Equal(t, "Outdoor", deleted.TagName)

	var mappings []models.TagMapping
	require.NoError(t, gw.Db.Conn.Find(&mappings).Error)
	assert.ElementsMatch(t, []int{3, 2}, common.Mapper(mappings, func(m models.TagMapping) int { return m.SystemTagID }))

	_, err = gw.Tag.Delete(ctx, "alice", 1)
	assert.True(t, apierr.IsNotFound(err))
}
