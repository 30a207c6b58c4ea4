package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/metrics"
)

type EntityKind string

const (
	KindDevice EntityKind = "device"
	KindSensor EntityKind = "sensor"
	KindFile   EntityKind = "file"
)

// ownerQuery walks the chain from an entity up to the owning device. Inner
// joins drop the row when any link is missing.
func ownerQuery(tx *gorm.DB, kind EntityKind, id int) (*gorm.DB, error) {
	switch kind {
	case KindDevice:
		return tx.Table("devices").
			Select("devices.uid").
			Where("devices.device_id = ?", id), nil
	case KindSensor:
		return tx.Table("sensors").
			Select("devices.uid").
			Joins("JOIN devices ON devices.device_id = sensors.device_id").
			Where("sensors.sensor_id = ?", id), nil
	case KindFile:
		return tx.Table("sensor_files").
			Select("devices.uid").
			Joins("JOIN sensors ON sensors.sensor_id = sensor_files.sensor_id").
			Joins("JOIN devices ON devices.device_id = sensors.device_id").
			Where("sensor_files.fileid = ?", id), nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// isOwner fails closed: a missing entity or a broken chain is not owned.
func (g *Gateway) isOwner(tx *gorm.DB, uid string, kind EntityKind, id int) (bool, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryOwnership)

	if uid == "" {
		return false, nil
	}

	q, err := ownerQuery(tx, kind, id)
	if err != nil {
		return false, err
	}

	var owners []string
	if err := q.Limit(1).Scan(&owners).Error; err != nil {
		return false, err
	}

	owned := len(owners) == 1 && owners[0] == uid
	if !owned {
		metrics.OwnershipDenials.WithLabelValues(string(kind)).Inc()
		logger.Info("Ownership denied",
			zap.String("uid", uid),
			zap.String("kind", string(kind)),
			zap.Int("id", id),
			zap.Bool("chain_found", len(owners) == 1),
		)
	}
	return owned, nil
}

type IOwnershipImpl struct {
	gateway *Gateway
}

func (o *IOwnershipImpl) IsOwner(ctx context.Context, uid string, kind EntityKind, id int) (bool, error) {
	return o.gateway.isOwner(o.gateway.conn(ctx), uid, kind, id)
}

func (g *Gateway) GetIOwnership() IOwnership {
	return &IOwnershipImpl{gateway: g}
}
