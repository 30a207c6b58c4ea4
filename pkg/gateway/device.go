package gateway

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

var devicePlan = &queryPlan[models.DeviceFilter]{
	fields: []field[models.DeviceFilter]{
		{name: "device_id", column: "devices.device_id", match: matchExact,
			value: opt(func(f models.DeviceFilter) *int { return f.DeviceID })},
		{name: "device_name", column: "devices.name", match: matchContains,
			value: opt(func(f models.DeviceFilter) *string { return f.DeviceName })},
		{name: "location", column: "devices.location", match: matchExact,
			value: opt(func(f models.DeviceFilter) *string { return f.Location })},
		{name: "uid", column: "devices.uid", match: matchExact,
			value: opt(func(f models.DeviceFilter) *string { return f.UID })},
	},
}

func (g *Gateway) listDevices(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error) {
	q := devicePlan.compose(g.conn(ctx).Model(&models.Device{}), filter)

	var devices []models.Device
	if err := q.db.Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

func (g *Gateway) createDevice(ctx context.Context, uid string, input models.DeviceCreate) (*models.Device, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDevice)

	logger.Info("Received device", zap.String("uid", uid), zap.Reflect("device", input))

	device := models.Device{
		DeviceName: input.DeviceName,
		Location:   input.Location,
		UID:        uid,
	}
	if err := g.inTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&device).Error
	}); err != nil {
		return nil, err
	}

	logger.Info("Created device", zap.Int("device_id", device.DeviceID), zap.String("uid", uid))
	return &device, nil
}

// loadOwnedDevice is the common 404 then 403 gate of device mutations.
func (g *Gateway) loadOwnedDevice(tx *gorm.DB, uid string, deviceID int, device *models.Device) error {
	found, err := lookup(tx, device, "device_id = ?", deviceID)
	if err != nil {
		return err
	}
	if !found {
		return apierr.NewNotFoundError("", nil)
	}
	owned, err := g.isOwner(tx, uid, KindDevice, deviceID)
	if err != nil {
		return err
	}
	if !owned {
		return apierr.NewPermissionError("", nil)
	}
	return nil
}

func (g *Gateway) updateDevice(ctx context.Context, uid string, input models.DeviceUpdate) (*models.Device, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDevice)

	logger.Info("Received device update", zap.String("uid", uid), zap.Reflect("device", input))

	var device models.Device
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedDevice(tx, uid, input.DeviceID, &device); err != nil {
			return err
		}
		if changes := input.Changes(); len(changes) > 0 {
			if err := tx.Model(&device).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("device_id = ?", input.DeviceID).Take(&device).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated device", zap.Int("device_id", device.DeviceID))
	return &device, nil
}

// deleteDevice removes the device and every sensor on it. A sensor that
// cannot go (it still has files) aborts the whole operation.
func (g *Gateway) deleteDevice(ctx context.Context, uid string, deviceID int) (*models.Device, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryDevice)

	logger.Info("Received device delete", zap.String("uid", uid), zap.Int("device_id", deviceID))

	var device models.Device
	var removed []int
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedDevice(tx, uid, deviceID, &device); err != nil {
			return err
		}

		var sensors []models.Sensor
		if err := tx.Where("device_id = ?", deviceID).Order("sensor_id").Find(&sensors).Error; err != nil {
			return err
		}
		for i := range sensors {
			if err := tx.Delete(&sensors[i]).Error; err != nil {
				return err
			}
			removed = append(removed, sensors[i].SensorID)
		}

		return tx.Delete(&device).Error
	})
	if err != nil {
		logger.Warn("Device delete rolled back", zap.Int("device_id", deviceID), zap.Error(err))
		return nil, err
	}

	logger.Info("Deleted device", zap.Int("device_id", deviceID), zap.Ints("sensors", removed))
	return &device, nil
}

type IDeviceImpl struct {
	gateway *Gateway
}

func (d *IDeviceImpl) List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error) {
	return d.gateway.listDevices(ctx, filter)
}

func (d *IDeviceImpl) Create(ctx context.Context, uid string, input models.DeviceCreate) (*models.Device, error) {
	return d.gateway.createDevice(ctx, uid, input)
}

func (d *IDeviceImpl) Update(ctx context.Context, uid string, input models.DeviceUpdate) (*models.Device, error) {
	return d.gateway.updateDevice(ctx, uid, input)
}

func (d *IDeviceImpl) Delete(ctx context.Context, uid string, deviceID int) (*models.Device, error) {
	return d.gateway.deleteDevice(ctx, uid, deviceID)
}

func (g *Gateway) GetIDevice() IDevice {
	return &IDeviceImpl{gateway: g}
}
