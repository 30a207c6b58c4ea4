package gateway

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

const (
	MsgTargetDevice   = "Target device doesn't exist or you don't own it"
	MsgTargetDatatype = "Target datatype doesn't exist"
)

var sensorPlan = &queryPlan[models.SensorFilter]{
	joins: map[string]joinSpec{
		"devices":   {clause: "JOIN devices ON devices.device_id = sensors.device_id"},
		"datatypes": {clause: "JOIN datatypes ON datatypes.datatype_id = sensors.datatype_id"},
	},
	fields: []field[models.SensorFilter]{
		{name: "sensor_id", column: "sensors.sensor_id", match: matchExact,
			value: opt(func(f models.SensorFilter) *int { return f.SensorID })},
		{name: "sensor_name", column: "sensors.name", match: matchContains,
			value: opt(func(f models.SensorFilter) *string { return f.SensorName })},
		{name: "topic", column: "sensors.topic", match: matchExact,
			value: opt(func(f models.SensorFilter) *string { return f.Topic })},
		{name: "is_enabled", column: "sensors.is_enabled", match: matchExact,
			value: opt(func(f models.SensorFilter) *bool { return f.IsEnabled })},
		{name: "datatype_id", column: "sensors.datatype_id", match: matchExact,
			value: opt(func(f models.SensorFilter) *int { return f.DatatypeID })},
		{name: "device_id", column: "sensors.device_id", match: matchExact,
			value: opt(func(f models.SensorFilter) *int { return f.DeviceID })},
		{name: "location", column: "devices.location", join: "devices", match: matchExact,
			value: opt(func(f models.SensorFilter) *string { return f.Location })},
		{name: "datatype_name", column: "datatypes.name", join: "datatypes", match: matchContains,
			value: opt(func(f models.SensorFilter) *string { return f.DatatypeName })},
		{name: "is_large", column: "datatypes.is_large", join: "datatypes", match: matchExact,
			value: opt(func(f models.SensorFilter) *bool { return f.IsLarge })},
		{name: "uid", column: "devices.uid", join: "devices", match: matchExact,
			value: opt(func(f models.SensorFilter) *string { return f.UID })},
		{name: "device_name", column: "devices.name", join: "devices", match: matchContains,
			value: opt(func(f models.SensorFilter) *string { return f.DeviceName })},
	},
}

func (g *Gateway) listSensors(ctx context.Context, filter models.SensorFilter) ([]models.SensorRow, error) {
	conn := g.conn(ctx)
	q := sensorPlan.compose(conn.Model(&models.Sensor{}), filter)

	var sensors []models.Sensor
	if err := q.db.Find(&sensors).Error; err != nil {
		return nil, err
	}
	if len(sensors) == 0 {
		return nil, nil
	}

	// Rows carry device and datatype attributes. They are looked up by key
	// after filtering so the filter query only joins what it filters on.
	deviceIDs := common.Mapper(sensors, func(s models.Sensor) int { return s.DeviceID })
	datatypeIDs := common.Mapper(sensors, func(s models.Sensor) int { return s.DatatypeID })

	var devices []models.Device
	if err := conn.Where("device_id IN ?", deviceIDs).Find(&devices).Error; err != nil {
		return nil, err
	}
	var datatypes []models.Datatype
	if err := conn.Where("datatype_id IN ?", datatypeIDs).Find(&datatypes).Error; err != nil {
		return nil, err
	}

	deviceByID := common.Reducer(devices, func(acc map[int]models.Device, d models.Device) map[int]models.Device {
		acc[d.DeviceID] = d
		return acc
	}, map[int]models.Device{})
	datatypeByID := common.Reducer(datatypes, func(acc map[int]models.Datatype, d models.Datatype) map[int]models.Datatype {
		acc[d.DatatypeID] = d
		return acc
	}, map[int]models.Datatype{})

	return common.Mapper(sensors, func(s models.Sensor) models.SensorRow {
		device := deviceByID[s.DeviceID]
		datatype := datatypeByID[s.DatatypeID]
		return models.SensorRow{
			SensorID:     s.SensorID,
			SensorName:   s.SensorName,
			Topic:        s.Topic,
			IsEnabled:    s.IsEnabled,
			DatatypeID:   s.DatatypeID,
			DeviceID:     s.DeviceID,
			DeviceName:   device.DeviceName,
			UID:          device.UID,
			Location:     device.Location,
			DatatypeName: datatype.DatatypeName,
			IsLarge:      datatype.IsLarge,
		}
	}), nil
}

// checkTargetDevice validates the device a new sensor is attached to. Both
// a missing and a foreign device are a bad request.
func (g *Gateway) checkTargetDevice(tx *gorm.DB, uid string, deviceID int) error {
	owned, err := g.isOwner(tx, uid, KindDevice, deviceID)
	if err != nil {
		return err
	}
	if !owned {
		return apierr.NewBadRequestError(MsgTargetDevice, nil)
	}
	return nil
}

func checkTargetDatatype(tx *gorm.DB, datatypeID int) error {
	var datatype models.Datatype
	found, err := lookup(tx, &datatype, "datatype_id = ?", datatypeID)
	if err != nil {
		return err
	}
	if !found {
		return apierr.NewBadRequestError(MsgTargetDatatype, nil)
	}
	return nil
}

func (g *Gateway) createSensor(ctx context.Context, uid string, input models.SensorCreate) (*models.Sensor, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategorySensor)

	logger.Info("Received sensor", zap.String("uid", uid), zap.Reflect("sensor", input))

	sensor := models.Sensor{
		SensorName: input.SensorName,
		IsEnabled:  true,
		DatatypeID: input.DatatypeID,
		DeviceID:   input.DeviceID,
	}
	if input.Topic != nil {
		sensor.Topic = *input.Topic
	}
	if input.IsEnabled != nil {
		sensor.IsEnabled = *input.IsEnabled
	}

	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.checkTargetDevice(tx, uid, input.DeviceID); err != nil {
			return err
		}
		if err := checkTargetDatatype(tx, input.DatatypeID); err != nil {
			return err
		}
		return tx.Create(&sensor).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Created sensor", zap.Int("sensor_id", sensor.SensorID), zap.Int("device_id", sensor.DeviceID))
	return &sensor, nil
}

// loadOwnedSensor is the 404 then 403 gate, ownership is taken through the
// device the sensor is on now.
func (g *Gateway) loadOwnedSensor(tx *gorm.DB, uid string, sensorID int, sensor *models.Sensor) error {
	found, err := lookup(tx, sensor, "sensor_id = ?", sensorID)
	if err != nil {
		return err
	}
	if !found {
		return apierr.NewNotFoundError("", nil)
	}
	owned, err := g.isOwner(tx, uid, KindSensor, sensorID)
	if err != nil {
		return err
	}
	if !owned {
		return apierr.NewPermissionError("", nil)
	}
	return nil
}

func (g *Gateway) updateSensor(ctx context.Context, uid string, input models.SensorUpdate) (*models.Sensor, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategorySensor)

	logger.Info("Received sensor update", zap.String("uid", uid), zap.Reflect("sensor", input))

	var sensor models.Sensor
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedSensor(tx, uid, input.SensorID, &sensor); err != nil {
			return err
		}

		if input.DeviceID != nil && *input.DeviceID != sensor.DeviceID {
			var target models.Device
			found, err := lookup(tx, &target, "device_id = ?", *input.DeviceID)
			if err != nil {
				return err
			}
			if !found {
				return apierr.NewBadRequestError(MsgTargetDevice, nil)
			}
			owned, err := g.isOwner(tx, uid, KindDevice, *input.DeviceID)
			if err != nil {
				return err
			}
			if !owned {
				return apierr.NewPermissionError("", nil)
			}
		}
		if input.DatatypeID != nil {
			if err := checkTargetDatatype(tx, *input.DatatypeID); err != nil {
				return err
			}
		}

		if changes := input.Changes(); len(changes) > 0 {
			if err := tx.Model(&sensor).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("sensor_id = ?", input.SensorID).Take(&sensor).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated sensor", zap.Int("sensor_id", sensor.SensorID), zap.Int("device_id", sensor.DeviceID))
	return &sensor, nil
}

func (g *Gateway) deleteSensor(ctx context.Context, uid string, sensorID int) (*models.Sensor, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategorySensor)

	logger.Info("Received sensor delete", zap.String("uid", uid), zap.Int("sensor_id", sensorID))

	var sensor models.Sensor
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedSensor(tx, uid, sensorID, &sensor); err != nil {
			return err
		}
		return tx.Delete(&sensor).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Deleted sensor", zap.Int("sensor_id", sensorID))
	return &sensor, nil
}

type ISensorImpl struct {
	gateway *Gateway
}

func (s *ISensorImpl) List(ctx context.Context, filter models.SensorFilter) ([]models.SensorRow, error) {
	return s.gateway.listSensors(ctx, filter)
}

func (s *ISensorImpl) Create(ctx context.Context, uid string, input models.SensorCreate) (*models.Sensor, error) {
	return s.gateway.createSensor(ctx, uid, input)
}

func (s *ISensorImpl) Update(ctx context.Context, uid string, input models.SensorUpdate) (*models.Sensor, error) {
	return s.gateway.updateSensor(ctx, uid, input)
}

func (s *ISensorImpl) Delete(ctx context.Context, uid string, sensorID int) (*models.Sensor, error) {
	return s.gateway.deleteSensor(ctx, uid, sensorID)
}

func (g *Gateway) GetISensor() ISensor {
	return &ISensorImpl{gateway: g}
}
