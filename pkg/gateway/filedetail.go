package gateway

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

const MsgFileNotTagged = "File not tagged with that ID"

var fileDetailColumns = []string{
	"oc_filecache.fileid AS file_id",
	"oc_filecache.name AS file_name",
	"oc_filecache.path AS path",
	"sensors.sensor_id AS sensor_id",
	"sensors.name AS sensor_name",
	"sensor_files.upload_date AS upload_date",
}

var fileDetailPlan = &queryPlan[models.FileDetailFilter]{
	joins: map[string]joinSpec{
		"tag_mappings": {
			clause: "JOIN oc_systemtag_object_mapping ON oc_systemtag_object_mapping.objectid = oc_filecache.fileid" +
				" AND oc_systemtag_object_mapping.objecttype = '" + models.ObjectTypeFiles + "'",
			fanOut: true,
		},
		"tags": {
			clause:   "JOIN oc_systemtag ON oc_systemtag.id = oc_systemtag_object_mapping.systemtagid",
			requires: []string{"tag_mappings"},
		},
	},
	fields: []field[models.FileDetailFilter]{
		{name: "file_id", column: "oc_filecache.fileid", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *int { return f.FileID })},
		{name: "file_name", column: "oc_filecache.name", match: matchContains,
			value: opt(func(f models.FileDetailFilter) *string { return f.FileName })},
		{name: "tag_id", column: "oc_systemtag_object_mapping.systemtagid", join: "tag_mappings", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *int { return f.TagID })},
		{name: "tag_name", column: "oc_systemtag.name", join: "tags", match: matchContains,
			value: opt(func(f models.FileDetailFilter) *string { return f.TagName })},
		{name: "datatype_id", column: "sensors.datatype_id", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *int { return f.DatatypeID })},
		{name: "device_id", column: "sensors.device_id", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *int { return f.DeviceID })},
		{name: "sensor_id", column: "sensors.sensor_id", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *int { return f.SensorID })},
		{name: "topic", column: "sensors.topic", match: matchExact,
			value: opt(func(f models.FileDetailFilter) *string { return f.Topic })},
		{name: "start_date", column: "sensor_files.upload_date", match: matchAfter,
			value: opt(func(f models.FileDetailFilter) *time.Time { return f.StartDate })},
		{name: "end_date", column: "sensor_files.upload_date", match: matchBefore,
			value: opt(func(f models.FileDetailFilter) *time.Time { return f.EndDate })},
	},
}

// listFiles only ever returns sensor files under the storage namespace whose
// mimetype class is above the system threshold, newest first.
func (g *Gateway) listFiles(ctx context.Context, filter models.FileDetailFilter) ([]models.FileDetailRow, error) {
	namespace := g.Options.StorageNamespace

	base := g.conn(ctx).
		Model(&models.File{}).
		Joins("JOIN sensor_files ON sensor_files.fileid = oc_filecache.fileid").
		Joins("JOIN sensors ON sensors.sensor_id = sensor_files.sensor_id").
		Where("substr(oc_filecache.path, 1, ?) = ?", utf8.RuneCountInString(namespace), namespace).
		Where("oc_filecache.mimetype > ?", g.Options.MinMimetypeClass)

	q := fileDetailPlan.compose(base, filter)
	stmt := q.db
	if q.distinct {
		stmt = stmt.Distinct(fileDetailColumns)
	} else {
		stmt = stmt.Select(fileDetailColumns)
	}

	var rows []models.FileDetailRow
	if err := stmt.Order("sensor_files.upload_date DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// loadOwnedFile is the 404 then 403 gate of file detail mutations. A file
// without a sensor link is owned by nobody.
func (g *Gateway) loadOwnedFile(tx *gorm.DB, uid string, fileID int, file *models.File) error {
	found, err := lookup(tx, file, "fileid = ?", fileID)
	if err != nil {
		return err
	}
	if !found {
		return apierr.NewNotFoundError("", nil)
	}
	owned, err := g.isOwner(tx, uid, KindFile, fileID)
	if err != nil {
		return err
	}
	if !owned {
		return apierr.NewPermissionError("", nil)
	}
	return nil
}

// attachTag assigns an existing tag to a file. Assigning it twice is a no-op.
func attachTag(tx *gorm.DB, fileID, tagID int) (*models.Tag, error) {
	var tag models.Tag
	found, err := lookup(tx, &tag, "id = ?", tagID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apierr.NewNotFoundError(MsgNoTag, nil)
	}
	mapping := models.TagMapping{
		ObjectID:    fileID,
		ObjectType:  models.ObjectTypeFiles,
		SystemTagID: tagID,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mapping).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (g *Gateway) updateFile(ctx context.Context, uid string, input models.FileDetailUpdate) (*models.File, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryFileDetail)

	logger.Info("Received file detail update", zap.String("uid", uid), zap.Reflect("file", input))

	var file models.File
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedFile(tx, uid, input.FileID, &file); err != nil {
			return err
		}

		if input.SensorID != nil {
			owned, err := g.isOwner(tx, uid, KindSensor, *input.SensorID)
			if err != nil {
				return err
			}
			if !owned {
				return apierr.NewPermissionError("", nil)
			}
			if err := tx.Model(&models.SensorFile{}).
				Where("fileid = ?", input.FileID).
				Update("sensor_id", *input.SensorID).Error; err != nil {
				return err
			}
		}

		if input.TagID != nil {
			if _, err := attachTag(tx, input.FileID, *input.TagID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Updated file detail", zap.Int("file_id", file.FileID))
	return &file, nil
}

func (g *Gateway) removeFileTag(ctx context.Context, uid string, input models.FileTagRemoval) (*models.File, *models.Tag, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryFileDetail)

	logger.Info("Received file tag removal", zap.String("uid", uid), zap.Reflect("file", input))

	var file models.File
	var tag models.Tag
	err := g.inTx(ctx, func(tx *gorm.DB) error {
		if err := g.loadOwnedFile(tx, uid, input.FileID, &file); err != nil {
			return err
		}

		found, err := lookup(tx, &tag, "id = ?", input.TagID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError(MsgFileNotTagged, nil)
		}

		res := tx.Where("objectid = ? AND objecttype = ? AND systemtagid = ?",
			input.FileID, models.ObjectTypeFiles, input.TagID).
			Delete(&models.TagMapping{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierr.NewNotFoundError(MsgFileNotTagged, nil)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Removed tag from file", zap.Int("file_id", file.FileID), zap.Int("tag_id", tag.TagID))
	return &file, &tag, nil
}

type IFileDetailImpl struct {
	gateway *Gateway
}

func (f *IFileDetailImpl) List(ctx context.Context, filter models.FileDetailFilter) ([]models.FileDetailRow, error) {
	return f.gateway.listFiles(ctx, filter)
}

func (f *IFileDetailImpl) Update(ctx context.Context, uid string, input models.FileDetailUpdate) (*models.File, error) {
	return f.gateway.updateFile(ctx, uid, input)
}

func (f *IFileDetailImpl) RemoveTag(ctx context.Context, uid string, input models.FileTagRemoval) (*models.File, *models.Tag, error) {
	return f.gateway.removeFileTag(ctx, uid, input)
}

func (g *Gateway) GetIFileDetail() IFileDetail {
	return &IFileDetailImpl{gateway: g}
}
