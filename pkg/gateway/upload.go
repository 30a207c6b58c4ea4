package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/metrics"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	"liyu1981.xyz/iot-gateway-service/pkg/storage"
)

const (
	MsgNoFileContent       = "No file content"
	MsgExtensionNotAllowed = "This extension is not allowed"
	MsgUploaded            = "File uploaded successfully"

	fileTimeLayout = "2006-01-02T15:04:05"
)

// StorageFileName names an uploaded file after the time it arrived and the
// sensor it came from.
func StorageFileName(now time.Time, sensorID int, extension string) string {
	return fmt.Sprintf("%s_sensor_%d.%s", now.Format(fileTimeLayout), sensorID, extension)
}

// StoragePath is the path of the file below the owner's WebDAV root.
func StoragePath(dir string, now time.Time, sensorID int, extension string) string {
	dir = strings.TrimLeft(dir, "/")
	name := StorageFileName(now, sensorID, extension)
	if dir == "" {
		return name
	}
	return common.AppendSlash(dir) + name
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func (g *Gateway) extensionAllowed(ext string) bool {
	return ext != "" && slices.Contains(g.Options.AllowedExtensions, ext)
}

func rejectUpload(err error) (*models.UploadResult, error) {
	metrics.Uploads.WithLabelValues("rejected").Inc()
	return nil, err
}

// checkUpload runs every precondition of an upload. Nothing is sent to the
// storage backend unless it passes.
func (g *Gateway) checkUpload(ctx context.Context, uid string, req *models.UploadRequest) error {
	if req.Body == nil || req.ContentLength == 0 {
		return apierr.NewBadRequestError(MsgNoFileContent, nil)
	}
	body := bufio.NewReader(req.Body)
	if _, err := body.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return apierr.NewBadRequestError(MsgNoFileContent, nil)
		}
		return apierr.From(err)
	}
	req.Body = body

	if req.User != uid {
		return apierr.NewPermissionError("", nil)
	}
	if !g.extensionAllowed(req.Extension) {
		return apierr.NewBadRequestError(MsgExtensionNotAllowed, nil)
	}

	conn := g.conn(ctx)
	var sensor models.Sensor
	found, err := lookup(conn, &sensor, "sensor_id = ?", req.SensorID)
	if err != nil {
		return err
	}
	if !found {
		return apierr.NewNotFoundError("", nil)
	}
	owned, err := g.isOwner(conn, uid, KindSensor, req.SensorID)
	if err != nil {
		return err
	}
	if !owned {
		return apierr.NewPermissionError("", nil)
	}

	if req.TagID != nil {
		var tag models.Tag
		found, err := lookup(conn, &tag, "id = ?", *req.TagID)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewNotFoundError(MsgNoTag, nil)
		}
	}
	return nil
}

func (g *Gateway) upload(ctx context.Context, uid string, req models.UploadRequest) (*models.UploadResult, error) {
	logger := common.GetCategoryLogger(common.LoggerNameGateway, common.LoggerCategoryUpload)

	req.Extension = normalizeExtension(req.Extension)
	logger.Info("Received upload",
		zap.String("uid", uid),
		zap.Int("sensor_id", req.SensorID),
		zap.String("path", req.Path),
		zap.String("extension", req.Extension),
		zap.Int64("content_length", req.ContentLength),
	)

	if err := g.checkUpload(ctx, uid, &req); err != nil {
		logger.Info("Upload rejected", zap.String("uid", uid), zap.Int("sensor_id", req.SensorID), zap.Error(err))
		return rejectUpload(err)
	}

	path := StoragePath(req.Path, time.Now(), req.SensorID, req.Extension)
	endpoint := g.Options.StorageBase + common.AppendSlash(uid) + path

	if req.ContentLength > 0 {
		metrics.UploadBytes.Add(float64(req.ContentLength))
	}
	stored, err := g.Storage.Put(ctx, storage.PutRequest{
		Endpoint:      endpoint,
		User:          req.User,
		Password:      req.Password,
		Body:          req.Body,
		ContentLength: req.ContentLength,
	})
	if err != nil {
		metrics.Uploads.WithLabelValues("upstream_error").Inc()
		var apiErr *apierr.APIError
		if !errors.As(err, &apiErr) {
			err = apierr.NewUpstreamError("Storage backend failed", err)
		}
		return nil, err
	}
	if stored.ETag == "" {
		metrics.Uploads.WithLabelValues("upstream_error").Inc()
		return nil, apierr.NewUpstreamError("Storage backend returned no ETag", nil)
	}

	result := &models.UploadResult{StatusCode: stored.StatusCode}
	err = g.inTx(ctx, func(tx *gorm.DB) error {
		found, err := lookup(tx, &result.File, "etag = ?", stored.ETag)
		if err != nil {
			return err
		}
		if !found {
			return apierr.NewUpstreamError("Stored file is not indexed by the storage backend", nil)
		}

		result.SensorFile = models.SensorFile{
			FileID:     result.File.FileID,
			SensorID:   req.SensorID,
			UploadDate: time.Now().UTC(),
		}
		if err := tx.Create(&result.SensorFile).Error; err != nil {
			return err
		}

		if req.TagID != nil {
			tag, err := attachTag(tx, result.File.FileID, *req.TagID)
			if err != nil {
				return err
			}
			result.Tag = tag
		}
		return nil
	})
	if err != nil {
		metrics.Uploads.WithLabelValues("link_error").Inc()
		logger.Error("Upload stored but not linked", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}

	metrics.Uploads.WithLabelValues("stored").Inc()
	logger.Info("Stored upload",
		zap.Int("file_id", result.File.FileID),
		zap.Int("sensor_id", req.SensorID),
		zap.String("path", path),
		zap.Int("status", stored.StatusCode),
	)
	return result, nil
}

type IUploadImpl struct {
	gateway *Gateway
}

func (u *IUploadImpl) Upload(ctx context.Context, uid string, req models.UploadRequest) (*models.UploadResult, error) {
	return u.gateway.upload(ctx, uid, req)
}

func (g *Gateway) GetIUpload() IUpload {
	return &IUploadImpl{gateway: g}
}
