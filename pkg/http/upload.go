package http

import (
	"errors"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

var uploadHeaders = []string{"sensor_id", "path", "extension", "user", "password", "tag_id"}

var uploadSchema = z.Struct(z.Shape{
	"SensorID":  z.Int().Required(),
	"Path":      models.Text().Required(),
	"Extension": models.Text().Required(),
	"User":      models.Text().Required(),
	"Password":  models.Text().Required(),
	"TagID":     z.Ptr(z.Int()),
})

// PutFile streams the request body to the caller's storage space and links
// the stored file to a sensor. Upload parameters travel in headers.
func (rs *RestfulServer) PutFile(c *gin.Context) {
	data := map[string]any{}
	for _, key := range uploadHeaders {
		if v := c.GetHeader(key); v != "" {
			data[key] = v
		}
	}

	var req models.UploadRequest
	if issues := uploadSchema.Parse(data, &req); issues != nil {
		respondError(c, apierr.NewValidationError(common.IssuesMessage(issues), nil))
		return
	}
	req.Body = c.Request.Body
	req.ContentLength = c.Request.ContentLength

	result, err := rs.Gateway.Upload.Upload(c.Request.Context(), identity(c), req)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			err = apierr.NewPayloadTooLargeError(tooLargeMessage(maxErr.Limit), err)
		}
		respondError(c, err)
		return
	}

	status := result.StatusCode
	if status < http.StatusOK {
		status = http.StatusCreated
	}
	common.GetLoggerWith(common.LoggerNameRestfulServer).Info("Stored upload",
		zap.String("uid", identity(c)),
		zap.Int("file_id", result.File.FileID),
		zap.Int("sensor_id", result.SensorFile.SensorID),
	)
	respondMsg(c, status, gateway.MsgUploaded)
}
