package http

import (
	"fmt"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/gin-gonic/gin"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

// Datatype

type datatypeCreateRequest struct {
	DatatypeName string `zog:"datatype_name"`
	IsLarge      *bool  `zog:"is_large"`
}

var datatypeCreateSchema = z.Struct(z.Shape{
	"DatatypeName": models.Text().Min(1).Required(),
	"IsLarge":      z.Ptr(z.Bool()).NotNil(),
})

var datatypeUpdateSchema = z.Struct(z.Shape{
	"DatatypeID":   z.Int().Required(),
	"DatatypeName": z.Ptr(models.Text().Min(1)),
	"IsLarge":      z.Ptr(z.Bool()),
})

type datatypeRef struct {
	DatatypeID int `zog:"datatype_id"`
}

var datatypeRefSchema = z.Struct(z.Shape{
	"DatatypeID": z.Int().Required(),
})

func (rs *RestfulServer) GetDatatypes(c *gin.Context) {
	var filter models.DatatypeFilter
	if _, ok := bind(c, models.DatatypeFilterSchema, &filter); !ok {
		return
	}
	rows, err := rs.Gateway.Datatype.List(c.Request.Context(), filter)
	respondList(c, rows, err)
}

func (rs *RestfulServer) PostDatatype(c *gin.Context) {
	var req datatypeCreateRequest
	if _, ok := bind(c, datatypeCreateSchema, &req); !ok {
		return
	}
	datatype, err := rs.Gateway.Datatype.Create(c.Request.Context(), identity(c), models.DatatypeCreate{
		DatatypeName: req.DatatypeName,
		IsLarge:      *req.IsLarge,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusCreated, fmt.Sprintf(MsgAdded, datatype))
}

func (rs *RestfulServer) PatchDatatype(c *gin.Context) {
	var input models.DatatypeUpdate
	if _, ok := bind(c, datatypeUpdateSchema, &input); !ok {
		return
	}
	datatype, err := rs.Gateway.Datatype.Update(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgUpdated, datatype))
}

func (rs *RestfulServer) DeleteDatatype(c *gin.Context) {
	var ref datatypeRef
	if _, ok := bind(c, datatypeRefSchema, &ref); !ok {
		return
	}
	datatype, err := rs.Gateway.Datatype.Delete(c.Request.Context(), identity(c), ref.DatatypeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgDeleted, datatype))
}

// Device

var deviceCreateSchema = z.Struct(z.Shape{
	"DeviceName": models.Text().Min(1).Required(),
	"Location":   models.Text().Required(),
})

var deviceUpdateSchema = z.Struct(z.Shape{
	"DeviceID":   z.Int().Required(),
	"DeviceName": z.Ptr(models.Text().Min(1)),
	"Location":   z.Ptr(models.Text()),
})

type deviceRef struct {
	DeviceID int `zog:"device_id"`
}

var deviceRefSchema = z.Struct(z.Shape{
	"DeviceID": z.Int().Required(),
})

func (rs *RestfulServer) GetDevices(c *gin.Context) {
	var filter models.DeviceFilter
	if _, ok := bind(c, models.DeviceFilterSchema, &filter); !ok {
		return
	}
	rows, err := rs.Gateway.Device.List(c.Request.Context(), filter)
	respondList(c, rows, err)
}

func (rs *RestfulServer) PostDevice(c *gin.Context) {
	var input models.DeviceCreate
	if _, ok := bind(c, deviceCreateSchema, &input); !ok {
		return
	}
	device, err := rs.Gateway.Device.Create(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusCreated, fmt.Sprintf(MsgAdded, device))
}

func (rs *RestfulServer) PatchDevice(c *gin.Context) {
	var input models.DeviceUpdate
	if _, ok := bind(c, deviceUpdateSchema, &input); !ok {
		return
	}
	device, err := rs.Gateway.Device.Update(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgUpdated, device))
}

func (rs *RestfulServer) DeleteDevice(c *gin.Context) {
	var ref deviceRef
	if _, ok := bind(c, deviceRefSchema, &ref); !ok {
		return
	}
	device, err := rs.Gateway.Device.Delete(c.Request.Context(), identity(c), ref.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgDeleted, device))
}

// Sensor

var sensorCreateSchema = z.Struct(z.Shape{
	"SensorName": models.Text().Min(1).Required(),
	"Topic":      z.Ptr(models.Text()),
	"IsEnabled":  z.Ptr(z.Bool()),
	"DatatypeID": z.Int().Required(),
	"DeviceID":   z.Int().Required(),
})

var sensorUpdateSchema = z.Struct(z.Shape{
	"SensorID":   z.Int().Required(),
	"SensorName": z.Ptr(models.Text().Min(1)),
	"Topic":      z.Ptr(models.Text()),
	"IsEnabled":  z.Ptr(z.Bool()),
	"DatatypeID": z.Ptr(z.Int()),
	"DeviceID":   z.Ptr(z.Int()),
})

type sensorRef struct {
	SensorID int `zog:"sensor_id"`
}

var sensorRefSchema = z.Struct(z.Shape{
	"SensorID": z.Int().Required(),
})

func (rs *RestfulServer) GetSensors(c *gin.Context) {
	var filter models.SensorFilter
	if _, ok := bind(c, models.SensorFilterSchema, &filter); !ok {
		return
	}
	rows, err := rs.Gateway.Sensor.List(c.Request.Context(), filter)
	respondList(c, rows, err)
}

func (rs *RestfulServer) PostSensor(c *gin.Context) {
	var input models.SensorCreate
	if _, ok := bind(c, sensorCreateSchema, &input); !ok {
		return
	}
	sensor, err := rs.Gateway.Sensor.Create(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusCreated, fmt.Sprintf(MsgAdded, sensor))
}

func (rs *RestfulServer) PatchSensor(c *gin.Context) {
	var input models.SensorUpdate
	if _, ok := bind(c, sensorUpdateSchema, &input); !ok {
		return
	}
	sensor, err := rs.Gateway.Sensor.Update(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgUpdated, sensor))
}

func (rs *RestfulServer) DeleteSensor(c *gin.Context) {
	var ref sensorRef
	if _, ok := bind(c, sensorRefSchema, &ref); !ok {
		return
	}
	sensor, err := rs.Gateway.Sensor.Delete(c.Request.Context(), identity(c), ref.SensorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgDeleted, sensor))
}

// File detail

var fileDetailUpdateSchema = z.Struct(z.Shape{
	"FileID":   z.Int().Required(),
	"TagID":    z.Ptr(z.Int()),
	"SensorID": z.Ptr(z.Int()),
})

var fileTagRemovalSchema = z.Struct(z.Shape{
	"FileID": z.Int().Required(),
	"TagID":  z.Int().Required(),
})

func (rs *RestfulServer) GetFileDetails(c *gin.Context) {
	var filter models.FileDetailFilter
	data, ok := bind(c, models.FileDetailFilterSchema, &filter)
	if !ok {
		return
	}

	if err := models.ParseFileDetailDates(data, &filter); err != nil {
		respondError(c, apierr.NewValidationError(err.Error(), err))
		return
	}

	rows, err := rs.Gateway.FileDetail.List(c.Request.Context(), filter)
	respondList(c, rows, err)
}

func (rs *RestfulServer) PutFileDetail(c *gin.Context) {
	var input models.FileDetailUpdate
	if _, ok := bind(c, fileDetailUpdateSchema, &input); !ok {
		return
	}
	file, err := rs.Gateway.FileDetail.Update(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgUpdated, file))
}

func (rs *RestfulServer) DeleteFileDetail(c *gin.Context) {
	var input models.FileTagRemoval
	if _, ok := bind(c, fileTagRemovalSchema, &input); !ok {
		return
	}
	file, tag, err := rs.Gateway.FileDetail.RemoveTag(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf("%s removed from %s", tag, file))
}

// Tag

var tagCreateSchema = z.Struct(z.Shape{
	"TagName": models.Text().Min(1).Required(),
})

var tagUpdateSchema = z.Struct(z.Shape{
	"TagID":   z.Int().Required(),
	"TagName": z.Ptr(models.Text().Min(1)),
})

type tagRef struct {
	TagID int `zog:"tag_id"`
}

var tagRefSchema = z.Struct(z.Shape{
	"TagID": z.Int().Required(),
})

func (rs *RestfulServer) GetTags(c *gin.Context) {
	var filter models.TagFilter
	if _, ok := bind(c, models.TagFilterSchema, &filter); !ok {
		return
	}
	rows, err := rs.Gateway.Tag.List(c.Request.Context(), filter)
	respondList(c, rows, err)
}

func (rs *RestfulServer) PostTag(c *gin.Context) {
	var input models.TagCreate
	if _, ok := bind(c, tagCreateSchema, &input); !ok {
		return
	}
	tag, err := rs.Gateway.Tag.Create(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusCreated, fmt.Sprintf(MsgAdded, tag))
}

func (rs *RestfulServer) PatchTag(c *gin.Context) {
	var input models.TagUpdate
	if _, ok := bind(c, tagUpdateSchema, &input); !ok {
		return
	}
	tag, err := rs.Gateway.Tag.Update(c.Request.Context(), identity(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgUpdated, tag))
}

func (rs *RestfulServer) DeleteTag(c *gin.Context) {
	var ref tagRef
	if _, ok := bind(c, tagRefSchema, &ref); !ok {
		return
	}
	tag, err := rs.Gateway.Tag.Delete(c.Request.Context(), identity(c), ref.TagID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMsg(c, http.StatusOK, fmt.Sprintf(MsgDeleted, tag))
}
