package models

import (
	"io"
	"time"
)

// Filter and mutation payloads. Pointer fields are optional: nil means the
// caller did not send the field, which is different from a zero value.

type DatatypeFilter struct {
	DatatypeID   *int    `json:"datatype_id,omitempty" zog:"datatype_id"`
	DatatypeName *string `json:"datatype_name,omitempty" zog:"datatype_name"`
	IsLarge      *bool   `json:"is_large,omitempty" zog:"is_large"`
}

type DeviceFilter struct {
	DeviceID   *int    `json:"device_id,omitempty" zog:"device_id"`
	DeviceName *string `json:"device_name,omitempty" zog:"device_name"`
	Location   *string `json:"location,omitempty" zog:"location"`
	UID        *string `json:"uid,omitempty" zog:"uid"`
}

type SensorFilter struct {
	SensorID     *int    `json:"sensor_id,omitempty" zog:"sensor_id"`
	SensorName   *string `json:"sensor_name,omitempty" zog:"sensor_name"`
	Topic        *string `json:"topic,omitempty" zog:"topic"`
	IsEnabled    *bool   `json:"is_enabled,omitempty" zog:"is_enabled"`
	DatatypeID   *int    `json:"datatype_id,omitempty" zog:"datatype_id"`
	DeviceID     *int    `json:"device_id,omitempty" zog:"device_id"`
	Location     *string `json:"location,omitempty" zog:"location"`
	DatatypeName *string `json:"datatype_name,omitempty" zog:"datatype_name"`
	IsLarge      *bool   `json:"is_large,omitempty" zog:"is_large"`
	UID          *string `json:"uid,omitempty" zog:"uid"`
	DeviceName   *string `json:"device_name,omitempty" zog:"device_name"`
}

type TagFilter struct {
	TagID   *int    `json:"tag_id,omitempty" zog:"tag_id"`
	TagName *string `json:"tag_name,omitempty" zog:"tag_name"`
}

// FileDetailFilter bounds are exclusive on both ends.
type FileDetailFilter struct {
	FileID     *int       `json:"file_id,omitempty" zog:"file_id"`
	FileName   *string    `json:"file_name,omitempty" zog:"file_name"`
	TagID      *int       `json:"tag_id,omitempty" zog:"tag_id"`
	TagName    *string    `json:"tag_name,omitempty" zog:"tag_name"`
	DatatypeID *int       `json:"datatype_id,omitempty" zog:"datatype_id"`
	DeviceID   *int       `json:"device_id,omitempty" zog:"device_id"`
	SensorID   *int       `json:"sensor_id,omitempty" zog:"sensor_id"`
	Topic      *string    `json:"topic,omitempty" zog:"topic"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// DateLayout is the wire format of start_date and end_date.
const DateLayout = "2006-01-02T15:04:05"

type DatatypeCreate struct {
	DatatypeName string `json:"datatype_name" zog:"datatype_name"`
	IsLarge      bool   `json:"is_large" zog:"is_large"`
}

type DatatypeUpdate struct {
	DatatypeID   int     `json:"datatype_id" zog:"datatype_id"`
	DatatypeName *string `json:"datatype_name,omitempty" zog:"datatype_name"`
	IsLarge      *bool   `json:"is_large,omitempty" zog:"is_large"`
}

// Changes returns the column updates carried by u, keyed by column name.
func (u DatatypeUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.DatatypeName != nil {
		changes["name"] = *u.DatatypeName
	}
	if u.IsLarge != nil {
		changes["is_large"] = *u.IsLarge
	}
	return changes
}

type DeviceCreate struct {
	DeviceName string `json:"device_name" zog:"device_name"`
	Location   string `json:"location" zog:"location"`
}

type DeviceUpdate struct {
	DeviceID   int     `json:"device_id" zog:"device_id"`
	DeviceName *string `json:"device_name,omitempty" zog:"device_name"`
	Location   *string `json:"location,omitempty" zog:"location"`
}

func (u DeviceUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.DeviceName != nil {
		changes["name"] = *u.DeviceName
	}
	if u.Location != nil {
		changes["location"] = *u.Location
	}
	return changes
}

type SensorCreate struct {
	SensorName string  `json:"sensor_name" zog:"sensor_name"`
	Topic      *string `json:"topic,omitempty" zog:"topic"`
	IsEnabled  *bool   `json:"is_enabled,omitempty" zog:"is_enabled"`
	DatatypeID int     `json:"datatype_id" zog:"datatype_id"`
	DeviceID   int     `json:"device_id" zog:"device_id"`
}

type SensorUpdate struct {
	SensorID   int     `json:"sensor_id" zog:"sensor_id"`
	SensorName *string `json:"sensor_name,omitempty" zog:"sensor_name"`
	Topic      *string `json:"topic,omitempty" zog:"topic"`
	IsEnabled  *bool   `json:"is_enabled,omitempty" zog:"is_enabled"`
	DatatypeID *int    `json:"datatype_id,omitempty" zog:"datatype_id"`
	DeviceID   *int    `json:"device_id,omitempty" zog:"device_id"`
}

func (u SensorUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.SensorName != nil {
		changes["name"] = *u.SensorName
	}
	if u.Topic != nil {
		changes["topic"] = *u.Topic
	}
	if u.IsEnabled != nil {
		changes["is_enabled"] = *u.IsEnabled
	}
	if u.DatatypeID != nil {
		changes["datatype_id"] = *u.DatatypeID
	}
	if u.DeviceID != nil {
		changes["device_id"] = *u.DeviceID
	}
	return changes
}

type TagCreate struct {
	TagName string `json:"tag_name" zog:"tag_name"`
}

type TagUpdate struct {
	TagID   int     `json:"tag_id" zog:"tag_id"`
	TagName *string `json:"tag_name,omitempty" zog:"tag_name"`
}

func (u TagUpdate) Changes() map[string]any {
	changes := map[string]any{}
	if u.TagName != nil {
		changes["name"] = *u.TagName
	}
	return changes
}

// FileDetailUpdate tags a file and/or moves it to another sensor.
type FileDetailUpdate struct {
	FileID   int  `json:"file_id" zog:"file_id"`
	TagID    *int `json:"tag_id,omitempty" zog:"tag_id"`
	SensorID *int `json:"sensor_id,omitempty" zog:"sensor_id"`
}

type FileTagRemoval struct {
	FileID int `json:"file_id" zog:"file_id"`
	TagID  int `json:"tag_id" zog:"tag_id"`
}

// UploadRequest is assembled from the upload request headers. Body is
// consumed exactly once, by the storage backend.
type UploadRequest struct {
	SensorID  int    `zog:"sensor_id"`
	Path      string `zog:"path"`
	Extension string `zog:"extension"`
	User      string `zog:"user"`
	Password  string `zog:"password"`
	TagID     *int   `zog:"tag_id"`

	Body          io.Reader
	ContentLength int64
}

type UploadResult struct {
	File       File
	SensorFile SensorFile
	Tag        *Tag
	StatusCode int
}
