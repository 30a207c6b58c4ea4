package models

import (
	"fmt"
	"time"
)

// Tables prefixed with oc_ belong to Nextcloud; the gateway reads them and
// only writes tag mappings. AutoMigrate creates them for local sqlite setups.

// Associations are declared on the parent side only. The child tables carry
// the foreign key constraints.

type User struct {
	UID string `gorm:"column:uid;primaryKey;size:64" json:"uid"`

	Devices []Device `gorm:"foreignKey:UID;references:UID" json:"-"`
}

func (User) TableName() string { return "oc_users" }

type Datatype struct {
	DatatypeID   int    `gorm:"column:datatype_id;primaryKey" json:"datatype_id"`
	DatatypeName string `gorm:"column:name;not null" json:"datatype_name"`
	IsLarge      bool   `gorm:"column:is_large;not null" json:"is_large"`

	Sensors []Sensor `gorm:"foreignKey:DatatypeID;references:DatatypeID" json:"-"`
}

func (Datatype) TableName() string { return "datatypes" }

func (d Datatype) String() string {
	return fmt.Sprintf("Datatype %d (%s)", d.DatatypeID, d.DatatypeName)
}

type Device struct {
	DeviceID   int    `gorm:"column:device_id;primaryKey" json:"device_id"`
	DeviceName string `gorm:"column:name;not null" json:"device_name"`
	Location   string `gorm:"column:location" json:"location"`
	UID        string `gorm:"column:uid;size:64;not null;index" json:"uid"`

	Sensors []Sensor `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
}

func (Device) TableName() string { return "devices" }

func (d Device) String() string {
	return fmt.Sprintf("Device %d (%s)", d.DeviceID, d.DeviceName)
}

type Sensor struct {
	SensorID   int    `gorm:"column:sensor_id;primaryKey" json:"sensor_id"`
	SensorName string `gorm:"column:name;not null" json:"sensor_name"`
	Topic      string `gorm:"column:topic" json:"topic"`
	IsEnabled  bool   `gorm:"column:is_enabled;not null" json:"is_enabled"`
	DatatypeID int    `gorm:"column:datatype_id;not null;index" json:"datatype_id"`
	DeviceID   int    `gorm:"column:device_id;not null;index" json:"device_id"`

	Files []SensorFile `gorm:"foreignKey:SensorID;references:SensorID" json:"-"`
}

func (Sensor) TableName() string { return "sensors" }

func (s Sensor) String() string {
	return fmt.Sprintf("Sensor %d (%s)", s.SensorID, s.SensorName)
}

// File is a row of the Nextcloud file cache. Mimetype is the numeric id of
// the mimetype class; ids at or below the configured threshold are
// directories and other system entries.
type File struct {
	FileID   int    `gorm:"column:fileid;primaryKey" json:"file_id"`
	Path     string `gorm:"column:path" json:"path"`
	FileName string `gorm:"column:name" json:"file_name"`
	Mimetype int    `gorm:"column:mimetype" json:"mimetype"`
	Etag     string `gorm:"column:etag;index" json:"etag"`

	SensorFile *SensorFile  `gorm:"foreignKey:FileID;references:FileID" json:"-"`
	Mappings   []TagMapping `gorm:"foreignKey:ObjectID;references:FileID" json:"-"`
}

func (File) TableName() string { return "oc_filecache" }

func (f File) String() string {
	return fmt.Sprintf("File %d (%s)", f.FileID, f.FileName)
}

type Tag struct {
	TagID   int    `gorm:"column:id;primaryKey" json:"tag_id"`
	TagName string `gorm:"column:name;not null" json:"tag_name"`

	Mappings []TagMapping `gorm:"foreignKey:SystemTagID;references:TagID" json:"-"`
}

func (Tag) TableName() string { return "oc_systemtag" }

func (t Tag) String() string {
	return fmt.Sprintf("Tag %d (%s)", t.TagID, t.TagName)
}

// SensorFile links one uploaded file to the sensor that produced it.
type SensorFile struct {
	FileID     int       `gorm:"column:fileid;primaryKey;autoIncrement:false" json:"file_id"`
	UploadDate time.Time `gorm:"column:upload_date;index" json:"upload_date"`
	SensorID   int       `gorm:"column:sensor_id;not null;index" json:"sensor_id"`
}

func (SensorFile) TableName() string { return "sensor_files" }

const ObjectTypeFiles = "files"

// TagMapping is Nextcloud's system tag assignment table.
type TagMapping struct {
	ObjectID    int    `gorm:"column:objectid;primaryKey;autoIncrement:false"`
	ObjectType  string `gorm:"column:objecttype;primaryKey;size:64"`
	SystemTagID int    `gorm:"column:systemtagid;primaryKey;autoIncrement:false"`
}

func (TagMapping) TableName() string { return "oc_systemtag_object_mapping" }

// SensorRow is a sensor as returned by the listing endpoint, flattened with
// the attributes of its device and datatype.
type SensorRow struct {
	SensorID     int    `json:"sensor_id"`
	SensorName   string `json:"sensor_name"`
	Topic        string `json:"topic"`
	IsEnabled    bool   `json:"is_enabled"`
	DatatypeID   int    `json:"datatype_id"`
	DeviceID     int    `json:"device_id"`
	DeviceName   string `json:"device_name"`
	UID          string `json:"uid"`
	Location     string `json:"location"`
	DatatypeName string `json:"datatype_name"`
	IsLarge      bool   `json:"is_large"`
}

type FileDetailRow struct {
	FileID     int       `gorm:"column:file_id" json:"file_id"`
	FileName   string    `gorm:"column:file_name" json:"file_name"`
	Path       string    `gorm:"column:path" json:"path"`
	SensorID   int       `gorm:"column:sensor_id" json:"sensor_id"`
	SensorName string    `gorm:"column:sensor_name" json:"sensor_name"`
	UploadDate time.Time `gorm:"column:upload_date" json:"upload_date"`
}

// AllTables lists every model in dependency order for migration.
func AllTables() []any {
	return []any{
		&User{}, &Datatype{}, &Device{}, &Sensor{},
		&File{}, &Tag{}, &SensorFile{}, &TagMapping{},
	}
}
