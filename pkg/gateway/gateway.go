package gateway

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/db"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	"liyu1981.xyz/iot-gateway-service/pkg/storage"
)

type StorageBackend interface {
	Put(ctx context.Context, req storage.PutRequest) (*storage.PutResult, error)
}

type IDatatype interface {
	List(ctx context.Context, filter models.DatatypeFilter) ([]models.Datatype, error)
	Create(ctx context.Context, uid string, input models.DatatypeCreate) (*models.Datatype, error)
	Update(ctx context.Context, uid string, input models.DatatypeUpdate) (*models.Datatype, error)
	Delete(ctx context.Context, uid string, datatypeID int) (*models.Datatype, error)
}

type IDevice interface {
	List(ctx context.Context, filter models.DeviceFilter) ([]models.Device, error)
	Create(ctx context.Context, uid string, input models.DeviceCreate) (*models.Device, error)
	Update(ctx context.Context, uid string, input models.DeviceUpdate) (*models.Device, error)
	Delete(ctx context.Context, uid string, deviceID int) (*models.Device, error)
}

type ISensor interface {
	List(ctx context.Context, filter models.SensorFilter) ([]models.SensorRow, error)
	Create(ctx context.Context, uid string, input models.SensorCreate) (*models.Sensor, error)
	Update(ctx context.Context, uid string, input models.SensorUpdate) (*models.Sensor, error)
	Delete(ctx context.Context, uid string, sensorID int) (*models.Sensor, error)
}

type ITag interface {
	List(ctx context.Context, filter models.TagFilter) ([]models.Tag, error)
	Create(ctx context.Context, uid string, input models.TagCreate) (*models.Tag, error)
	Update(ctx context.Context, uid string, input models.TagUpdate) (*models.Tag, error)
	Delete(ctx context.Context, uid string, tagID int) (*models.Tag, error)
}

type IFileDetail interface {
	List(ctx context.Context, filter models.FileDetailFilter) ([]models.FileDetailRow, error)
	Update(ctx context.Context, uid string, input models.FileDetailUpdate) (*models.File, error)
	RemoveTag(ctx context.Context, uid string, input models.FileTagRemoval) (*models.File, *models.Tag, error)
}

type IUpload interface {
	Upload(ctx context.Context, uid string, req models.UploadRequest) (*models.UploadResult, error)
}

type IOwnership interface {
	IsOwner(ctx context.Context, uid string, kind EntityKind, id int) (bool, error)
}

type Options struct {
	AllowedExtensions []string
	// StorageBase is the WebDAV files root, the owner and path are appended.
	StorageBase      string
	StorageNamespace string
	MinMimetypeClass int
}

// Gateway ties the services to one database and one storage backend.
type Gateway struct {
	Db      db.DB
	Storage StorageBackend
	Options Options

	Datatype   IDatatype
	Device     IDevice
	Sensor     ISensor
	Tag        ITag
	FileDetail IFileDetail
	Upload     IUpload
	Ownership  IOwnership
}

type ServiceOpts struct {
	Datatype   IDatatype
	Device     IDevice
	Sensor     ISensor
	Tag        ITag
	FileDetail IFileDetail
	Upload     IUpload
	Ownership  IOwnership
}

func (g *Gateway) WithServices(opts ServiceOpts) *Gateway {
	if opts.Datatype != nil {
		g.Datatype = opts.Datatype
	}
	if opts.Device != nil {
		g.Device = opts.Device
	}
	if opts.Sensor != nil {
		g.Sensor = opts.Sensor
	}
	if opts.Tag != nil {
		g.Tag = opts.Tag
	}
	if opts.FileDetail != nil {
		g.FileDetail = opts.FileDetail
	}
	if opts.Upload != nil {
		g.Upload = opts.Upload
	}
	if opts.Ownership != nil {
		g.Ownership = opts.Ownership
	}
	return g
}

// WithDefaultServices wires every service to its database backed
// implementation.
func (g *Gateway) WithDefaultServices() *Gateway {
	return g.WithServices(ServiceOpts{
		Datatype:   g.GetIDatatype(),
		Device:     g.GetIDevice(),
		Sensor:     g.GetISensor(),
		Tag:        g.GetITag(),
		FileDetail: g.GetIFileDetail(),
		Upload:     g.GetIUpload(),
		Ownership:  g.GetIOwnership(),
	})
}

func (g *Gateway) conn(ctx context.Context) *gorm.DB {
	return g.Db.Conn.WithContext(ctx)
}

// inTx runs fn in a single transaction. An *apierr.APIError returned by fn
// rolls back and passes through. Any other failure is a storage constraint
// failure and reaches the client with the engine's own message.
func (g *Gateway) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := g.conn(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	var apiErr *apierr.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return apierr.NewConflictError(err)
}

// lookup loads one row by primary key. A missing row is reported as
// (false, nil) and never as gorm.ErrRecordNotFound.
func lookup[T any](tx *gorm.DB, dest *T, query string, id any) (bool, error) {
	result := tx.Where(query, id).Limit(1).Find(dest)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
