package gateway

import (
	"bufio"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"liyu1981.xyz/iot-gateway-service/pkg/db"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway/mocks"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

const testStorageBase = "https://cloud.example.com/remote.php/dav/files/"

func testOptions() Options {
	return Options{
		AllowedExtensions: []string{"csv", "txt", "jpg", "png"},
		StorageBase:       testStorageBase,
		StorageNamespace:  "files/",
		MinMimetypeClass:  2,
	}
}

// GetMockGatewayWithIsolatedSqlite returns a gateway on its own in-memory
// database, seeded with the fixture below. Storage is always the mock.
func GetMockGatewayWithIsolatedSqlite(t *testing.T) (*gomock.Controller, *Gateway, *mocks.MockStorageBackend) {
	ctrl := gomock.NewController(t)

	mockStorage := mocks.NewMockStorageBackend(ctrl)
	dbInstance, err := db.NewInstance(db.UseIsolatedMemorySqliteDialector(), true)
	require.NoError(t, err)

	gw := (&Gateway{Db: *dbInstance, Storage: mockStorage, Options: testOptions()}).WithDefaultServices()
	seedFixture(t, gw)

	return ctrl, gw, mockStorage
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d.UTC()
}

// Fixture:
//
//	alice owns device 1 (Kitchen hub, kitchen) with sensors 1 and 4
//	alice owns device 2 (Garden node, garden) with sensor 2
//	bob   owns device 3 (Garage, garage)      with sensor 3
//
//	file 10 sensor 1, tags 1 and 3      file 13 sensor 1, directory mimetype
//	file 11 sensor 2, tag 1             file 14 sensor 1, outside namespace
//	file 12 sensor 3, tag 2             file 15 no sensor link
func seedFixture(t *testing.T, gw *Gateway) {
	conn := gw.Db.Conn
	rows := []any{
		&[]models.User{{UID: "alice"}, {UID: "bob"}},
		&[]models.Datatype{
			{DatatypeID: 1, DatatypeName: "temperature", IsLarge: false},
			{DatatypeID: 2, DatatypeName: "image", IsLarge: true},
		},
		&[]models.Device{
			{DeviceID: 1, DeviceName: "Kitchen hub", Location: "kitchen", UID: "alice"},
			{DeviceID: 2, DeviceName: "Garden node", Location: "garden", UID: "alice"},
			{DeviceID: 3, DeviceName: "Garage", Location: "garage", UID: "bob"},
		},
		&[]models.Sensor{
			{SensorID: 1, SensorName: "thermo", Topic: "home/kitchen/temp", IsEnabled: true, DatatypeID: 1, DeviceID: 1},
			{SensorID: 2, SensorName: "camera", Topic: "home/garden/cam", IsEnabled: true, DatatypeID: 2, DeviceID: 2},
			{SensorID: 3, SensorName: "bob cam", Topic: "garage/cam", IsEnabled: true, DatatypeID: 2, DeviceID: 3},
			{SensorID: 4, SensorName: "spare", Topic: "home/kitchen/spare", IsEnabled: false, DatatypeID: 1, DeviceID: 1},
		},
		&[]models.File{
			{FileID: 10, Path: "files/data/readings.csv", FileName: "readings.csv", Mimetype: 5, Etag: "etag10"},
			{FileID: 11, Path: "files/data/garden.jpg", FileName: "garden.jpg", Mimetype: 6, Etag: "etag11"},
			{FileID: 12, Path: "files/bob/garage.png", FileName: "garage.png", Mimetype: 6, Etag: "etag12"},
			{FileID: 13, Path: "files/data", FileName: "data", Mimetype: 2, Etag: "etag13"},
			{FileID: 14, Path: "appdata/cache.csv", FileName: "cache.csv", Mimetype: 5, Etag: "etag14"},
			{FileID: 15, Path: "files/data/orphan.csv", FileName: "orphan.csv", Mimetype: 5, Etag: "etag15"},
		},
		&[]models.Tag{
			{TagID: 1, TagName: "Outdoor"},
			{TagID: 2, TagName: "outdoor-raw"},
			{TagID: 3, TagName: "Calibration"},
		},
		&[]models.SensorFile{
			{FileID: 10, SensorID: 1, UploadDate: day("2024-01-10")},
			{FileID: 11, SensorID: 2, UploadDate: day("2024-02-10")},
			{FileID: 12, SensorID: 3, UploadDate: day("2024-03-10")},
			{FileID: 13, SensorID: 1, UploadDate: day("2024-01-05")},
			{FileID: 14, SensorID: 1, UploadDate: day("2024-01-06")},
		},
		&[]models.TagMapping{
			{ObjectID: 10, ObjectType: models.ObjectTypeFiles, SystemTagID: 1},
			{ObjectID: 10, ObjectType: models.ObjectTypeFiles, SystemTagID: 3},
			{ObjectID: 11, ObjectType: models.ObjectTypeFiles, SystemTagID: 1},
			{ObjectID: 12, ObjectType: models.ObjectTypeFiles, SystemTagID: 2},
		},
	}
	for _, r := range rows {
		require.NoError(t, conn.Create(r).Error)
	}
}

func ptr[T any](v T) *T {
	return &v
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

// findLog returns the first captured entry with the given message.
func findLog(logs []any, msg string) map[string]any {
	for _, l := range logs {
		entry, ok := l.(map[string]any)
		if ok && entry["msg"] == msg {
			return entry
		}
	}
	return nil
}
