package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/db"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway/mocks"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
	_ "liyu1981.xyz/iot-gateway-service/pkg/testing"
)

const bufSize = 1024 * 1024

type testEnv struct {
	gw     *gateway.Gateway
	tokens *auth.TokenManager
	conn   *grpc.ClientConn
}

func (e *testEnv) client(t *testing.T, uid string) *QueryClient {
	if uid == "" {
		return NewQueryClient(e.conn, "")
	}
	token, err := e.tokens.IssueAccess(uid)
	require.NoError(t, err)
	return NewQueryClient(e.conn, token)
}

func startTestServer(t *testing.T) *testEnv {
	listener := bufconn.Listen(bufSize)

	dbInstance, err := db.NewInstance(db.UseIsolatedMemorySqliteDialector(), true)
	require.NoError(t, err)
	seed(t, dbInstance)

	gw := (&gateway.Gateway{
		Db:      *dbInstance,
		Options: gateway.Options{StorageNamespace: "files/", MinMimetypeClass: 2},
	}).WithDefaultServices()

	tokens, err := auth.NewTokenManager("test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	queryServer := &QueryServer{Gateway: gw, Tokens: tokens}
	server := queryServer.NewServer()

	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{gw: gw, tokens: tokens, conn: conn}
}

func seed(t *testing.T, dbInstance *db.DB) {
	rows := []any{
		&[]models.User{{UID: "alice"}, {UID: "bob"}},
		&models.Datatype{DatatypeID: 1, DatatypeName: "temperature"},
		&[]models.Device{
			{DeviceID: 1, DeviceName: "Kitchen hub", Location: "kitchen", UID: "alice"},
			{DeviceID: 2, DeviceName: "Garage", Location: "garage", UID: "bob"},
		},
		&[]models.Sensor{
			{SensorID: 1, SensorName: "thermo", IsEnabled: true, DatatypeID: 1, DeviceID: 1},
			{SensorID: 2, SensorName: "garage temp", IsEnabled: true, DatatypeID: 1, DeviceID: 2},
		},
		&models.File{FileID: 10, Path: "files/data/a.csv", FileName: "a.csv", Mimetype: 5, Etag: "etag10"},
		&models.SensorFile{FileID: 10, SensorID: 1, UploadDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, r := range rows {
		require.NoError(t, dbInstance.Conn.Create(r).Error)
	}
}

func TestWhoAmI(t *testing.T) {
	common.SetTestLoggerNop()
	env := startTestServer(t)
	ctx := context.Background()

	uid, err := env.client(t, "alice").WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	_, err = env.client(t, "").WhoAmI(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, auth.MsgMissingAuthHeader, status.Convert(err).Message())

	refresh, err := env.tokens.IssueRefresh("alice")
	require.NoError(t, err)
	_, err = NewQueryClient(env.conn, refresh).WhoAmI(ctx)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, auth.MsgAccessOnly, status.Convert(err).Message())
}

func TestSearch(t *testing.T) {
	common.SetTestLoggerNop()
	env := startTestServer(t)
	ctx := context.Background()
	client := env.client(t, "alice")

	items, err := client.Search(ctx, "sensor", map[string]any{"device_name": "Kitchen"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	row := items[0].(map[string]any)
	assert.Equal(t, "thermo", row["sensor_name"])
	assert.Equal(t, "alice", row["uid"])
	assert.EqualValues(t, 1, row["device_id"])

	items, err = client.Search(ctx, "Device", nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = client.Search(ctx, "filedetail", map[string]any{"start_date": "2024-01-01T00:00:00", "sensor_id": 1})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.csv", items[0].(map[string]any)["file_name"])

	_, err = client.Search(ctx, "tag", nil)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, apierr.MsgNoItem, status.Convert(err).Message())

	_, err = client.Search(ctx, "metric", nil)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "datatype, device, filedetail, sensor, tag")

	_, err = client.Search(ctx, "filedetail", map[string]any{"end_date": "tomorrow"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Search(ctx, "device", map[string]any{"device_id": "not a number"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Search(ctx, "device", map[string]any{"device_name": 2})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client(t, "").Search(ctx, "device", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSearch_ServiceError(t *testing.T) {
	common.SetTestLoggerNop()
	env := startTestServer(t)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockTag := mocks.NewMockITag(ctrl)
	env.gw.Tag = mockTag
	mockTag.EXPECT().
		List(gomock.Any(), gomock.Eq(models.TagFilter{})).
		Return(nil, errors.New("just causing error")).
		Times(1)

	_, err := env.client(t, "alice").Search(context.Background(), "tag", nil)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{apierr.NewValidationError("bad", nil), codes.InvalidArgument},
		{apierr.NewBadRequestError("bad", nil), codes.InvalidArgument},
		{apierr.NewAuthError("who", nil), codes.Unauthenticated},
		{apierr.NewPermissionError("", nil), codes.PermissionDenied},
		{apierr.NewNotFoundError("", nil), codes.NotFound},
		{apierr.NewUpstreamError("down", nil), codes.Unavailable},
		{apierr.NewConflictError(errors.New("constraint")), codes.Internal},
		{errors.New("plain"), codes.Internal},
		{status.Error(codes.Canceled, "gone"), codes.Canceled},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, status.Code(toStatus(c.err)), c.err.Error())
	}
}
