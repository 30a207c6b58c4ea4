package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	z "github.com/Oudwins/zog"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"liyu1981.xyz/iot-gateway-service/pkg/apierr"
	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

// searchFunc runs one listing with the raw filter fields of a request.
type searchFunc func(ctx context.Context, gw *gateway.Gateway, filters map[string]any) (any, int, error)

func search[F any, R any](
	schema *z.StructSchema,
	list func(gw *gateway.Gateway) func(context.Context, F) ([]R, error),
	extra func(map[string]any, *F) error,
) searchFunc {
	return func(ctx context.Context, gw *gateway.Gateway, filters map[string]any) (any, int, error) {
		var filter F
		if issues := schema.Parse(filters, &filter); issues != nil {
			return nil, 0, apierr.NewValidationError(common.IssuesMessage(issues), nil)
		}
		if extra != nil {
			if err := extra(filters, &filter); err != nil {
				return nil, 0, apierr.NewValidationError(err.Error(), err)
			}
		}
		rows, err := list(gw)(ctx, filter)
		if err != nil {
			return nil, 0, err
		}
		return rows, len(rows), nil
	}
}

var searches = map[string]searchFunc{
	"datatype": search(models.DatatypeFilterSchema,
		func(gw *gateway.Gateway) func(context.Context, models.DatatypeFilter) ([]models.Datatype, error) {
			return gw.Datatype.List
		}, nil),
	"device": search(models.DeviceFilterSchema,
		func(gw *gateway.Gateway) func(context.Context, models.DeviceFilter) ([]models.Device, error) {
			return gw.Device.List
		}, nil),
	"sensor": search(models.SensorFilterSchema,
		func(gw *gateway.Gateway) func(context.Context, models.SensorFilter) ([]models.SensorRow, error) {
			return gw.Sensor.List
		}, nil),
	"filedetail": search(models.FileDetailFilterSchema,
		func(gw *gateway.Gateway) func(context.Context, models.FileDetailFilter) ([]models.FileDetailRow, error) {
			return gw.FileDetail.List
		}, models.ParseFileDetailDates),
	"tag": search(models.TagFilterSchema,
		func(gw *gateway.Gateway) func(context.Context, models.TagFilter) ([]models.Tag, error) {
			return gw.Tag.List
		}, nil),
}

// Resources lists the names Search accepts.
func Resources() []string {
	names := make([]string, 0, len(searches))
	for name := range searches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// toList turns rows into a protobuf list by way of their JSON form, so both
// transports show the same field names.
func toList(rows any) (*structpb.ListValue, error) {
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return structpb.NewList(items)
}

// Search expects {"resource": "<name>", "filters": {...}} and answers
// {"items": [...]}. An empty result is NotFound, as on the HTTP surface.
func (q *QueryServer) Search(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()

	resource, _ := fields["resource"].(string)
	run, ok := searches[strings.ToLower(strings.TrimSpace(resource))]
	if !ok {
		return nil, apierr.NewValidationError(
			fmt.Sprintf("resource: must be one of %s", strings.Join(Resources(), ", ")), nil)
	}

	filters := map[string]any{}
	if raw, found := fields["filters"]; found && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apierr.NewValidationError("filters: must be an object", nil)
		}
		filters = m
	}

	rows, n, err := run(ctx, q.Gateway, filters)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apierr.NewNotFoundError("", nil)
	}

	items, err := toList(rows)
	if err != nil {
		return nil, apierr.NewInternalError("Failed to encode result", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"items": structpb.NewListValue(items),
	}}, nil
}

func (q *QueryServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	uid, _ := auth.IdentityFrom(ctx)
	return structpb.NewStruct(map[string]any{"logged_in_as": uid})
}
