package models

import (
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
)

// Text is a string schema that refuses non-string input instead of
// formatting it, so {"device_name": 123} is a validation issue.
func Text() *z.StringSchema[string] {
	return z.String(z.WithCoercer(textCoercer))
}

func textCoercer(data any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("expected a string, got %T", data)
	}
	return s, nil
}

// Filter schemas are shared by every transport. All fields are optional.

var DatatypeFilterSchema = z.Struct(z.Shape{
	"DatatypeID":   z.Ptr(z.Int()),
	"DatatypeName": z.Ptr(Text()),
	"IsLarge":      z.Ptr(z.Bool()),
})

var DeviceFilterSchema = z.Struct(z.Shape{
	"DeviceID":   z.Ptr(z.Int()),
	"DeviceName": z.Ptr(Text()),
	"Location":   z.Ptr(Text()),
	"UID":        z.Ptr(Text()),
})

var SensorFilterSchema = z.Struct(z.Shape{
	"SensorID":     z.Ptr(z.Int()),
	"SensorName":   z.Ptr(Text()),
	"Topic":        z.Ptr(Text()),
	"IsEnabled":    z.Ptr(z.Bool()),
	"DatatypeID":   z.Ptr(z.Int()),
	"DeviceID":     z.Ptr(z.Int()),
	"Location":     z.Ptr(Text()),
	"DatatypeName": z.Ptr(Text()),
	"IsLarge":      z.Ptr(z.Bool()),
	"UID":          z.Ptr(Text()),
	"DeviceName":   z.Ptr(Text()),
})

var TagFilterSchema = z.Struct(z.Shape{
	"TagID":   z.Ptr(z.Int()),
	"TagName": z.Ptr(Text()),
})

// FileDetailFilterSchema leaves out the dates, see ParseFileDetailDates.
var FileDetailFilterSchema = z.Struct(z.Shape{
	"FileID":     z.Ptr(z.Int()),
	"FileName":   z.Ptr(Text()),
	"TagID":      z.Ptr(z.Int()),
	"TagName":    z.Ptr(Text()),
	"DatatypeID": z.Ptr(z.Int()),
	"DeviceID":   z.Ptr(z.Int()),
	"SensorID":   z.Ptr(z.Int()),
	"Topic":      z.Ptr(Text()),
})

// ParseFileDetailDates reads start_date and end_date from the raw request
// fields. Both are DateLayout strings taken as UTC.
func ParseFileDetailDates(data map[string]any, filter *FileDetailFilter) error {
	var err error
	if filter.StartDate, err = parseDate(data, "start_date"); err != nil {
		return err
	}
	filter.EndDate, err = parseDate(data, "end_date")
	return err
}

func parseDate(data map[string]any, key string) (*time.Time, error) {
	raw, found := data[key]
	if !found || raw == nil {
		return nil, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%s: must be a date string", key)
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%s: must look like %s", key, DateLayout)
	}
	return &t, nil
}
