package common

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"testing"

	z "github.com/Oudwins/zog"
)

func IsTestEnv() bool {
	return testing.Testing()
}

func IsDevelopment() bool {
	return os.Getenv(EnvKeyGoEnv) == "development"
}

func IsProduction() bool {
	return os.Getenv(EnvKeyGoEnv) == "production"
}

func Mapper[T any, R any](items []T, mapFn func(T) R) []R {
	mapped := make([]R, len(items))
	for i := range len(items) {
		mapped[i] = mapFn(items[i])
	}
	return mapped
}

func Reducer[T any, R any](items []T, reduceFn func(R, T) R, initAcc R) R {
	finalAcc := initAcc
	for i := range len(items) {
		finalAcc = reduceFn(finalAcc, items[i])
	}
	return finalAcc
}

// AppendSlash makes sure a directory-like path ends with exactly one separator.
func AppendSlash(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

// IssuesMessage flattens a zog issue map into one line, ordered by field, so
// it can be sent back in the {"msg": ...} envelope.
func IssuesMessage(issues z.ZogIssueMap) string {
	keys := make([]string, 0, len(issues))
	for k := range issues {
		if k == "$first" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, issue := range issues[k] {
			parts = append(parts, fmt.Sprintf("%s: %s", k, issue.Message))
		}
	}
	return strings.Join(parts, "; ")
}
