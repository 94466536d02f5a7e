//go:build libsql

package factory

import (
	"context"

	"github.com/papercomputeco/rlmtrace/pkg/storage"
	"github.com/papercomputeco/rlmtrace/pkg/storage/libsql"
)

func openLibSQL(ctx context.Context, url string) (storage.TraceStore, error) {
	return libsql.NewStore(ctx, url)
}
