//go:build !libsql

package factory

import (
	"context"
	"errors"

	"github.com/papercomputeco/rlmtrace/pkg/storage"
)

// ErrLibSQLUnavailable is returned for a libSQL URL when the binary was
// built without the libsql tag.
var ErrLibSQLUnavailable = errors.New("built without libsql support, rebuild with -tags libsql")

func openLibSQL(context.Context, string) (storage.TraceStore, error) {
	return nil, ErrLibSQLUnavailable
}
