package rdbms

import (
	"context"
	"database/sql"

	_ "github.com/IBM/nzgo/v12"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// newNetezzaConnection opens the Netezza database connection specified in d.
func newNetezzaConnection(ctx context.Context, log logger.Logger, d *shared.DsnConnectionDetails) (shared.Connector, error) {
	n := shared.NetezzaConnectionDetails{Dsn: d.Dsn}
	dsn, err := n.GetNzgoConnectionString()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("nzgo", dsn)
	if err != nil {
		return nil, err
	}
	return pingConnection(ctx, log, db, constants.ConnectionTypeNetezza)
}
