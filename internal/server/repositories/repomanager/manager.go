package repomanager

import (
	"context"
	"database/sql"

	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/dbx"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/accounts"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/repositories/otpcodes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	OTPCodes(db dbx.DBTX) otpcodes.Repository
}
