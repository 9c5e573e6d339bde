// Package repomanager hands out repositories bound to a connection or a
// transaction and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/server/repositories/auditlogs"
	"github.com/sehati-health/sehati/internal/server/repositories/grants"
	"github.com/sehati-health/sehati/internal/server/repositories/records"
	"github.com/sehati-health/sehati/internal/server/repositories/refreshtokens"
	"github.com/sehati-health/sehati/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Grants(db dbx.DBTX) grants.Repository
	Records(db dbx.DBTX) records.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
