package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sehati-health/sehati/internal/common"
	"github.com/sehati-health/sehati/internal/dbx"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/repositories/pgerr"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, wallet_address, display_name, role, date_of_birth, gender, phone, hospital, public_key, is_verified, created_at`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (wallet_address, display_name, role, date_of_birth, gender, phone, hospital, public_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	var dob sql.NullTime
	if user.DateOfBirth != nil {
		dob = sql.NullTime{Time: *user.DateOfBirth, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query,
		user.WalletAddress, user.DisplayName, user.Role, dob,
		user.Gender, user.Phone, user.Hospital, user.PublicKey,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if pgerr.IsUniqueViolation(err, "") {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	return r.getOne(ctx, query, walletAddress)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var dob sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.WalletAddress, &user.DisplayName, &user.Role, &dob,
		&user.Gender, &user.Phone, &user.Hospital, &user.PublicKey, &user.IsVerified, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if dob.Valid {
		t := dob.Time
		user.DateOfBirth = &t
	}
	return user, nil
}
