package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/utils"
)

const userColumns = `id, username, password_hash, name_zh, name_en, department, position, role, qr_code_id,
	is_active, created_at, updated_at`

// UserRepo stores staff accounts in staff_users.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes password with cost, inserts u and fills in its id and
// timestamps.  A taken username yields ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Username = strings.TrimSpace(u.Username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if u.QRCodeID == "" {
		if u.QRCodeID, err = utils.NewQRCodeID(); err != nil {
			return err
		}
	}
	const q = `INSERT INTO staff_users (username, password_hash, name_zh, name_en, department, position, role, qr_code_id, is_active)
	           VALUES (:username, :password_hash, :name_zh, :name_en, :department, :position, :role, :qr_code_id, :is_active)`
	res, err := r.DB.NamedExecContext(ctx, q, u)
	if err != nil {
		if errors.Is(mapWriteErr(err), ErrConflict) {
			return ErrUsernameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = stored
	return nil
}

func (r *UserRepo) getBy(ctx context.Context, col string, v interface{}) (model.User, error) {
	var u model.User
	err := r.DB.GetContext(ctx, &u, "SELECT "+userColumns+" FROM staff_users WHERE "+col+" = ? LIMIT 1", v)
	return u, mapReadErr(err)
}

// GetByUsername fetches a user by trimmed username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getBy(ctx, "username", strings.TrimSpace(username))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByQRCode fetches the user whose badge carries qr.
func (r *UserRepo) GetByQRCode(ctx context.Context, qr string) (model.User, error) {
	return r.getBy(ctx, "qr_code_id", strings.TrimSpace(qr))
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE staff_users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// RegenerateQRCode replaces the badge id of a user and returns the new one.
func (r *UserRepo) RegenerateQRCode(ctx context.Context, id uint64) (string, error) {
	qr, err := utils.NewQRCodeID()
	if err != nil {
		return "", err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE staff_users SET qr_code_id = ? WHERE id = ?", qr, id)
	if err != nil {
		return "", mapWriteErr(err)
	}
	if err := affectedOne(res); err != nil {
		return "", err
	}
	return qr, nil
}
