package model

import "time"

// Staff roles.  Developers and admins manage accounts; staff only record.
const (
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
	RoleStaff     = "staff"
)

// User represents a staff account as stored in the `staff_users` table.
// PasswordHash never leaves the server: it carries a "-" JSON tag.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – developer, admin or staff.
//  QRCodeID     – unique id printed on the staff badge for QR login.
//  IsActive     – inactive accounts cannot log in.
type User struct {
	ID           uint64    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	NameZh       string    `db:"name_zh" json:"name_zh"`
	NameEn       string    `db:"name_en" json:"name_en,omitempty"`
	Department   string    `db:"department" json:"department"`
	Position     string    `db:"position" json:"position,omitempty"`
	Role         string    `db:"role" json:"role"`
	QRCodeID     string    `db:"qr_code_id" json:"qr_code_id"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     `db:"id"`
	UserID    uint64     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}
