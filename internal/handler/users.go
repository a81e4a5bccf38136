package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/care-records/internal/config"
	"github.com/iliyamo/care-records/internal/middleware"
	"github.com/iliyamo/care-records/internal/model"
	"github.com/iliyamo/care-records/internal/repository"
)

// UserAdminHandler lets admins and developers manage staff accounts.  Only a
// developer may create or modify a developer account.
type UserAdminHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserAdminHandler(cfg config.Config, u UserStore) *UserAdminHandler {
	return &UserAdminHandler{Cfg: cfg, Users: u}
}

type createUserReq struct {
	Username   string `json:"username" validate:"required,min=3,max=50"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	NameZh     string `json:"name_zh" validate:"required,max=50"`
	NameEn     string `json:"name_en" validate:"max=100"`
	Department string `json:"department" validate:"required,max=50"`
	Position   string `json:"position" validate:"max=50"`
	Role       string `json:"role" validate:"omitempty,oneof=developer admin staff"`
}

type resetPasswordReq struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

func (h *UserAdminHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Role == "" {
		req.Role = model.RoleStaff
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, err, "user")
	}
	if req.Role == model.RoleDeveloper && middleware.Role(c) != model.RoleDeveloper {
		return respondErr(c, repository.ErrForbidden, "user")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u := model.User{
		Username:   req.Username,
		NameZh:     req.NameZh,
		NameEn:     req.NameEn,
		Department: req.Department,
		Position:   req.Position,
		Role:       req.Role,
		IsActive:   true,
	}
	if err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost); err != nil {
		return respondErr(c, err, "user")
	}
	return c.JSON(http.StatusCreated, u)
}

// target loads the account addressed by :id and checks the caller may
// manage it.
func (h *UserAdminHandler) target(ctx context.Context, c echo.Context) (model.User, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return model.User{}, repository.ErrNotFound
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if u.Role == model.RoleDeveloper && middleware.Role(c) != model.RoleDeveloper {
		return model.User{}, repository.ErrForbidden
	}
	return u, nil
}

func (h *UserAdminHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondErr(c, err, "user")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.target(ctx, c)
	if err != nil {
		return respondErr(c, err, "user")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return respondErr(c, err, "user")
	}
	return c.NoContent(http.StatusNoContent)
}

// RegenerateQRCode issues a new badge id; the old badge stops working.
func (h *UserAdminHandler) RegenerateQRCode(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.target(ctx, c)
	if err != nil {
		return respondErr(c, err, "user")
	}
	qr, err := h.Users.RegenerateQRCode(ctx, u.ID)
	if err != nil {
		return respondErr(c, err, "user")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": u.ID, "qr_code_id": qr})
}
