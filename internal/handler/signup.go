package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/service"
)

// SignupHandler covers the performer-facing signup endpoints.
type SignupHandler struct {
	Gate    *service.SignupService
	Signups *repository.SignupRepo
}

type signupResp struct {
	ID         uint64    `json:"id"`
	InstanceID uint64    `json:"instance_id"`
	SignupTime time.Time `json:"signup_time"`
	Position   *int      `json:"position,omitempty"`
}

// SignUp claims a slot on the instance for the calling user. The gate
// enforces cancellation state, the signup window and capacity.
func (h *SignupHandler) SignUp(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	instanceID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	sg, err := h.Gate.SignUp(ctx, uid, instanceID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, signupResp{
		ID:         sg.ID,
		InstanceID: sg.ShowInstanceID,
		SignupTime: sg.SignupTime,
	})
}

// Cancel withdraws a signup: one's own, or anyone's when the caller
// manages the lineup.
func (h *SignupHandler) Cancel(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	signupID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signup id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Gate.CancelSignup(ctx, uid, signupID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}

// Mine lists the caller's upcoming signups.
func (h *SignupHandler) Mine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	signups, err := h.Signups.ListUpcomingByUser(ctx, uid, time.Now().UTC())
	if err != nil {
		return fail(c, err)
	}
	out := make([]signupResp, 0, len(signups))
	for _, s := range signups {
		out = append(out, signupResp{
			ID:         s.ID,
			InstanceID: s.ShowInstanceID,
			SignupTime: s.SignupTime,
			Position:   s.Position,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"signups": out})
}
