package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/service"
)

// LineupHandler covers host-side lineup management: ordering, walk-ins
// and the night-of bookkeeping flags.
type LineupHandler struct {
	Shows     *repository.ShowRepo
	Instances *repository.InstanceRepo
	Signups   *repository.SignupRepo
	Roles     *service.RoleResolver
	Gate      *service.SignupService
}

type lineupEntryResp struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Walkin     bool      `json:"walkin"`
	SignupTime time.Time `json:"signup_time"`
	Position   *int      `json:"position,omitempty"`
	IsPresent  bool      `json:"is_present"`
	Performed  bool      `json:"performed"`
	Notes      string    `json:"notes,omitempty"`
}

func lineupToResp(entries []repository.LineupEntry) []lineupEntryResp {
	out := make([]lineupEntryResp, 0, len(entries))
	for _, e := range entries {
		_, walkin := e.Signup.Performer.Walkin()
		out = append(out, lineupEntryResp{
			ID:         e.Signup.ID,
			Name:       e.DisplayName,
			Walkin:     walkin,
			SignupTime: e.Signup.SignupTime,
			Position:   e.Signup.Position,
			IsPresent:  e.Signup.IsPresent,
			Performed:  e.Signup.Performed,
			Notes:      e.Signup.Notes,
		})
	}
	return out
}

func (h *LineupHandler) requireManager(ctx context.Context, uid, instanceID uint64) (*model.ShowInstance, error) {
	inst, err := h.Instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	show, err := h.Shows.GetByID(ctx, inst.ShowID)
	if err != nil {
		return nil, err
	}
	role, err := h.Roles.RoleForInstance(ctx, uid, show, inst.ID)
	if err != nil {
		return nil, err
	}
	if !role.CanManageLineup() {
		return nil, service.ErrNotAuthorized
	}
	return inst, nil
}

// Manage returns the full lineup including the bookkeeping fields the
// public view omits.
func (h *LineupHandler) Manage(c echo.Context) error {
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

	if _, err := h.requireManager(ctx, uid, instanceID); err != nil {
		return fail(c, err)
	}
	entries, err := h.Signups.ListByInstance(ctx, instanceID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"lineup": lineupToResp(entries)})
}

type reorderReq struct {
	SignupIDs []uint64 `json:"signup_ids"`
}

// Reorder rewrites lineup positions 1..n following the given order.
func (h *LineupHandler) Reorder(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	instanceID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	var req reorderReq
	if err := c.Bind(&req); err != nil || len(req.SignupIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signup_ids required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.requireManager(ctx, uid, instanceID); err != nil {
		return fail(c, err)
	}
	if err := h.Signups.ReorderPositions(ctx, instanceID, req.SignupIDs); err != nil {
		return fail(c, err)
	}
	entries, err := h.Signups.ListByInstance(ctx, instanceID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"lineup": lineupToResp(entries)})
}

type walkinReq struct {
	Name string `json:"name"`
}

// AddWalkin puts a performer without an account on the lineup.
func (h *LineupHandler) AddWalkin(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	instanceID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	var req walkinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sg, err := h.Gate.AddWalkin(ctx, uid, instanceID, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, signupResp{
		ID:         sg.ID,
		InstanceID: sg.ShowInstanceID,
		SignupTime: sg.SignupTime,
	})
}

type flagsReq struct {
	IsPresent *bool   `json:"is_present"`
	Performed *bool   `json:"performed"`
	Notes     *string `json:"notes"`
}

// UpdateFlags patches the night-of fields on one signup: checked in,
// already performed, host notes. Omitted fields are left unchanged.
func (h *LineupHandler) UpdateFlags(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	signupID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signup id"})
	}
	var req flagsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sg, err := h.Signups.GetByID(ctx, signupID)
	if err != nil {
		return fail(c, err)
	}
	if _, err := h.requireManager(ctx, uid, sg.ShowInstanceID); err != nil {
		return fail(c, err)
	}
	if err := h.Signups.UpdateFlags(ctx, signupID, req.IsPresent, req.Performed, req.Notes); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
