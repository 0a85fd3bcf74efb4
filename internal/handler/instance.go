package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/queue"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/service"
)

// InstanceHandler covers per-date management: cancelling, restoring,
// overriding capacity/times and assigning the night's host.
type InstanceHandler struct {
	Shows     *repository.ShowRepo
	Instances *repository.InstanceRepo
	Signups   *repository.SignupRepo
	RoleRepo  *repository.RoleRepo
	Roles     *service.RoleResolver
	Log       *zap.SugaredLogger
}

// loadForManage fetches instance and show and requires lineup-manager
// rights on the instance.
func (h *InstanceHandler) loadForManage(ctx context.Context, uid, id uint64) (*model.ShowInstance, *model.Show, error) {
	inst, err := h.Instances.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	show, err := h.Shows.GetByID(ctx, inst.ShowID)
	if err != nil {
		return nil, nil, err
	}
	role, err := h.Roles.RoleForInstance(ctx, uid, show, inst.ID)
	if err != nil {
		return nil, nil, err
	}
	if !role.CanManageLineup() {
		return nil, nil, service.ErrNotAuthorized
	}
	return inst, show, nil
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel marks one date cancelled without touching the recurrence or
// the signups already taken, and notifies the lineup via the broker.
func (h *InstanceHandler) Cancel(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	var req cancelReq
	_ = c.Bind(&req)

	ctx, cancel := reqCtx(c)
	defer cancel()

	inst, show, err := h.loadForManage(ctx, uid, id)
	if err != nil {
		return fail(c, err)
	}
	now := time.Now().UTC()
	if err := h.Instances.Cancel(ctx, inst.ID, req.Reason, now); err != nil {
		return fail(c, err)
	}

	performers, err := h.Signups.CountForInstance(ctx, inst.ID)
	if err != nil {
		performers = 0
	}
	ev := queue.InstanceCancelledEvent{
		InstanceID:   inst.ID,
		ShowID:       show.ID,
		ShowName:     show.Name,
		InstanceDate: inst.InstanceDate.Format("2006-01-02"),
		Reason:       req.Reason,
		Performers:   performers,
		CancelledAt:  now.Format(time.RFC3339),
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		if err := queue.PublishInstanceCancelled(pctx, ev); err != nil {
			h.Log.Warnw("cancel event publish failed", "instance_id", inst.ID, "error", err)
		}
	}()
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}

// Restore reverses a cancellation.
func (h *InstanceHandler) Restore(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	inst, _, err := h.loadForManage(ctx, uid, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Instances.Restore(ctx, inst.ID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "restored"})
}

type overridesReq struct {
	MaxSignups *int    `json:"max_signups"`
	StartTime  *string `json:"start_time"` // "HH:MM:SS" UTC
	EndTime    *string `json:"end_time"`
}

// Overrides sets the per-date capacity and time overrides; sending
// null for a field clears it back to the show default.
func (h *InstanceHandler) Overrides(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req overridesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MaxSignups != nil && *req.MaxSignups < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_signups must be at least 1"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inst, _, err := h.loadForManage(ctx, uid, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Instances.UpdateOverrides(ctx, inst.ID, req.MaxSignups, req.StartTime, req.EndTime); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

type hostReq struct {
	UserID uint64 `json:"user_id"`
}

// SetHost assigns the host for this one date, replacing any previous
// assignment. The assignee gains host rights on this instance only.
func (h *InstanceHandler) SetHost(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req hostReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	inst, _, err := h.loadForManage(ctx, uid, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.RoleRepo.SetInstanceHost(ctx, inst.ID, req.UserID); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
