package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/openmicnights/openmic/internal/config"
	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/schedule"
	"github.com/openmicnights/openmic/internal/service"
)

// ShowHandler covers show CRUD and role grants. Creating or updating a
// show materializes its upcoming instances synchronously so the public
// pages reflect the change on the next read.
type ShowHandler struct {
	Cfg      config.Config
	Shows    *repository.ShowRepo
	Users    *repository.UserRepo
	RoleRepo *repository.RoleRepo
	Roles    *service.RoleResolver
	Mat      *service.Materializer
	Log      *zap.SugaredLogger
}

type windowPart struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type showReq struct {
	Name             string      `json:"name"`
	Venue            string      `json:"venue"`
	Address          string      `json:"address"`
	Description      string      `json:"description"`
	Timezone         string      `json:"timezone"`
	DayOfWeek        string      `json:"day_of_week"`
	StartTime        string      `json:"start_time"` // "HH:MM" local to Timezone
	EndTime          *string     `json:"end_time"`
	RepeatCadence    string      `json:"repeat_cadence"`
	CustomRepeatDays *int        `json:"custom_repeat_days"`
	StartedDate      string      `json:"started_date"` // "YYYY-MM-DD"
	MaxSignups       int         `json:"max_signups"`
	SignupsOpen      *windowPart `json:"signups_open"`
	SignupsClosed    *windowPart `json:"signups_closed"`
	// Legacy deadline, hours before start. Ignored when the offsets
	// above are both present.
	SignupWindowAfterHours *int `json:"signup_window_after_hours"`
}

type showResp struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	Venue            string  `json:"venue"`
	Address          string  `json:"address,omitempty"`
	Description      string  `json:"description,omitempty"`
	Timezone         string  `json:"timezone"`
	DayOfWeek        string  `json:"day_of_week"`
	StartTimeUTC     string  `json:"start_time_utc"`
	EndTimeUTC       *string `json:"end_time_utc,omitempty"`
	RepeatCadence    string  `json:"repeat_cadence"`
	CustomRepeatDays *int    `json:"custom_repeat_days,omitempty"`
	StartedDate      string  `json:"started_date"`
	EndedDate        *string `json:"ended_date,omitempty"`
	MaxSignups       int     `json:"max_signups"`

	SignupsOpen   *windowPart `json:"signups_open,omitempty"`
	SignupsClosed *windowPart `json:"signups_closed,omitempty"`
	Role          string      `json:"role,omitempty"`
}

func showToResp(s *model.Show) showResp {
	r := showResp{
		ID:               s.ID,
		Name:             s.Name,
		Venue:            s.Venue,
		Address:          s.Address,
		Description:      s.Description,
		Timezone:         s.Timezone,
		DayOfWeek:        s.DayOfWeek,
		StartTimeUTC:     s.StartTime,
		EndTimeUTC:       s.EndTime,
		RepeatCadence:    string(s.RepeatCadence),
		CustomRepeatDays: s.CustomRepeatDays,
		StartedDate:      s.StartedDate.Format("2006-01-02"),
		MaxSignups:       s.MaxSignups,
	}
	if s.EndedDate != nil {
		d := s.EndedDate.Format("2006-01-02")
		r.EndedDate = &d
	}
	// Report offsets in the largest unit that divides them evenly,
	// mirroring how they were entered.
	if s.SignupsOpen != nil {
		v, u := schedule.FromMinutes(*s.SignupsOpen)
		r.SignupsOpen = &windowPart{Value: v, Unit: u}
	}
	if s.SignupsClosed != nil {
		v, u := schedule.FromMinutes(*s.SignupsClosed)
		r.SignupsClosed = &windowPart{Value: v, Unit: u}
	}
	return r
}

// applyReq validates the request and writes it onto the show. The
// entered start time is local to the show's timezone and is stored in
// UTC, anchored on the started date so the DST offset is the one in
// force when the run begins.
func applyReq(req *showReq, s *model.Show) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Name == "" || req.Venue == "" {
		return errors.New("name and venue are required")
	}
	if !schedule.ValidWeekday(req.DayOfWeek) {
		return errors.New("invalid day_of_week")
	}
	cadence := model.Cadence(req.RepeatCadence)
	if !cadence.Valid() {
		return errors.New("invalid repeat_cadence")
	}
	if cadence == model.CadenceCustom && (req.CustomRepeatDays == nil || *req.CustomRepeatDays < 1) {
		return errors.New("custom_repeat_days must be at least 1 for custom cadence")
	}
	if req.MaxSignups < 1 {
		return errors.New("max_signups must be at least 1")
	}
	if _, err := schedule.LoadZone(req.Timezone); err != nil {
		return errors.New("unknown timezone")
	}
	started, err := time.Parse("2006-01-02", req.StartedDate)
	if err != nil {
		return errors.New("invalid started_date")
	}

	startUTC, err := localClockToUTC(req.StartTime, started, req.Timezone)
	if err != nil {
		return errors.New("invalid start_time")
	}
	var endUTC *string
	if req.EndTime != nil && *req.EndTime != "" {
		v, err := localClockToUTC(*req.EndTime, started, req.Timezone)
		if err != nil {
			return errors.New("invalid end_time")
		}
		endUTC = &v
	}

	s.Name = req.Name
	s.Venue = req.Venue
	s.Address = strings.TrimSpace(req.Address)
	s.Description = strings.TrimSpace(req.Description)
	s.Timezone = req.Timezone
	s.DayOfWeek = req.DayOfWeek
	s.StartTime = startUTC
	s.EndTime = endUTC
	s.RepeatCadence = cadence
	s.CustomRepeatDays = req.CustomRepeatDays
	if cadence != model.CadenceCustom {
		s.CustomRepeatDays = nil
	}
	s.StartedDate = started
	s.MaxSignups = req.MaxSignups

	s.SignupsOpen, s.SignupsClosed = nil, nil
	if req.SignupsOpen != nil && req.SignupsClosed != nil {
		open, err := schedule.ToMinutes(req.SignupsOpen.Value, req.SignupsOpen.Unit)
		if err != nil {
			return errors.New("invalid signups_open unit")
		}
		closed, err := schedule.ToMinutes(req.SignupsClosed.Value, req.SignupsClosed.Unit)
		if err != nil {
			return errors.New("invalid signups_closed unit")
		}
		s.SignupsOpen, s.SignupsClosed = &open, &closed
	}
	if req.SignupWindowAfterHours != nil {
		s.SignupWindowAfterHours = *req.SignupWindowAfterHours
	}
	return nil
}

// localClockToUTC converts "HH:MM" local wall time on a reference date
// to an "HH:MM:SS" UTC clock string.
func localClockToUTC(clock string, onDate time.Time, tz string) (string, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		if t, err = time.Parse("15:04:05", clock); err != nil {
			return "", err
		}
	}
	local := time.Date(onDate.Year(), onDate.Month(), onDate.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	utc, err := schedule.LocalToUTC(local, tz)
	if err != nil {
		return "", err
	}
	return utc.Format("15:04:05"), nil
}

// Create registers a new show owned by the caller and materializes its
// first instances before responding.
func (h *ShowHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req showReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	show := &model.Show{OwnerID: uid}
	if err := applyReq(&req, show); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Shows.Create(ctx, show); err != nil {
		return fail(c, err)
	}
	if _, err := h.Mat.Materialize(ctx, show, h.Cfg.Scheduler.HorizonDays, time.Now().UTC()); err != nil {
		// The show row exists; the nightly pass will backfill.
		h.Log.Warnw("initial materialization failed", "show_id", show.ID, "error", err)
	}

	resp := showToResp(show)
	resp.Role = string(service.RoleOwner)
	return c.JSON(http.StatusCreated, resp)
}

// Update rewrites show settings. Owners and runners may update; the
// recurrence may have changed, so missing instances are materialized
// afterwards. Existing instances are never deleted here.
func (h *ShowHandler) Update(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req showReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	role, err := h.Roles.RoleForShow(ctx, uid, show)
	if err != nil {
		return fail(c, err)
	}
	if !role.CanEditShow() {
		return fail(c, service.ErrNotAuthorized)
	}
	if err := applyReq(&req, show); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := h.Shows.Update(ctx, show); err != nil {
		return fail(c, err)
	}
	if _, err := h.Mat.Materialize(ctx, show, h.Cfg.Scheduler.HorizonDays, time.Now().UTC()); err != nil {
		h.Log.Warnw("re-materialization failed", "show_id", show.ID, "error", err)
	}

	resp := showToResp(show)
	resp.Role = string(role)
	return c.JSON(http.StatusOK, resp)
}

// ListMine returns every show the caller owns, runs or hosts, with
// their resolved role on each.
func (h *ShowHandler) ListMine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	shows, err := h.Shows.ListManagedBy(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	out := make([]showResp, 0, len(shows))
	for i := range shows {
		role, err := h.Roles.RoleForShow(ctx, uid, &shows[i])
		if err != nil {
			return fail(c, err)
		}
		r := showToResp(&shows[i])
		r.Role = string(role)
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// Delete soft-deletes a show as of today. Owner only. Instances and
// their signups are kept for history.
func (h *ShowHandler) Delete(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if show.OwnerID != uid {
		return fail(c, service.ErrNotAuthorized)
	}
	if err := h.Shows.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "deleted"})
}

// Restore reverses a soft delete. Owner only.
func (h *ShowHandler) Restore(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if show.OwnerID != uid {
		return fail(c, service.ErrNotAuthorized)
	}
	if err := h.Shows.Undelete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "restored"})
}

type grantReq struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
}

// resolveGrantee accepts a user ID or a username.
func (h *ShowHandler) resolveGrantee(c echo.Context, req grantReq) (uint64, error) {
	if req.UserID != 0 {
		return req.UserID, nil
	}
	if strings.TrimSpace(req.Username) == "" {
		return 0, errors.New("user_id or username required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errors.New("no such user")
		}
		return 0, err
	}
	return u.ID, nil
}

// AddRunner grants runner rights. Owner only: runners are co-owners in
// all but name, so only the owner appoints them.
func (h *ShowHandler) AddRunner(c echo.Context) error {
	return h.grant(c, func(ctx echo.Context, showID, granteeID, callerID uint64) error {
		cctx, cancel := reqCtx(ctx)
		defer cancel()
		return h.RoleRepo.AddRunner(cctx, showID, granteeID, callerID)
	}, true)
}

// RemoveRunner revokes runner rights. Owner only.
func (h *ShowHandler) RemoveRunner(c echo.Context) error {
	return h.grant(c, func(ctx echo.Context, showID, granteeID, _ uint64) error {
		cctx, cancel := reqCtx(ctx)
		defer cancel()
		return h.RoleRepo.RemoveRunner(cctx, showID, granteeID)
	}, true)
}

// AddHost grants standing host rights. Owners and runners may do this.
func (h *ShowHandler) AddHost(c echo.Context) error {
	return h.grant(c, func(ctx echo.Context, showID, granteeID, callerID uint64) error {
		cctx, cancel := reqCtx(ctx)
		defer cancel()
		return h.RoleRepo.AddHost(cctx, showID, granteeID, callerID)
	}, false)
}

// RemoveHost revokes standing host rights. Owners and runners.
func (h *ShowHandler) RemoveHost(c echo.Context) error {
	return h.grant(c, func(ctx echo.Context, showID, granteeID, _ uint64) error {
		cctx, cancel := reqCtx(ctx)
		defer cancel()
		return h.RoleRepo.RemoveHost(cctx, showID, granteeID)
	}, false)
}

func (h *ShowHandler) grant(c echo.Context, op func(echo.Context, uint64, uint64, uint64) error, ownerOnly bool) error {
	uid, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req grantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	show, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		return fail(c, err)
	}
	role, err := h.Roles.RoleForShow(ctx, uid, show)
	if err != nil {
		return fail(c, err)
	}
	if ownerOnly && role != service.RoleOwner {
		return fail(c, service.ErrNotAuthorized)
	}
	if !ownerOnly && !role.CanEditShow() {
		return fail(c, service.ErrNotAuthorized)
	}

	granteeID, err := h.resolveGrantee(c, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := op(c, showID, granteeID, uid); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
