package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/schedule"
	"github.com/openmicnights/openmic/internal/service"
)

// PublicHandler serves the unauthenticated browse endpoints: show
// listings, instance details with signup status, live lineups and the
// cross-show calendar.
type PublicHandler struct {
	Shows     *repository.ShowRepo
	Instances *repository.InstanceRepo
	Signups   *repository.SignupRepo
	RoleRepo  *repository.RoleRepo
	Gate      *service.SignupService
}

// ListShows returns every active show.
func (h *PublicHandler) ListShows(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	shows, err := h.Shows.ListActive(ctx)
	if err != nil {
		return fail(c, err)
	}
	out := make([]showResp, 0, len(shows))
	for i := range shows {
		out = append(out, showToResp(&shows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

type instancePart struct {
	ID           uint64  `json:"id"`
	Date         string  `json:"date"`
	StartTimeUTC string  `json:"start_time_utc"`
	EndTimeUTC   *string `json:"end_time_utc,omitempty"`
	MaxSignups   int     `json:"max_signups"`
	IsCancelled  bool    `json:"is_cancelled"`
	CancelReason *string `json:"cancellation_reason,omitempty"`
}

func instanceToPart(inst *model.ShowInstance, show *model.Show) instancePart {
	return instancePart{
		ID:           inst.ID,
		Date:         inst.InstanceDate.Format("2006-01-02"),
		StartTimeUTC: inst.EffectiveStartTime(show),
		EndTimeUTC:   inst.EffectiveEndTime(show),
		MaxSignups:   inst.EffectiveMaxSignups(show),
		IsCancelled:  inst.IsCancelled,
		CancelReason: inst.CancellationReason,
	}
}

// ShowDetail returns one show with its upcoming instances.
func (h *PublicHandler) ShowDetail(c echo.Context) error {
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
	instances, err := h.Instances.ListUpcomingByShow(ctx, id, time.Now().UTC(), 10)
	if err != nil {
		return fail(c, err)
	}
	parts := make([]instancePart, 0, len(instances))
	for i := range instances {
		parts = append(parts, instanceToPart(&instances[i], show))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show":      showToResp(show),
		"instances": parts,
	})
}

type instanceStatusPart struct {
	instancePart
	Status      string `json:"signup_status"`
	SignupCount int    `json:"signup_count"`
	CanSignup   bool   `json:"can_signup"`
}

// ShowInstances returns a show's dated instances over the next ?days
// (default 30, capped at 90), each with its current signup status.
func (h *PublicHandler) ShowInstances(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	days := 30
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid days"})
		}
		days = n
	}
	if days > 90 {
		days = 90
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	show, err := h.Shows.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	from := schedule.DateOf(time.Now().UTC())
	instances, err := h.Instances.ListByShowBetween(ctx, id, from, from.AddDate(0, 0, days))
	if err != nil {
		return fail(c, err)
	}
	out := make([]instanceStatusPart, 0, len(instances))
	for i := range instances {
		inst := &instances[i]
		st, err := h.Gate.StatusFor(ctx, show, inst)
		if err != nil {
			return fail(c, err)
		}
		out = append(out, instanceStatusPart{
			instancePart: instanceToPart(inst, show),
			Status:       string(st.Status),
			SignupCount:  st.SignupCount,
			CanSignup:    st.CanSignup,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"instances": out})
}

type windowResp struct {
	Status        string     `json:"status"`
	OpensAtUTC    *time.Time `json:"opens_at_utc,omitempty"`
	ClosesAtUTC   time.Time  `json:"closes_at_utc"`
	OpensAtLocal  *string    `json:"opens_at_local,omitempty"`
	ClosesAtLocal string     `json:"closes_at_local"`
}

// windowToResp renders the window in UTC and in the show's zone. A
// legacy-deadline window has no opening bound, so the open fields stay
// null.
func windowToResp(st service.InstanceStatus, tz string) windowResp {
	const layout = "2006-01-02 15:04 MST"
	r := windowResp{
		Status:      string(st.Status),
		ClosesAtUTC: st.Window.ClosesAt,
	}
	if closesLocal, err := schedule.UTCToLocal(st.Window.ClosesAt, tz); err == nil {
		r.ClosesAtLocal = closesLocal.Format(layout)
	}
	if !st.Window.NoOpenBound {
		opens := st.Window.OpensAt
		r.OpensAtUTC = &opens
		if opensLocal, err := schedule.UTCToLocal(opens, tz); err == nil {
			s := opensLocal.Format(layout)
			r.OpensAtLocal = &s
		}
	}
	return r
}

// InstanceDetail returns one dated instance with its computed signup
// window, counts and the night's hosts.
func (h *PublicHandler) InstanceDetail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	inst, err := h.Instances.GetByID(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	show, err := h.Shows.GetByID(ctx, inst.ShowID)
	if err != nil {
		return fail(c, err)
	}
	st, err := h.Gate.StatusFor(ctx, show, inst)
	if err != nil {
		return fail(c, err)
	}
	hosts, err := h.RoleRepo.InstanceHostNames(ctx, inst.ID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"show":         showToResp(show),
		"instance":     instanceToPart(inst, show),
		"window":       windowToResp(st, show.Timezone),
		"signup_count": st.SignupCount,
		"max_signups":  st.MaxSignups,
		"can_signup":   st.CanSignup,
		"hosts":        hosts,
	})
}

type publicLineupEntry struct {
	Name     string `json:"name"`
	Position *int   `json:"position,omitempty"`
}

// Lineup returns the public running order: names and positions only.
func (h *PublicHandler) Lineup(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid instance id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Signups.ListByInstance(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	out := make([]publicLineupEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, publicLineupEntry{Name: e.DisplayName, Position: e.Signup.Position})
	}
	return c.JSON(http.StatusOK, echo.Map{"lineup": out})
}

type calendarEntry struct {
	InstanceID  uint64 `json:"instance_id"`
	ShowID      uint64 `json:"show_id"`
	ShowName    string `json:"show_name"`
	Venue       string `json:"venue"`
	Date        string `json:"date"`
	StartUTC    string `json:"start_time_utc"`
	IsCancelled bool   `json:"is_cancelled"`
}

// Calendar lists all instances across shows in a date range, 31 days
// from today by default.
func (h *PublicHandler) Calendar(c echo.Context) error {
	now := time.Now().UTC()
	from := schedule.DateOf(now)
	to := from.AddDate(0, 0, 31)
	if v := c.QueryParam("from"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
		}
		from = d
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
		}
		to = d
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to before from"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	instances, err := h.Instances.ListBetween(ctx, from, to)
	if err != nil {
		return fail(c, err)
	}

	// One show lookup per distinct show, not per instance.
	shows := map[uint64]*model.Show{}
	out := make([]calendarEntry, 0, len(instances))
	for i := range instances {
		inst := &instances[i]
		show, ok := shows[inst.ShowID]
		if !ok {
			show, err = h.Shows.GetByID(ctx, inst.ShowID)
			if err != nil {
				return fail(c, err)
			}
			shows[inst.ShowID] = show
		}
		out = append(out, calendarEntry{
			InstanceID:  inst.ID,
			ShowID:      show.ID,
			ShowName:    show.Name,
			Venue:       show.Venue,
			Date:        inst.InstanceDate.Format("2006-01-02"),
			StartUTC:    inst.EffectiveStartTime(show),
			IsCancelled: inst.IsCancelled,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}
