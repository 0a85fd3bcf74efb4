package handler

import (
	"fmt"
	"net/http"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/labstack/echo/v4"
	"github.com/teambition/rrule-go"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/repository"
	"github.com/openmicnights/openmic/internal/schedule"
)

// CalendarHandler serves the per-show ICS feed so comedians can
// subscribe to a mic from their calendar app.
type CalendarHandler struct {
	Shows     *repository.ShowRepo
	Instances *repository.InstanceRepo
}

// weekdayRules maps the stored day name onto rrule weekdays.
var weekdayRules = map[string]rrule.Weekday{
	"Monday":    rrule.MO,
	"Tuesday":   rrule.TU,
	"Wednesday": rrule.WE,
	"Thursday":  rrule.TH,
	"Friday":    rrule.FR,
	"Saturday":  rrule.SA,
	"Sunday":    rrule.SU,
}

// recurrenceRule renders the show's cadence as an RRULE value. The
// monthly cadence pins the weekday to the anchor's week-of-month index
// via BYDAY with an ordinal.
func recurrenceRule(show *model.Show) (string, bool) {
	wd, ok := weekdayRules[show.DayOfWeek]
	if !ok {
		return "", false
	}
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{wd}}
	switch show.RepeatCadence {
	case model.CadenceWeekly:
	case model.CadenceBiWeekly:
		opt.Interval = 2
	case model.CadenceMonthly:
		week := (show.StartedDate.Day()-1)/7 + 1
		opt = rrule.ROption{Freq: rrule.MONTHLY, Byweekday: []rrule.Weekday{wd.Nth(week)}}
	case model.CadenceCustom:
		if show.CustomRepeatDays == nil || *show.CustomRepeatDays < 1 {
			return "", false
		}
		opt = rrule.ROption{Freq: rrule.DAILY, Interval: *show.CustomRepeatDays}
	default:
		return "", false
	}
	return opt.RRuleString(), true
}

// ICSFeed renders the show as an iCalendar document: a recurring
// master event for the cadence plus EXDATE entries for cancelled
// instances.
func (h *CalendarHandler) ICSFeed(c echo.Context) error {
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
	instances, err := h.Instances.ListUpcomingByShow(ctx, id, time.Now().UTC(), 50)
	if err != nil {
		return fail(c, err)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//openmic//scheduler//EN")
	cal.SetName(show.Name)

	if len(instances) > 0 {
		first := &instances[0]
		start, err := schedule.StartAt(first.InstanceDate, first.EffectiveStartTime(show))
		if err != nil {
			return fail(c, err)
		}
		ev := cal.AddEvent(fmt.Sprintf("show-%d@openmic", show.ID))
		ev.SetSummary(show.Name)
		ev.SetLocation(show.Venue)
		if show.Description != "" {
			ev.SetDescription(show.Description)
		}
		ev.SetDtStampTime(time.Now().UTC())
		ev.SetStartAt(start)
		if end := first.EffectiveEndTime(show); end != nil {
			if endAt, err := schedule.StartAt(first.InstanceDate, *end); err == nil {
				ev.SetEndAt(endAt)
			}
		}
		if rule, ok := recurrenceRule(show); ok {
			ev.AddRrule(rule)
		}
		for i := range instances {
			inst := &instances[i]
			if !inst.IsCancelled {
				continue
			}
			if ex, err := schedule.StartAt(inst.InstanceDate, inst.EffectiveStartTime(show)); err == nil {
				ev.AddExdate(ex.Format("20060102T150405Z"))
			}
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/calendar; charset=utf-8")
	return c.String(http.StatusOK, cal.Serialize())
}
