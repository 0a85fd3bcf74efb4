package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/queue"
	"github.com/openmicnights/openmic/internal/schedule"
)

// Signup gate errors. Handlers translate these into 4xx responses.
var (
	ErrSignupsNotOpen     = errors.New("signups are not open yet")
	ErrSignupsClosed      = errors.New("signups are closed")
	ErrShowFull           = errors.New("show is full")
	ErrInstanceCancelled  = errors.New("show instance is cancelled")
	ErrWalkinNameRequired = errors.New("walk-in name is required")
)

// ShowGetter and InstanceGetter are the read slices of the show and
// instance repositories the signup gate depends on.
type ShowGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.Show, error)
}

type InstanceGetter interface {
	GetByID(ctx context.Context, id uint64) (*model.ShowInstance, error)
}

// SignupStore is the write slice of the signup repository. Create must
// enforce the (comedian_id, show_instance_id) unique key and return
// repository.ErrDuplicateSignup when it trips.
type SignupStore interface {
	Create(ctx context.Context, s *model.Signup) error
	GetByID(ctx context.Context, id uint64) (*model.Signup, error)
	Delete(ctx context.Context, id uint64) error
	CountForInstance(ctx context.Context, instanceID uint64) (int, error)
}

// InstanceStatus is the computed signup state of one instance at a
// given moment, ready for handlers to serialize.
type InstanceStatus struct {
	Window      schedule.Window
	Status      schedule.Status
	SignupCount int
	MaxSignups  int
	CanSignup   bool
}

// SignupService gates signups on window, capacity and cancellation
// state. Now is injected so tests can pin the clock; production wiring
// passes time.Now.
type SignupService struct {
	Shows     ShowGetter
	Instances InstanceGetter
	Signups   SignupStore
	Roles     *RoleResolver
	Now       func() time.Time
	Log       *zap.SugaredLogger
}

func NewSignupService(shows ShowGetter, instances InstanceGetter, signups SignupStore, roles *RoleResolver, log *zap.SugaredLogger) *SignupService {
	return &SignupService{
		Shows:     shows,
		Instances: instances,
		Signups:   signups,
		Roles:     roles,
		Now:       time.Now,
		Log:       log,
	}
}

// StatusFor computes the current signup status of an instance.
func (s *SignupService) StatusFor(ctx context.Context, show *model.Show, inst *model.ShowInstance) (InstanceStatus, error) {
	win, err := schedule.WindowFor(show, inst)
	if err != nil {
		return InstanceStatus{}, err
	}
	count, err := s.Signups.CountForInstance(ctx, inst.ID)
	if err != nil {
		return InstanceStatus{}, err
	}
	max := inst.EffectiveMaxSignups(show)
	status := win.Status(s.Now().UTC())
	return InstanceStatus{
		Window:      win,
		Status:      status,
		SignupCount: count,
		MaxSignups:  max,
		CanSignup:   !inst.IsCancelled && status == schedule.StatusOpen && count < max,
	}, nil
}

// SignUp adds a registered performer to the instance lineup. The
// instance must not be cancelled, the window must be open and the
// lineup must have room. Duplicate signups surface the repository's
// sentinel unchanged.
//
// The capacity check and the insert are not one atomic step; two
// racers at the last slot can both pass the count. The overshoot is at
// most the number of concurrent racers and hosts resolve it from the
// lineup view, so the simpler read-then-insert is kept.
func (s *SignupService) SignUp(ctx context.Context, userID, instanceID uint64) (*model.Signup, error) {
	inst, show, err := s.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.IsCancelled {
		return nil, ErrInstanceCancelled
	}

	win, err := schedule.WindowFor(show, inst)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	switch win.Status(now) {
	case schedule.StatusNotOpen:
		return nil, ErrSignupsNotOpen
	case schedule.StatusClosed:
		return nil, ErrSignupsClosed
	}

	count, err := s.Signups.CountForInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if count >= inst.EffectiveMaxSignups(show) {
		return nil, ErrShowFull
	}

	sg := &model.Signup{
		Performer:      model.RegisteredPerformer(userID),
		ShowInstanceID: instanceID,
		SignupTime:     now,
	}
	if err := s.Signups.Create(ctx, sg); err != nil {
		return nil, err
	}
	s.notify(show, inst, sg, count+1)
	return sg, nil
}

// AddWalkin lets a lineup manager add a performer without an account.
// Walk-ins bypass the window and capacity gates: the host is standing
// in the room deciding who goes up, which overrides the advance rules.
func (s *SignupService) AddWalkin(ctx context.Context, hostID, instanceID uint64, name string) (*model.Signup, error) {
	if name == "" {
		return nil, ErrWalkinNameRequired
	}
	inst, show, err := s.load(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.IsCancelled {
		return nil, ErrInstanceCancelled
	}
	if err := s.requireLineupManager(ctx, hostID, show, inst); err != nil {
		return nil, err
	}

	sg := &model.Signup{
		Performer:      model.WalkinPerformer(name),
		ShowInstanceID: instanceID,
		SignupTime:     s.Now().UTC(),
	}
	if err := s.Signups.Create(ctx, sg); err != nil {
		return nil, err
	}
	count, err := s.Signups.CountForInstance(ctx, instanceID)
	if err != nil {
		count = 0
	}
	s.notify(show, inst, sg, count)
	return sg, nil
}

// CancelSignup removes a signup. A registered performer may remove
// their own; lineup managers may remove anyone's, including walk-ins.
func (s *SignupService) CancelSignup(ctx context.Context, callerID, signupID uint64) error {
	sg, err := s.Signups.GetByID(ctx, signupID)
	if err != nil {
		return err
	}
	if owner, ok := sg.Performer.Registered(); !ok || owner != callerID {
		inst, show, err := s.load(ctx, sg.ShowInstanceID)
		if err != nil {
			return err
		}
		if err := s.requireLineupManager(ctx, callerID, show, inst); err != nil {
			return err
		}
	}
	return s.Signups.Delete(ctx, signupID)
}

func (s *SignupService) load(ctx context.Context, instanceID uint64) (*model.ShowInstance, *model.Show, error) {
	inst, err := s.Instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}
	show, err := s.Shows.GetByID(ctx, inst.ShowID)
	if err != nil {
		return nil, nil, err
	}
	return inst, show, nil
}

func (s *SignupService) requireLineupManager(ctx context.Context, userID uint64, show *model.Show, inst *model.ShowInstance) error {
	role, err := s.Roles.RoleForInstance(ctx, userID, show, inst.ID)
	if err != nil {
		return err
	}
	if !role.CanManageLineup() {
		return ErrNotAuthorized
	}
	return nil
}

// notify publishes the confirmation event fire-and-forget. A broker
// outage must never fail a signup that already committed.
func (s *SignupService) notify(show *model.Show, inst *model.ShowInstance, sg *model.Signup, count int) {
	name := sg.Performer.DisplayName()
	_, walkin := sg.Performer.Walkin()
	ev := queue.SignupConfirmedEvent{
		SignupID:      sg.ID,
		ShowID:        show.ID,
		ShowName:      show.Name,
		Venue:         show.Venue,
		InstanceID:    inst.ID,
		InstanceDate:  inst.InstanceDate.Format("2006-01-02"),
		PerformerName: name,
		Walkin:        walkin,
		SignupCount:   count,
		MaxSignups:    inst.EffectiveMaxSignups(show),
		SignedUpAt:    sg.SignupTime.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.PublishSignupConfirmed(ctx, ev); err != nil && s.Log != nil {
			s.Log.Warnw("signup event publish failed", "signup_id", sg.ID, "error", err)
		}
	}()
}
