package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
	"github.com/openmicnights/openmic/internal/repository"
)

type fakeShowGetter struct{ show *model.Show }

func (f *fakeShowGetter) GetByID(_ context.Context, id uint64) (*model.Show, error) {
	if f.show == nil || f.show.ID != id {
		return nil, repository.ErrShowNotFound
	}
	return f.show, nil
}

type fakeInstanceGetter struct{ inst *model.ShowInstance }

func (f *fakeInstanceGetter) GetByID(_ context.Context, id uint64) (*model.ShowInstance, error) {
	if f.inst == nil || f.inst.ID != id {
		return nil, repository.ErrInstanceNotFound
	}
	return f.inst, nil
}

type fakeSignupStore struct {
	signups map[uint64]*model.Signup
	nextID  uint64
}

func newFakeSignupStore() *fakeSignupStore {
	return &fakeSignupStore{signups: map[uint64]*model.Signup{}}
}

func (f *fakeSignupStore) Create(_ context.Context, s *model.Signup) error {
	if userID, ok := s.Performer.Registered(); ok {
		for _, existing := range f.signups {
			if id, reg := existing.Performer.Registered(); reg && id == userID &&
				existing.ShowInstanceID == s.ShowInstanceID {
				return repository.ErrDuplicateSignup
			}
		}
	}
	f.nextID++
	s.ID = f.nextID
	f.signups[s.ID] = s
	return nil
}

func (f *fakeSignupStore) GetByID(_ context.Context, id uint64) (*model.Signup, error) {
	s, ok := f.signups[id]
	if !ok {
		return nil, repository.ErrSignupNotFound
	}
	return s, nil
}

func (f *fakeSignupStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.signups[id]; !ok {
		return repository.ErrSignupNotFound
	}
	delete(f.signups, id)
	return nil
}

func (f *fakeSignupStore) CountForInstance(_ context.Context, instanceID uint64) (int, error) {
	n := 0
	for _, s := range f.signups {
		if s.ShowInstanceID == instanceID {
			n++
		}
	}
	return n, nil
}

// gateFixture wires a SignupService around one show/instance pair with
// a pinned clock. The show is owned by user 10; signups open two days
// before the 2024-01-15 19:30 UTC start and close at start.
func gateFixture(t *testing.T) (*SignupService, *fakeSignupStore, *model.ShowInstance) {
	t.Helper()
	open, closed := 2880, 0
	show := &model.Show{
		ID:            1,
		Name:          "Monday Mic",
		Venue:         "The Cellar",
		OwnerID:       10,
		DayOfWeek:     "Monday",
		StartTime:     "19:30:00",
		RepeatCadence: model.CadenceWeekly,
		StartedDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxSignups:    2,
		SignupsOpen:   &open,
		SignupsClosed: &closed,
	}
	inst := &model.ShowInstance{
		ID:           7,
		ShowID:       1,
		InstanceDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	store := newFakeSignupStore()
	roles := NewRoleResolver(&fakeRoleSource{})
	svc := NewSignupService(&fakeShowGetter{show: show}, &fakeInstanceGetter{inst: inst}, store, roles, nil)
	svc.Now = func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc, store, inst
}

func TestSignUpInsideWindow(t *testing.T) {
	svc, store, _ := gateFixture(t)

	sg, err := svc.SignUp(context.Background(), 100, 7)
	require.NoError(t, err)
	assert.NotZero(t, sg.ID)
	userID, ok := sg.Performer.Registered()
	require.True(t, ok)
	assert.Equal(t, uint64(100), userID)

	count, err := store.CountForInstance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSignUpBeforeWindowOpens(t *testing.T) {
	svc, _, _ := gateFixture(t)
	svc.Now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }

	_, err := svc.SignUp(context.Background(), 100, 7)
	assert.ErrorIs(t, err, ErrSignupsNotOpen)
}

func TestSignUpAfterWindowCloses(t *testing.T) {
	svc, _, _ := gateFixture(t)
	svc.Now = func() time.Time { return time.Date(2024, 1, 15, 19, 30, 1, 0, time.UTC) }

	_, err := svc.SignUp(context.Background(), 100, 7)
	assert.ErrorIs(t, err, ErrSignupsClosed)
}

func TestSignUpFullShow(t *testing.T) {
	svc, _, _ := gateFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, 100, 7)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, 101, 7)
	require.NoError(t, err)

	// Capacity gates even though the window is still open.
	_, err = svc.SignUp(ctx, 102, 7)
	assert.ErrorIs(t, err, ErrShowFull)
}

func TestSignUpDuplicate(t *testing.T) {
	svc, _, _ := gateFixture(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, 100, 7)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, 100, 7)
	assert.ErrorIs(t, err, repository.ErrDuplicateSignup)
}

func TestSignUpCancelledInstance(t *testing.T) {
	svc, _, inst := gateFixture(t)
	inst.Cancel("venue flooded", svc.Now())

	_, err := svc.SignUp(context.Background(), 100, 7)
	assert.ErrorIs(t, err, ErrInstanceCancelled)
}

func TestAddWalkinBypassesWindowAndCapacity(t *testing.T) {
	svc, store, _ := gateFixture(t)
	ctx := context.Background()

	// Fill the show, then move past close; the owner can still add.
	_, err := svc.SignUp(ctx, 100, 7)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, 101, 7)
	require.NoError(t, err)
	svc.Now = func() time.Time { return time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC) }

	sg, err := svc.AddWalkin(ctx, 10, 7, "Surprise Guest")
	require.NoError(t, err)
	name, ok := sg.Performer.Walkin()
	require.True(t, ok)
	assert.Equal(t, "Surprise Guest", name)

	count, err := store.CountForInstance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestAddWalkinRequiresManager(t *testing.T) {
	svc, _, _ := gateFixture(t)

	_, err := svc.AddWalkin(context.Background(), 999, 7, "Surprise Guest")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAddWalkinRequiresName(t *testing.T) {
	svc, _, _ := gateFixture(t)

	_, err := svc.AddWalkin(context.Background(), 10, 7, "")
	assert.ErrorIs(t, err, ErrWalkinNameRequired)
}

func TestCancelSignupPermissions(t *testing.T) {
	svc, store, _ := gateFixture(t)
	ctx := context.Background()

	sg, err := svc.SignUp(ctx, 100, 7)
	require.NoError(t, err)

	// A stranger cannot remove it.
	err = svc.CancelSignup(ctx, 999, sg.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// The performer can.
	require.NoError(t, svc.CancelSignup(ctx, 100, sg.ID))
	_, err = store.GetByID(ctx, sg.ID)
	assert.ErrorIs(t, err, repository.ErrSignupNotFound)

	// The owner can remove someone else's.
	sg2, err := svc.SignUp(ctx, 101, 7)
	require.NoError(t, err)
	require.NoError(t, svc.CancelSignup(ctx, 10, sg2.ID))
}

func TestStatusFor(t *testing.T) {
	svc, _, inst := gateFixture(t)
	ctx := context.Background()
	show, err := svc.Shows.GetByID(ctx, 1)
	require.NoError(t, err)

	st, err := svc.StatusFor(ctx, show, inst)
	require.NoError(t, err)
	assert.Equal(t, 0, st.SignupCount)
	assert.Equal(t, 2, st.MaxSignups)
	assert.True(t, st.CanSignup)

	_, err = svc.SignUp(ctx, 100, 7)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, 101, 7)
	require.NoError(t, err)

	st, err = svc.StatusFor(ctx, show, inst)
	require.NoError(t, err)
	assert.Equal(t, 2, st.SignupCount)
	assert.False(t, st.CanSignup)
}
