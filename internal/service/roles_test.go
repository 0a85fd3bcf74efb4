package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmicnights/openmic/internal/model"
)

type fakeRoleSource struct {
	runners       map[uint64]bool // userID -> runner on the one show
	hosts         map[uint64]bool
	instanceHosts map[uint64]map[uint64]bool // userID -> instanceID -> hosting
}

func (f *fakeRoleSource) RolesFor(_ context.Context, userID, _ uint64) (model.RoleSet, error) {
	return model.RoleSet{IsRunner: f.runners[userID], IsHost: f.hosts[userID]}, nil
}

func (f *fakeRoleSource) IsInstanceHost(_ context.Context, userID, instanceID uint64) (bool, error) {
	return f.instanceHosts[userID][instanceID], nil
}

func TestRoleForShowPrecedence(t *testing.T) {
	show := &model.Show{ID: 1, OwnerID: 10}
	src := &fakeRoleSource{
		// User 10 is also a runner and host; owner must win.
		runners: map[uint64]bool{10: true, 20: true},
		hosts:   map[uint64]bool{10: true, 20: true, 30: true},
	}
	r := NewRoleResolver(src)
	ctx := context.Background()

	cases := []struct {
		userID uint64
		want   Role
	}{
		{10, RoleOwner},
		{20, RoleRunner}, // runner outranks host
		{30, RoleHost},
		{40, RoleComedian},
	}
	for _, tc := range cases {
		got, err := r.RoleForShow(ctx, tc.userID, show)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "user %d", tc.userID)
	}
}

func TestRoleForInstanceHostGrant(t *testing.T) {
	show := &model.Show{ID: 1, OwnerID: 10}
	src := &fakeRoleSource{
		runners:       map[uint64]bool{20: true},
		hosts:         map[uint64]bool{},
		instanceHosts: map[uint64]map[uint64]bool{40: {7: true}},
	}
	r := NewRoleResolver(src)
	ctx := context.Background()

	// A plain comedian hosting this one instance becomes host here only.
	got, err := r.RoleForInstance(ctx, 40, show, 7)
	require.NoError(t, err)
	assert.Equal(t, RoleHost, got)

	got, err = r.RoleForInstance(ctx, 40, show, 8)
	require.NoError(t, err)
	assert.Equal(t, RoleComedian, got)

	// Show-wide roles are unaffected by instance hosting.
	got, err = r.RoleForInstance(ctx, 20, show, 7)
	require.NoError(t, err)
	assert.Equal(t, RoleRunner, got)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleOwner.CanEditShow())
	assert.True(t, RoleRunner.CanEditShow())
	assert.False(t, RoleHost.CanEditShow())
	assert.False(t, RoleComedian.CanEditShow())

	assert.True(t, RoleOwner.CanManageLineup())
	assert.True(t, RoleRunner.CanManageLineup())
	assert.True(t, RoleHost.CanManageLineup())
	assert.False(t, RoleComedian.CanManageLineup())
}
