package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Letdown2491/waypoint/pkg/waypointerr"
)

type fakeResolver struct {
	pid uint32
	err error
}

func (f *fakeResolver) ResolvePID(ctx context.Context, sender string) (uint32, error) {
	return f.pid, f.err
}

type fakeAgent struct {
	authorized bool
	err        error
	gotAction  string
}

func (f *fakeAgent) CheckAuthorization(ctx context.Context, pid uint32, startTime uint64, action string) (bool, error) {
	f.gotAction = action
	return f.authorized, f.err
}

// currentPID returns this test process's pid. processStartTime's /proc read
// is not overridable, so these tests exercise Checker against the current
// process instead of faking /proc.
func currentPID() uint32 {
	return uint32(os.Getpid())
}

func TestChecker_Check_Authorized(t *testing.T) {
	resolver := &fakeResolver{pid: currentPID()}
	agent := &fakeAgent{authorized: true}
	c := NewChecker(resolver, agent)

	err := c.Check(context.Background(), ":1.42", ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, agent.gotAction)
}

func TestChecker_Check_Denied(t *testing.T) {
	resolver := &fakeResolver{pid: currentPID()}
	agent := &fakeAgent{authorized: false}
	c := NewChecker(resolver, agent)

	err := c.Check(context.Background(), ":1.42", ActionDelete)
	require.Error(t, err)
	assert.Equal(t, waypointerr.AuthorizationDenied, waypointerr.KindOf(err))
}

func TestChecker_Check_ResolverFailure(t *testing.T) {
	resolver := &fakeResolver{err: assertErr}
	agent := &fakeAgent{authorized: true}
	c := NewChecker(resolver, agent)

	err := c.Check(context.Background(), ":1.42", ActionCreate)
	require.Error(t, err)
}

var assertErr = os.ErrNotExist

func TestProcessStartTime_RealProcSelf(t *testing.T) {
	if _, err := os.Stat(filepath.Join("/proc", "self", "stat")); err != nil {
		t.Skip("no /proc filesystem available")
	}
	_, err := processStartTime(currentPID())
	require.NoError(t, err)
}
