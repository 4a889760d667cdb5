package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitSeconds(t *testing.T) {
	sec, nsec := SplitSeconds(12.5)
	assert.Equal(t, int64(12), sec)
	assert.Equal(t, int64(500000000), nsec)

	sec, nsec = SplitSeconds(-3)
	assert.Equal(t, int64(0), sec)
	assert.Equal(t, int64(0), nsec)

	// Rounding must never leave a full second in the remainder.
	sec, nsec = SplitSeconds(0.9999999999)
	assert.Equal(t, int64(1), sec)
	assert.Equal(t, int64(0), nsec)

	sec, nsec = SplitDuration(2*time.Second + 7*time.Millisecond)
	assert.Equal(t, int64(2), sec)
	assert.Equal(t, int64(7000000), nsec)

	assert.Equal(t, 1.5, JoinSeconds(1, 500000000))
}

func TestIdentity(t *testing.T) {
	a := &ProcessInfo{Pid: 100, Name: "sshd", StartTime: 10}
	b := &ProcessInfo{Pid: 100, Name: "sshd: session", StartTime: 10, Uid: 500}
	c := &ProcessInfo{Pid: 100, Name: "bash", StartTime: 20}

	assert.True(t, a.SameIdentity(b))
	assert.True(t, a.SameIncarnation(b))
	assert.True(t, a.SameIdentity(c))
	assert.False(t, a.SameIncarnation(c))
	assert.False(t, a.SameIdentity(nil))

	copied := a.Copy()
	copied.Name = "changed"
	assert.Equal(t, "sshd", a.Name)
	assert.Equal(t, "sshd (100)", a.String())

	info := &ProcessInfo{CPUSec: 2, CPUNsec: 250000000}
	assert.Equal(t, 2.25, info.CPUTime())
}

func TestThreadRef(t *testing.T) {
	ref := &ThreadRef{Pid: 10, LwpId: 3}
	assert.Equal(t, ThreadKey{Pid: 10, LwpId: 3}, ref.Key())
	assert.Equal(t, "10/3", ref.String())
}
