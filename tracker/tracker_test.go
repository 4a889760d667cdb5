package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

var (
	initProc = &types.ProcessInfo{Pid: 1, Name: "init", StartTime: 10}
	sshd     = &types.ProcessInfo{Pid: 100, Name: "sshd", StartTime: 20}
	bash     = &types.ProcessInfo{Pid: 200, Name: "bash", Uid: 500, StartTime: 30}
	vim      = &types.ProcessInfo{Pid: 300, Name: "vim", Uid: 500, StartTime: 40}
)

func pids(infos []*types.ProcessInfo) []int {
	result := []int{}
	for _, info := range infos {
		result = append(result, info.Pid)
	}
	return result
}

func TestFirstRefreshAddsEverything(t *testing.T) {
	ctx := context.Background()
	mock := sources.NewMockDataSource(
		[]*types.ProcessInfo{bash, initProc, sshd})
	tracker := NewPopulationTracker(mock)

	changed, err := tracker.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1, 100, 200}, pids(tracker.Added()))
	assert.Empty(t, tracker.Removed())
	assert.Equal(t, []int{1, 100, 200}, pids(tracker.Members()))
	assert.Equal(t, []int{1, 100, 200}, tracker.Pids())
	assert.Equal(t, 3, tracker.Len())
}

func TestIdempotentRefresh(t *testing.T) {
	ctx := context.Background()
	mock := sources.NewMockDataSource(
		[]*types.ProcessInfo{initProc, sshd, bash})
	tracker := NewPopulationTracker(mock)

	_, err := tracker.Refresh(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		changed, err := tracker.Refresh(ctx)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, tracker.Added())
		assert.Empty(t, tracker.Removed())
		assert.Equal(t, 3, tracker.Len())
	}
}

func TestExitAndStart(t *testing.T) {
	ctx := context.Background()

	// Same pid with new attributes is the same process.
	bash_updated := bash.Copy()
	bash_updated.CPUSec = 12

	mock := sources.NewMockDataSource(
		[]*types.ProcessInfo{initProc, sshd, bash},
		[]*types.ProcessInfo{initProc, bash_updated, vim},
	)
	tracker := NewPopulationTracker(mock)

	_, err := tracker.Refresh(ctx)
	require.NoError(t, err)

	changed, err := tracker.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{300}, pids(tracker.Added()))
	assert.Equal(t, []int{100}, pids(tracker.Removed()))
	assert.Equal(t, []int{1, 200, 300}, pids(tracker.Members()))

	info, pres := tracker.Get(200)
	assert.True(t, pres)
	assert.Equal(t, int64(12), info.CPUSec)

	_, pres = tracker.Get(100)
	assert.False(t, pres)
}

func TestFailedRefreshKeepsState(t *testing.T) {
	ctx := context.Background()
	mock := sources.NewMockDataSource(
		[]*types.ProcessInfo{initProc, sshd})
	tracker := NewPopulationTracker(mock)

	_, err := tracker.Refresh(ctx)
	require.NoError(t, err)

	mock.SetError(errors.New("connection refused"))
	changed, err := tracker.Refresh(ctx)
	assert.True(t, utils.IsTransportError(err))
	assert.False(t, changed)
	assert.Equal(t, []int{1, 100}, tracker.Pids())
	assert.Equal(t, []int{1, 100}, pids(tracker.Added()))
}

func TestDuplicatePids(t *testing.T) {
	ctx := context.Background()
	renamed := sshd.Copy()
	renamed.Name = "sshd: user"

	mock := sources.NewMockDataSource(
		[]*types.ProcessInfo{sshd, renamed})
	tracker := NewPopulationTracker(mock)

	_, err := tracker.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, tracker.Len())

	info, _ := tracker.Get(100)
	assert.Equal(t, "sshd: user", info.Name)
}

func TestPidReuse(t *testing.T) {
	ctx := context.Background()
	reused := sshd.Copy()
	reused.Name = "nginx"
	reused.StartTime = 99

	snapshots := [][]*types.ProcessInfo{
		{initProc, sshd},
		{initProc, reused},
	}

	// By default a reused pid looks like the same process.
	tracker := NewPopulationTracker(sources.NewMockDataSource(snapshots...))
	_, _ = tracker.Refresh(ctx)
	changed, err := tracker.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	tracker = NewPopulationTracker(sources.NewMockDataSource(snapshots...),
		WithPidReuseDetection())
	_, _ = tracker.Refresh(ctx)
	changed, err = tracker.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{100}, pids(tracker.Added()))
	assert.Equal(t, []int{100}, pids(tracker.Removed()))
	assert.Equal(t, "sshd", tracker.Removed()[0].Name)
	assert.Equal(t, "nginx", tracker.Added()[0].Name)
}
