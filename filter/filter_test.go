package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/tracker"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

func pids(infos []*types.ProcessInfo) []int {
	result := []int{}
	for _, info := range infos {
		result = append(result, info.Pid)
	}
	return result
}

type FilterTestSuite struct {
	suite.Suite

	ctx     context.Context
	mock    *sources.MockDataSource
	tracker *tracker.PopulationTracker
}

func (self *FilterTestSuite) SetupTest() {
	self.ctx = context.Background()
	self.mock = sources.NewMockDataSource([]*types.ProcessInfo{
		{Pid: 1, Name: "init", Uid: 0, TaskId: 1, ContractId: 1},
		{Pid: 100, Name: "sshd", Uid: 0, TaskId: 100, ContractId: 100},
		{Pid: 200, Name: "bash", Uid: 500, TaskId: 200, ContractId: 100,
			ProjectId: 3},
	})
	self.tracker = tracker.NewPopulationTracker(self.mock)
}

// Every output member must be a tracker member.
func (self *FilterTestSuite) checkSubset(filter *Filter) {
	members := make(map[int]bool)
	for _, pid := range self.tracker.Pids() {
		members[pid] = true
	}
	for _, info := range filter.Members() {
		assert.True(self.T(), members[info.Pid], "pid %v", info.Pid)
	}
}

func (self *FilterTestSuite) TestUserFilter() {
	filter := NewFilter(self.tracker)

	filter.SetUser(500)
	changed, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.True(self.T(), changed)
	assert.Equal(self.T(), []int{200}, pids(filter.Members()))
	self.checkSubset(filter)

	filter.UnsetUser()
	changed, err = filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.True(self.T(), changed)
	assert.Equal(self.T(), []int{1, 100, 200}, pids(filter.Members()))
	assert.Equal(self.T(), self.tracker.Pids(), pids(filter.Members()))

	// Only the predicate changed, the tracker saw nothing new.
	assert.Empty(self.T(), self.tracker.Added())
	assert.Equal(self.T(), []int{1, 100}, pids(filter.Added()))
	assert.Empty(self.T(), filter.Removed())
}

func (self *FilterTestSuite) TestMutatorsDoNotRefresh() {
	filter := NewFilter(self.tracker)
	_, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), 3, filter.Len())

	filter.SetPid(100)
	assert.Equal(self.T(), 3, filter.Len())
	assert.Equal(self.T(), 1, self.mock.Calls("getProcesses"))

	_, err = filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []int{100}, pids(filter.Members()))
	assert.Equal(self.T(), []int{1, 200}, pids(filter.Removed()))
	assert.True(self.T(), filter.Contains(100))
	assert.False(self.T(), filter.Contains(1))
}

func (self *FilterTestSuite) TestConjunction() {
	filter := NewFilter(self.tracker)
	filter.SetContract(100)
	filter.SetUser(0)

	_, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []int{100}, pids(filter.Members()))
	assert.Equal(self.T(), "uid=0 contract=100", filter.String())

	filter.UnsetUser()
	filter.UnsetContract()
	filter.SetProject(3)
	filter.SetTask(200)
	filter.SetZone(0)
	_, err = filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []int{200}, pids(filter.Members()))

	filter.SetZone(1)
	_, err = filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Empty(self.T(), filter.Members())

	filter.UnsetZone()
	filter.UnsetTask()
	filter.UnsetProject()
	assert.Equal(self.T(), "all", filter.String())
}

func (self *FilterTestSuite) TestExitedMembersDropOut() {
	self.mock.AddSnapshot([]*types.ProcessInfo{
		{Pid: 1, Name: "init"},
		{Pid: 300, Name: "vim", Uid: 500},
	})

	filter := NewFilter(self.tracker)
	filter.SetUser(500)

	_, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), []int{200}, pids(filter.Members()))

	changed, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.True(self.T(), changed)
	assert.Equal(self.T(), []int{300}, pids(filter.Members()))
	assert.Equal(self.T(), []int{300}, pids(filter.Added()))
	assert.Equal(self.T(), []int{200}, pids(filter.Removed()))
	self.checkSubset(filter)
}

func (self *FilterTestSuite) TestSharedTracker() {
	root := NewFilter(self.tracker)
	root.SetUser(0)
	user := NewFilter(self.tracker)
	user.SetUser(500)

	_, err := self.tracker.Refresh(self.ctx)
	require.NoError(self.T(), err)

	assert.True(self.T(), root.RefreshView())
	assert.True(self.T(), user.RefreshView())
	assert.Equal(self.T(), []int{1, 100}, pids(root.Members()))
	assert.Equal(self.T(), []int{200}, pids(user.Members()))

	// Nothing changed since the last evaluation.
	assert.False(self.T(), root.RefreshView())
	assert.Equal(self.T(), 1, self.mock.Calls("getProcesses"))
}

func (self *FilterTestSuite) TestTransportFailure() {
	filter := NewFilter(self.tracker)
	_, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)

	self.mock.SetError(errors.New("broken pipe"))
	filter.SetUser(500)
	changed, err := filter.Refresh(self.ctx)
	assert.True(self.T(), utils.IsTransportError(err))
	assert.False(self.T(), changed)
	assert.Equal(self.T(), 3, filter.Len())
}

func (self *FilterTestSuite) TestProcessFilter() {
	info := &types.ProcessInfo{Pid: 42, Name: "cron"}
	filter := NewProcessFilter(info)

	filter.SetUser(500)
	changed, err := filter.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.False(self.T(), changed)
	assert.False(self.T(), filter.RefreshView())
	assert.Equal(self.T(), []int{42}, pids(filter.Members()))
	assert.Empty(self.T(), filter.Added())
	assert.Empty(self.T(), filter.Removed())
	assert.Equal(self.T(), "pid=42", filter.String())
}

func (self *FilterTestSuite) TestNilInputsGiveEmptyViews() {
	empty := NewProcessFilter(nil)
	changed, err := empty.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.False(self.T(), changed)
	assert.False(self.T(), empty.RefreshView())
	assert.Equal(self.T(), 0, empty.Len())
	assert.False(self.T(), empty.Contains(0))
	assert.Equal(self.T(), "none", empty.String())

	detached := NewFilter(nil)
	changed, err = detached.Refresh(self.ctx)
	require.NoError(self.T(), err)
	assert.False(self.T(), changed)
	assert.False(self.T(), detached.RefreshView())
	assert.Empty(self.T(), detached.Members())
}

func TestFilter(t *testing.T) {
	suite.Run(t, &FilterTestSuite{})
}
