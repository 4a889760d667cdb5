package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/sources"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

type RegistryTestSuite struct {
	suite.Suite

	mock     *sources.MockDataSource
	registry *ProcessRegistry
	ctx      context.Context
}

func (self *RegistryTestSuite) SetupTest() {
	self.ctx = context.Background()
	self.mock = sources.NewMockDataSource([]*types.ProcessInfo{
		{Pid: 1, Name: "init", NumThreads: 1},
		{Pid: 100, Name: "sshd", NumThreads: 2},
	})
	self.mock.Users[0] = "root"
	self.mock.Threads[100] = []*types.ThreadRef{
		{Pid: 100, LwpId: 1}, {Pid: 100, LwpId: 2}}

	self.registry = NewRegistryForSource(self.mock)

	// Prime the mock so per pid calls see the snapshot.
	_, err := self.registry.ListProcesses(self.ctx)
	require.NoError(self.T(), err)
}

func (self *RegistryTestSuite) TearDownTest() {
	self.registry.Close()
}

func (self *RegistryTestSuite) TestPassThrough() {
	info, pres, err := self.registry.GetInfo(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), "sshd", info.Name)

	_, pres, err = self.registry.GetInfo(self.ctx, 555)
	require.NoError(self.T(), err)
	assert.False(self.T(), pres)

	refs, pres, err := self.registry.ListThreads(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Len(self.T(), refs, 2)

	_, pres, err = self.registry.GetThreadUsage(self.ctx, 100, 2)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)

	usage, pres, err := self.registry.GetUsage(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), 2, usage.Count)

	for i := 0; i < 2; i++ {
		_, _, err = self.registry.GetStatus(self.ctx, 1)
		require.NoError(self.T(), err)
	}
	assert.Equal(self.T(), 2, self.mock.Calls("getStatus"))
}

func (self *RegistryTestSuite) TestNamesAreCachedIdsAreNot() {
	for i := 0; i < 2; i++ {
		name, err := self.registry.UserName(self.ctx, 0)
		require.NoError(self.T(), err)
		assert.Equal(self.T(), "root", name)

		name, err = self.registry.UserName(self.ctx, 77)
		require.NoError(self.T(), err)
		assert.Equal(self.T(), "77", name)

		id, err := self.registry.UserId(self.ctx, "root")
		require.NoError(self.T(), err)
		assert.Equal(self.T(), 0, id)

		id, err = self.registry.ZoneId(self.ctx, "nowhere")
		require.NoError(self.T(), err)
		assert.Equal(self.T(), -1, id)
	}

	assert.Equal(self.T(), 2, self.mock.Calls("getUserName"))
	assert.Equal(self.T(), 2, self.mock.Calls("getUserId"))
	assert.Equal(self.T(), 2, self.mock.Calls("getZoneId"))
}

func (self *RegistryTestSuite) TestTransportFailure() {
	self.mock.SetError(context.DeadlineExceeded)

	_, _, err := self.registry.GetInfo(self.ctx, 1)
	assert.True(self.T(), utils.IsTransportError(err))

	_, err = self.registry.GroupName(self.ctx, 0)
	assert.True(self.T(), utils.IsTransportError(err))
}

func TestRegistry(t *testing.T) {
	suite.Run(t, &RegistryTestSuite{})
}

func TestUnsupportedProtocolFailsAtConstruction(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Backend.Protocol = "smoke-signals"

	_, err := NewProcessRegistry(context.Background(), config_obj)
	assert.True(t, utils.IsConfigurationError(err))
}

func TestRemoteRegistryConstruction(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Backend.Protocol = "xmlrpc"
	config_obj.Backend.Url = "http://127.0.0.1:1/RPC2"

	registry, err := NewProcessRegistry(context.Background(), config_obj)
	require.NoError(t, err)
	defer registry.Close()

	assert.Equal(t, sources.PROTOCOL_XMLRPC, registry.Protocol())
}
