package sources

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/procwatch/codec"
	"www.velocidex.com/golang/procwatch/config"
	"www.velocidex.com/golang/procwatch/types"
	"www.velocidex.com/golang/procwatch/utils"
	"www.velocidex.com/golang/procwatch/vtesting"
	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

// Answers calls from a table keyed by "method/arg1/arg2".
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string]string
	fail      map[string]bool
	calls     []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		responses: make(map[string]string),
		fail:      make(map[string]bool),
	}
}

func (self *fakeTransport) Call(
	ctx context.Context, method string, args ...string) (string, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	key := strings.Join(append([]string{method}, args...), "/")
	self.calls = append(self.calls, key)

	if self.fail[key] {
		return "", utils.NewTransportError(method, errors.New("connection refused"))
	}
	return self.responses[key], nil
}

func (self *fakeTransport) Close() error {
	return nil
}

type RemoteTestSuite struct {
	suite.Suite

	transport *fakeTransport
	source    *RemoteSource
	ctx       context.Context
}

func (self *RemoteTestSuite) SetupTest() {
	config_obj := config.GetDefaultConfig()
	self.transport = newFakeTransport()
	self.source = NewRemoteSource(config_obj, PROTOCOL_JSON, self.transport)
	self.ctx = context.Background()
}

func (self *RemoteTestSuite) TestGetInfo() {
	self.transport.responses["getInfo/100"] = `{"pid":100,"fname":"sshd","uid":0}`
	self.transport.responses["getInfo/200"] = `[{"pid":200,"fname":"bash","uid":500}]`
	self.transport.responses["getInfo/300"] = `null`
	self.transport.responses["getInfo/400"] = `{"pid":`

	info, pres, err := self.source.GetInfo(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), "sshd", info.Name)

	info, pres, err = self.source.GetInfo(self.ctx, 200)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), 500, info.Uid)

	// Both null and a malformed payload are not found.
	for _, pid := range []int{300, 400, 500} {
		info, pres, err = self.source.GetInfo(self.ctx, pid)
		assert.NoError(self.T(), err)
		assert.False(self.T(), pres)
		assert.Nil(self.T(), info)
	}
}

func (self *RemoteTestSuite) TestMalformedPayloadIsObservable() {
	logs := vtesting.CaptureLogs()
	counter := decodeFailuresCounter.WithLabelValues(codec.KIND_PROCESS_INFO)
	before, err := utils.GetCounterValue(counter)
	require.NoError(self.T(), err)

	self.transport.responses["getInfo/400"] = `{"pid":`
	_, pres, err := self.source.GetInfo(self.ctx, 400)
	require.NoError(self.T(), err)
	assert.False(self.T(), pres)

	after, err := utils.GetCounterValue(counter)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), before+1, after)
	logs.Contains(self.T(), "getInfo: treating malformed payload as not found")
}

func (self *RemoteTestSuite) TestTransportFailure() {
	self.transport.fail["getStatus/100"] = true

	_, pres, err := self.source.GetStatus(self.ctx, 100)
	assert.False(self.T(), pres)
	assert.True(self.T(), utils.IsTransportError(err))
	assert.Contains(self.T(), err.Error(), "getStatus")

	self.transport.fail["getProcesses"] = true
	_, err = self.source.ListProcesses(self.ctx)
	assert.True(self.T(), utils.IsTransportError(err))
}

func (self *RemoteTestSuite) TestThreadArguments() {
	self.transport.responses["getLwpInfo/100/2"] = `{"pid":100,"lwpid":2,"stime":5}`
	self.transport.responses["getLwpStatus/100/2"] = `[{"pid":100,"lwpid":2,"utime":1}]`
	self.transport.responses["getLwpUsage/100/2"] = `{"lwpid":2,"count":1}`

	info, pres, err := self.source.GetThreadInfo(self.ctx, 100, 2)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), int64(5), info.StartTime)

	status, pres, err := self.source.GetThreadStatus(self.ctx, 100, 2)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), int64(1), status.UserSec)

	usage, pres, err := self.source.GetThreadUsage(self.ctx, 100, 2)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), 2, usage.LwpId)

	assert.Equal(self.T(), []string{
		"getLwpInfo/100/2", "getLwpStatus/100/2", "getLwpUsage/100/2",
	}, self.transport.calls)
}

func (self *RemoteTestSuite) TestStatusAndUsage() {
	self.transport.responses["getStatus/100"] = `{"lwpid":100,"utime":3,"cutime":4}`
	self.transport.responses["getUsage/100"] = `{"lwpid":0,"count":3,"sysc":99}`

	status, pres, err := self.source.GetStatus(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), &types.Status{Pid: 100, UserSec: 3, ChildUserSec: 4}, status)

	usage, pres, err := self.source.GetUsage(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), int64(99), usage.Syscalls)
}

func (self *RemoteTestSuite) TestListProcesses() {
	self.transport.responses["getProcesses"] = `[{"pid":1,"fname":"init"},{"pid":"x"},{"pid":100,"fname":"sshd"}]`

	result, err := self.source.ListProcesses(self.ctx)
	require.NoError(self.T(), err)
	assert.Len(self.T(), result, 2)

	// A broken listing is an empty snapshot rather than a failure.
	self.transport.responses["getProcesses"] = `{"pid":1}`
	result, err = self.source.ListProcesses(self.ctx)
	require.NoError(self.T(), err)
	assert.NotNil(self.T(), result)
	assert.Empty(self.T(), result)
}

func (self *RemoteTestSuite) TestListThreads() {
	self.transport.responses["getLwps/100"] = `[{"pid":100,"lwpid":1},{"pid":100,"lwpid":2}]`
	self.transport.responses["getLwps/200"] = `[]`
	self.transport.responses["getLwps/300"] = `null`

	refs, pres, err := self.source.ListThreads(self.ctx, 100)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Len(self.T(), refs, 2)

	refs, pres, err = self.source.ListThreads(self.ctx, 200)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Empty(self.T(), refs)

	_, pres, err = self.source.ListThreads(self.ctx, 300)
	require.NoError(self.T(), err)
	assert.False(self.T(), pres)
}

func (self *RemoteTestSuite) TestResolvers() {
	self.transport.responses["getUserName/0"] = `"root"`
	self.transport.responses["getUserName/42"] = `null`
	self.transport.responses["getUserId/root"] = `0`
	self.transport.responses["getUserId/nobody here"] = `-1`
	self.transport.responses["getZoneName/0"] = `["global"]`
	self.transport.responses["getZoneId/global"] = `[0]`
	self.transport.responses["getProjectName/3"] = `"default"`
	self.transport.responses["getGroupName/0"] = `42`

	name, pres, err := self.source.ResolveUserName(self.ctx, 0)
	require.NoError(self.T(), err)
	assert.True(self.T(), pres)
	assert.Equal(self.T(), "root", name)

	_, pres, err = self.source.ResolveUserName(self.ctx, 42)
	require.NoError(self.T(), err)
	assert.False(self.T(), pres)

	id, err := self.source.ResolveUserId(self.ctx, "root")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), 0, id)

	id, err = self.source.ResolveUserId(self.ctx, "nobody here")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), -1, id)

	name, _, err = self.source.ResolveZoneName(self.ctx, 0)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), "global", name)

	id, err = self.source.ResolveZoneId(self.ctx, "global")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), 0, id)

	name, _, err = self.source.ResolveProjectName(self.ctx, 3)
	require.NoError(self.T(), err)
	assert.Equal(self.T(), "default", name)

	// Unknown names have no payload at all.
	id, err = self.source.ResolveGroupId(self.ctx, "wheel")
	require.NoError(self.T(), err)
	assert.Equal(self.T(), -1, id)

	// A number where a name is expected is malformed.
	_, pres, err = self.source.ResolveGroupName(self.ctx, 0)
	require.NoError(self.T(), err)
	assert.False(self.T(), pres)
}

func TestRemoteSource(t *testing.T) {
	suite.Run(t, &RemoteTestSuite{})
}
