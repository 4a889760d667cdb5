package utils

import (
	"testing"

	"www.velocidex.com/golang/procwatch/vtesting/assert"
)

func TestElide(t *testing.T) {
	assert.Equal(t, "sshd", Elide("sshd", 10))
	assert.Equal(t, "/usr/sbin ...", Elide("/usr/sbin/sshd -D", 9))
}

func TestCheckForPanic(t *testing.T) {
	recovered := func() (result bool) {
		defer func() { result = true }()
		defer CheckForPanic("test %v", 1)
		panic("boom")
	}()
	assert.True(t, recovered)
}
