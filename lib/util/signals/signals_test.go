package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterNilHandlerIgnored(t *testing.T) {
	before := len(interrupters)
	RegisterInterruptHandler(nil)
	assert.Equal(t, before, len(interrupters))
}

func TestHandleInterruptedRunsAllHandlers(t *testing.T) {
	var calls []int
	RegisterInterruptHandler(func() { calls = append(calls, 1) })
	RegisterInterruptHandler(func() { panic("handler panic must not stop dispatch") })
	RegisterInterruptHandler(func() { calls = append(calls, 2) })

	handleInterrupted()
	assert.Equal(t, []int{1, 2}, calls)
}
