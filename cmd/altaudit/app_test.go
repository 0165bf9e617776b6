package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAppCloseRunsClosersInReverse(t *testing.T) {
	var order []string
	a := &app{logger: zap.NewNop()}
	a.onClose(func() error { order = append(order, "pool"); return nil })
	a.onClose(func() error { order = append(order, "browser"); return nil })

	assert.NoError(t, a.Close())
	assert.Equal(t, []string{"browser", "pool"}, order)
}

func TestAppCloseIntoJoinsShutdownErrors(t *testing.T) {
	poolErr := errors.New("pool close failed")
	a := &app{logger: zap.NewNop()}
	a.onClose(func() error { return poolErr })

	runErr := errors.New("scan interrupted")
	err := runErr
	a.closeInto(&err)

	assert.ErrorIs(t, err, runErr)
	assert.ErrorIs(t, err, poolErr)
	assert.Contains(t, err.Error(), "shutdown")
}

func TestAppCloseIntoKeepsNilWhenClean(t *testing.T) {
	a := &app{logger: zap.NewNop()}
	a.onClose(func() error { return nil })

	var err error
	a.closeInto(&err)
	assert.NoError(t, err)
}
