package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupManagerReverseOrder(t *testing.T) {
	cm := NewCleanupManager(time.Second, discardLogger())

	var order []string
	cm.RegisterFunc("first", func() error { order = append(order, "first"); return nil })
	cm.RegisterFunc("second", func() error { order = append(order, "second"); return nil })

	require.NoError(t, cm.Execute())
	assert.Equal(t, []string{"second", "first"}, order)

	require.NoError(t, cm.Execute())
	assert.Len(t, order, 2, "resources are closed once")
}

func TestCleanupManagerCollectsErrors(t *testing.T) {
	cm := NewCleanupManager(time.Second, discardLogger())
	boom := errors.New("boom")
	cm.RegisterFunc("ok", func() error { return nil })
	cm.RegisterFunc("bad", func() error { return boom })
	cm.RegisterFunc("panics", func() error { panic("oops") })

	err := cm.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "panics: panic during cleanup")
}

func TestCleanupManagerTimeout(t *testing.T) {
	cm := NewCleanupManager(20*time.Millisecond, discardLogger())
	release := make(chan struct{})
	defer close(release)
	cm.RegisterFunc("stuck", func() error { <-release; return nil })

	assert.ErrorIs(t, cm.Execute(), ErrCleanupTimeout)
}

func TestCleanupManagerEmpty(t *testing.T) {
	assert.NoError(t, NewCleanupManager(0, nil).Execute())
}
