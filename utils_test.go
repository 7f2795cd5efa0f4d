package biomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPinID(t *testing.T) {
	a, err := NewPinID()
	require.NoError(t, err)
	b, err := NewPinID()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, IsPinID(a))
	assert.Less(t, a, b, "ids sort by creation time")

	assert.False(t, IsPinID("does-not-exist"))
	assert.False(t, IsPinID(""))
}
