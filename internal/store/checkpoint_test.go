package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/model"
)

func TestCheckpointStore(t *testing.T) {
	t.Run("absent checkpoint loads as nil", func(t *testing.T) {
		s := NewCheckpointStore(t.TempDir())

		cp, err := s.Load("farm")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("save then load round trips", func(t *testing.T) {
		s := NewCheckpointStore(t.TempDir())
		require.NoError(t, s.Save(model.FarmCheckpoint{JobKind: "farm", NextIndex: 42}))

		cp, err := s.Load("farm")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, 42, cp.NextIndex)
	})

	t.Run("clear discards the checkpoint", func(t *testing.T) {
		s := NewCheckpointStore(t.TempDir())
		require.NoError(t, s.Save(model.FarmCheckpoint{JobKind: "farm", NextIndex: 7}))
		require.NoError(t, s.Clear("farm"))

		cp, err := s.Load("farm")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("clear without checkpoint is a no-op", func(t *testing.T) {
		s := NewCheckpointStore(t.TempDir())
		assert.NoError(t, s.Clear("farm"))
	})

	t.Run("job kinds are independent", func(t *testing.T) {
		s := NewCheckpointStore(t.TempDir())
		require.NoError(t, s.Save(model.FarmCheckpoint{JobKind: "farm", NextIndex: 3}))

		cp, err := s.Load("other")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})
}
