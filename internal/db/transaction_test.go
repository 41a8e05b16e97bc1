package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedResultManager struct {
	result interface{}
}

func (f *fixedResultManager) WithTransaction(ctx context.Context, _ func(sessCtx context.Context) (interface{}, error)) (interface{}, error) {
	return f.result, nil
}

func TestRunInTransaction(t *testing.T) {
	tm := NewNoOpTransactionManager()

	t.Run("returns typed result", func(t *testing.T) {
		got, err := RunInTransaction(context.Background(), tm, func(ctx context.Context) (int, error) {
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("propagates callback error", func(t *testing.T) {
		boom := errors.New("boom")
		got, err := RunInTransaction(context.Background(), tm, func(ctx context.Context) (*struct{}, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
		assert.Nil(t, got)
	})

	t.Run("nil result yields zero value", func(t *testing.T) {
		got, err := RunInTransaction(context.Background(), &fixedResultManager{}, func(ctx context.Context) (string, error) {
			return "ignored", nil
		})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("mismatched result type is an error", func(t *testing.T) {
		_, err := RunInTransaction(context.Background(), &fixedResultManager{result: "text"}, func(ctx context.Context) (int, error) {
			return 0, nil
		})
		require.Error(t, err)
	})
}

func TestAtomic(t *testing.T) {
	assert.False(t, Atomic(NewNoOpTransactionManager()))
	assert.True(t, Atomic(&fixedResultManager{}))
	assert.True(t, Atomic(NewMongoTransactionManager(nil)))
}
