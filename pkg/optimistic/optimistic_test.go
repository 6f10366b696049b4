package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_CommitKeepsNewValue(t *testing.T) {
	var mu sync.Mutex
	status := "pending"

	err := Apply(context.Background(), &mu, &status, "processing", func(ctx context.Context) error {
		assert.Equal(t, "processing", status, "value is visible before persistence completes")
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "processing", status)
}

func TestApply_FailureRestoresSnapshot(t *testing.T) {
	var mu sync.Mutex
	status := "pending"
	sentinel := errors.New("network down")

	err := Apply(context.Background(), &mu, &status, "processing", func(ctx context.Context) error {
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "pending", status)
}

func TestUpdate_RollbackAfterCommitIsNoop(t *testing.T) {
	var mu sync.Mutex
	count := 1

	u := Begin(&mu, &count, 2)
	assert.Equal(t, 1, u.Previous())
	u.Commit()
	u.Rollback()

	assert.Equal(t, 2, count)
}

func TestUpdate_WorksWithStructs(t *testing.T) {
	type row struct {
		ID     string
		Status string
	}
	var mu sync.RWMutex
	r := row{ID: "m-1", Status: "pending"}

	u := Begin(&mu, &r.Status, "approved")
	u.Rollback()
	u.Rollback()

	assert.Equal(t, row{ID: "m-1", Status: "pending"}, r)
}

func TestUpdate_RollbackKeepsLaterChange(t *testing.T) {
	var mu sync.Mutex
	status := "pending"

	first := Begin(&mu, &status, "processing")
	second := Begin(&mu, &status, "approved")
	second.Commit()

	assert.False(t, first.Rollback(), "a newer committed value must survive")
	assert.Equal(t, "approved", status)
}

func TestUpdate_RollbackChainUnwinds(t *testing.T) {
	var mu sync.Mutex
	status := "pending"

	first := Begin(&mu, &status, "processing")
	second := Begin(&mu, &status, "approved")

	assert.True(t, second.Rollback())
	assert.Equal(t, "processing", status)
	assert.True(t, first.Rollback())
	assert.Equal(t, "pending", status)
}
