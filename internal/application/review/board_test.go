package review

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/persistence/memory"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) TransitionStatus(ctx context.Context, merchantID string, target domainwf.State, actor entity.Actor) (*entity.Merchant, error) {
	args := m.Called(ctx, merchantID, target, actor)
	merchant, _ := args.Get(0).(*entity.Merchant)
	return merchant, args.Error(1)
}

func (m *mockEngine) StatusOptions(ctx context.Context, merchantID string) ([]domainwf.State, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).([]domainwf.State), args.Error(1)
}

func (m *mockEngine) GetCurrentState(ctx context.Context, merchantID string) (domainwf.State, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(domainwf.State), args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func seed(t *testing.T, repo *memory.MerchantRepository, status entity.Status, brand string) string {
	t.Helper()
	d := entity.NewDraft()
	d.Business["brandName"] = brand
	m := &entity.Merchant{Draft: d, Status: status}
	require.NoError(t, repo.Create(context.Background(), m))
	return m.ID
}

func TestBoard_UpdateStatus_Success(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusPending, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})
	actor := entity.Actor{UserID: "u-1"}

	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	engine.On("TransitionStatus", mock.Anything, id, domainwf.StateProcessing, actor).
		Run(func(args mock.Arguments) {
			listed, _ := board.Get(id)
			assert.Equal(t, entity.StatusProcessing, listed.Status, "list shows the new status while persisting")
		}).
		Return(&entity.Merchant{ID: id, Status: entity.StatusProcessing}, nil).
		Once()

	updated, err := board.UpdateStatus(context.Background(), id, domainwf.StateProcessing, actor)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, updated.Status)
	engine.AssertExpectations(t)
}

func TestBoard_UpdateStatus_RollbackOnPersistenceFailure(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusPending, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})
	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	sentinel := errors.New("write timed out")
	engine.On("TransitionStatus", mock.Anything, id, domainwf.StateProcessing, mock.Anything).
		Return(nil, sentinel).
		Once()

	_, err = board.UpdateStatus(context.Background(), id, domainwf.StateProcessing, entity.SystemActor)

	assert.ErrorIs(t, err, sentinel)
	listed, ok := board.Get(id)
	require.True(t, ok)
	assert.Equal(t, entity.StatusPending, listed.Status)
}

func TestBoard_UpdateStatus_IllegalTargetNeverPersists(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusRejected, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})

	_, err := board.UpdateStatus(context.Background(), id, domainwf.StateApproved, entity.SystemActor)

	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	engine.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_UpdateStatus_UnknownMerchant(t *testing.T) {
	board := NewBoard(memory.NewMerchantRepository(), &mockEngine{}, nopLogger{})

	_, err := board.UpdateStatus(context.Background(), "missing", domainwf.StateApproved, entity.SystemActor)

	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestBoard_Options(t *testing.T) {
	repo := memory.NewMerchantRepository()
	pending := seed(t, repo, entity.StatusPending, "Acme")
	rejected := seed(t, repo, entity.StatusRejected, "Globex")
	engine := &mockEngine{}
	engine.On("GetCurrentState", mock.Anything, pending).Return(domainwf.StatePending, nil)
	engine.On("GetCurrentState", mock.Anything, rejected).Return(domainwf.StateRejected, nil)
	board := NewBoard(repo, engine, nopLogger{})

	opts, err := board.Options(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, []domainwf.State{domainwf.StateProcessing, domainwf.StateApproved, domainwf.StateRejected, domainwf.StateOnboarded}, opts)

	opts, err = board.Options(context.Background(), rejected)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestBoard_RefreshAppliesFilter(t *testing.T) {
	repo := memory.NewMerchantRepository()
	seed(t, repo, entity.StatusPending, "Acme Stores")
	seed(t, repo, entity.StatusApproved, "Globex")
	board := NewBoard(repo, &mockEngine{}, nopLogger{})

	approved := entity.StatusApproved
	items, err := board.Refresh(context.Background(), entity.MerchantFilter{Status: &approved})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Globex", items[0].Business["brandName"])

	items, err = board.Refresh(context.Background(), entity.MerchantFilter{Search: "acme"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, entity.StatusPending, items[0].Status)
}

func TestBoard_FailedTransitionKeepsLaterCommit(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusPending, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})
	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	sentinel := errors.New("write timed out")
	engine.On("TransitionStatus", mock.Anything, id, domainwf.StateProcessing, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, sentinel).
		Once()
	engine.On("TransitionStatus", mock.Anything, id, domainwf.StateApproved, mock.Anything).
		Return(&entity.Merchant{ID: id, Status: entity.StatusApproved}, nil).
		Once()
	engine.On("GetCurrentState", mock.Anything, id).Return(domainwf.StateApproved, nil)

	slow := make(chan error, 1)
	go func() {
		_, err := board.UpdateStatus(context.Background(), id, domainwf.StateProcessing, entity.SystemActor)
		slow <- err
	}()
	<-started

	updated, err := board.UpdateStatus(context.Background(), id, domainwf.StateApproved, entity.SystemActor)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, updated.Status)

	close(release)
	assert.ErrorIs(t, <-slow, sentinel)

	listed, ok := board.Get(id)
	require.True(t, ok)
	assert.Equal(t, entity.StatusApproved, listed.Status)

	opts, err := board.Options(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestBoard_OptionsAfterDelete(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusPending, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})
	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(context.Background(), id))
	engine.On("GetCurrentState", mock.Anything, id).
		Return(domainwf.State(""), fmt.Errorf("merchant %s: %w", id, port.ErrNotFound))

	_, err = board.Options(context.Background(), id)

	assert.ErrorIs(t, err, port.ErrNotFound)
	_, listed := board.Get(id)
	assert.False(t, listed)
	assert.Empty(t, board.Items())
}

func TestBoard_OptionsFollowPersistedStatus(t *testing.T) {
	repo := memory.NewMerchantRepository()
	id := seed(t, repo, entity.StatusPending, "Acme")
	engine := &mockEngine{}
	board := NewBoard(repo, engine, nopLogger{})
	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	engine.On("GetCurrentState", mock.Anything, id).Return(domainwf.StateOnboarded, nil)

	opts, err := board.Options(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, []domainwf.State{domainwf.StateApproved, domainwf.StateRejected}, opts)
	listed, _ := board.Get(id)
	assert.Equal(t, entity.StatusOnboarded, listed.Status)
}

func TestBoard_Evict(t *testing.T) {
	repo := memory.NewMerchantRepository()
	keep := seed(t, repo, entity.StatusPending, "Acme")
	drop := seed(t, repo, entity.StatusPending, "Globex")
	board := NewBoard(repo, &mockEngine{}, nopLogger{})
	_, err := board.Refresh(context.Background(), entity.MerchantFilter{})
	require.NoError(t, err)

	board.Evict(drop)
	board.Evict("missing")

	items := board.Items()
	require.Len(t, items, 1)
	assert.Equal(t, keep, items[0].ID)
}
