package flowrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weatherid/webapp/flowrepo"
)

func newFlow(state string, createdAt time.Time) *flowrepo.AuthFlowState {
	return &flowrepo.AuthFlowState{
		State:     state,
		Verifier:  "verifier-value",
		Nonce:     "nonce-value",
		ReturnURL: "/weather",
		CreatedAt: createdAt,
	}
}

func TestTake_RoundTrip(t *testing.T) {
	repo := flowrepo.NewMemoryRepo()
	require.NoError(t, repo.Save(context.Background(), newFlow("state-1", time.Now())))

	flow, err := repo.Take(context.Background(), "state-1")
	require.NoError(t, err)
	require.Equal(t, "verifier-value", flow.Verifier)
	require.Equal(t, "/weather", flow.ReturnURL)
}

func TestTake_IsSingleUse(t *testing.T) {
	repo := flowrepo.NewMemoryRepo()
	require.NoError(t, repo.Save(context.Background(), newFlow("state-1", time.Now())))

	_, err := repo.Take(context.Background(), "state-1")
	require.NoError(t, err)

	_, err = repo.Take(context.Background(), "state-1")
	require.ErrorIs(t, err, flowrepo.ErrFlowNotFound)
}

func TestTake_UnknownState(t *testing.T) {
	repo := flowrepo.NewMemoryRepo()
	_, err := repo.Take(context.Background(), "never-saved")
	require.ErrorIs(t, err, flowrepo.ErrFlowNotFound)
}

func TestTake_ExpiredFlow(t *testing.T) {
	now := time.Now()
	clock := now
	repo := flowrepo.NewMemoryRepo(flowrepo.WithNowFunc(func() time.Time { return clock }))

	require.NoError(t, repo.Save(context.Background(), newFlow("state-1", now)))
	clock = now.Add(11 * time.Minute)

	_, err := repo.Take(context.Background(), "state-1")
	require.ErrorIs(t, err, flowrepo.ErrFlowNotFound)
}
