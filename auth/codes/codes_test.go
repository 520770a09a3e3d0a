package codes_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/buntdb"

	"weatherid/auth/codes"
)

func newCode(t *testing.T, lifetime time.Duration) *codes.AuthorizationCode {
	t.Helper()
	value, err := codes.GenerateValue()
	require.NoError(t, err)
	now := time.Now()
	return &codes.AuthorizationCode{
		Code:                value,
		ClientID:            "weathermvc",
		Subject:             "user-1",
		Email:               "alice@example.com",
		RedirectURI:         "http://localhost:5444/auth/callback",
		Scopes:              []string{"openid", "profile", "weatherapi.read"},
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		IssuedAt:            now,
		ExpiresAt:           now.Add(lifetime),
	}
}

func repos(t *testing.T) map[string]codes.Repo {
	t.Helper()
	db, err := buntdb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]codes.Repo{
		"memory": codes.NewMemoryRepo(),
		"buntdb": codes.NewBuntRepo(db),
	}
}

func TestConsume_RoundTrip(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			code := newCode(t, time.Minute)
			require.NoError(t, repo.Save(context.Background(), code))

			got, err := repo.Consume(context.Background(), code.Code)
			require.NoError(t, err)
			require.Equal(t, code.ClientID, got.ClientID)
			require.Equal(t, code.Subject, got.Subject)
			require.Equal(t, code.Scopes, got.Scopes)
			require.Equal(t, code.CodeChallenge, got.CodeChallenge)
		})
	}
}

func TestConsume_Unknown(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Consume(context.Background(), "never-issued")
			require.ErrorIs(t, err, codes.ErrCodeNotFound)
		})
	}
}

func TestConsume_SecondRedemptionFails(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			code := newCode(t, time.Minute)
			require.NoError(t, repo.Save(context.Background(), code))

			_, err := repo.Consume(context.Background(), code.Code)
			require.NoError(t, err)

			_, err = repo.Consume(context.Background(), code.Code)
			require.Error(t, err)
		})
	}
}

func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			code := newCode(t, time.Minute)
			require.NoError(t, repo.Save(context.Background(), code))

			const attempts = 32
			var wg sync.WaitGroup
			results := make(chan error, attempts)
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := repo.Consume(context.Background(), code.Code)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			winners := 0
			for err := range results {
				if err == nil {
					winners++
				}
			}
			require.Equal(t, 1, winners)
		})
	}
}

func TestExpired(t *testing.T) {
	code := newCode(t, time.Minute)

	require.False(t, code.Expired(code.ExpiresAt.Add(-time.Second)))
	require.True(t, code.Expired(code.ExpiresAt))
	require.True(t, code.Expired(code.ExpiresAt.Add(time.Second)))
}

func TestMemoryRepo_PurgesLongExpired(t *testing.T) {
	now := time.Now()
	clock := now
	repo := codes.NewMemoryRepo(codes.WithNowFunc(func() time.Time { return clock }))

	code := newCode(t, time.Minute)
	require.NoError(t, repo.Save(context.Background(), code))

	clock = now.Add(3 * time.Minute)
	other := newCode(t, time.Minute)
	require.NoError(t, repo.Save(context.Background(), other))

	_, err := repo.Consume(context.Background(), code.Code)
	require.ErrorIs(t, err, codes.ErrCodeNotFound)
}
