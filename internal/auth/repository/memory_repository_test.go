package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/supply-dashboard/internal/auth/domain"
)

func TestMemoryPreferenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPreferenceRepository()

	_, err := repo.Find(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrPreferenceNotFound)

	require.NoError(t, repo.Save(ctx, &domain.Preference{ClientID: "c1", RememberedEmail: "sam@example.com", RememberMe: true}))
	pref, err := repo.Find(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "sam@example.com", pref.RememberedEmail)

	pref.RememberedEmail = "changed"
	again, _ := repo.Find(ctx, "c1")
	assert.Equal(t, "sam@example.com", again.RememberedEmail)

	require.NoError(t, repo.Delete(ctx, "c1"))
	_, err = repo.Find(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrPreferenceNotFound)
}
