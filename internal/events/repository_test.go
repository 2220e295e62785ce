package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/internal/testutil"
)

func TestRepository_Postgres(t *testing.T) {
	pool := testutil.Postgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	var organizer uuid.UUID
	err := pool.QueryRow(ctx, `INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, 'x', 'Organizer', 'organizer') RETURNING id`, uuid.NewString()+"@org.test").Scan(&organizer)
	require.NoError(t, err)

	public := &models.Event{Title: "Forum", StartsAt: time.Now().Add(48 * time.Hour), IsPublic: true, CreatedBy: organizer}
	private := &models.Event{Title: "Board", StartsAt: time.Now().Add(24 * time.Hour), CreatedBy: organizer}
	require.NoError(t, repo.Create(ctx, public))
	require.NoError(t, repo.Create(ctx, private))

	t.Run("get and update", func(t *testing.T) {
		got, err := repo.GetByID(ctx, public.ID)
		require.NoError(t, err)
		assert.Equal(t, "Forum", got.Title)
		assert.Nil(t, got.MaxAttendees)

		ceiling := 50
		got.MaxAttendees = &ceiling
		got.Location = "Dakar"
		require.NoError(t, repo.Update(ctx, got))

		again, err := repo.GetByID(ctx, public.ID)
		require.NoError(t, err)
		require.NotNil(t, again.MaxAttendees)
		assert.Equal(t, 50, *again.MaxAttendees)
		assert.Equal(t, "Dakar", again.Location)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Update(ctx, &models.Event{ID: uuid.New(), StartsAt: time.Now()}), ErrNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		mine, err := repo.List(ctx, &organizer, false)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		publicOnly, err := repo.List(ctx, &organizer, true)
		require.NoError(t, err)
		require.Len(t, publicOnly, 1)
		assert.Equal(t, public.ID, publicOnly[0].ID)
	})

	t.Run("program blob", func(t *testing.T) {
		blob, err := repo.GetProgramBlob(ctx, private.ID)
		require.NoError(t, err)
		assert.Nil(t, blob)

		require.NoError(t, repo.SetProgramBlob(ctx, private.ID, []byte(`{"hasProgram":true,"items":[]}`)))
		blob, err = repo.GetProgramBlob(ctx, private.ID)
		require.NoError(t, err)
		assert.JSONEq(t, `{"hasProgram":true,"items":[]}`, string(blob))

		require.NoError(t, repo.SetProgramBlob(ctx, private.ID, nil))
		blob, err = repo.GetProgramBlob(ctx, private.ID)
		require.NoError(t, err)
		assert.Nil(t, blob)

		_, err = repo.GetProgramBlob(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.SetProgramBlob(ctx, uuid.New(), nil), ErrNotFound)
	})
}
