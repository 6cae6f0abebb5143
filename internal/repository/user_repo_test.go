package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewardhub/internal/model"
)

func TestMemoryUserRepository(t *testing.T) {
	t.Run("save then get", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		require.NoError(t, repo.Save(model.User{Email: "a@x.vn", Name: "A", Role: model.RoleUser}))

		u, err := repo.Get("a@x.vn")
		require.NoError(t, err)
		assert.Equal(t, "A", u.Name)
		assert.True(t, repo.Exists("a@x.vn"))
	})

	t.Run("missing user", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		_, err := repo.Get("nobody@x.vn")
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete("nobody@x.vn"), ErrUserNotFound)
	})

	t.Run("save requires email", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		assert.ErrorIs(t, repo.Save(model.User{Name: "no email"}), ErrMissingPrimaryKey)
	})

	t.Run("upsert keeps registration order", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		require.NoError(t, repo.Save(model.User{Email: "a@x.vn"}))
		require.NoError(t, repo.Save(model.User{Email: "b@x.vn"}))
		require.NoError(t, repo.Save(model.User{Email: "a@x.vn", Balance: 10}))

		users := repo.List()
		require.Len(t, users, 2)
		assert.Equal(t, "a@x.vn", users[0].Email)
		assert.Equal(t, int64(10), users[0].Balance)
		assert.Equal(t, "b@x.vn", users[1].Email)
	})

	t.Run("delete", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		require.NoError(t, repo.Save(model.User{Email: "a@x.vn"}))
		require.NoError(t, repo.Save(model.User{Email: "b@x.vn"}))

		require.NoError(t, repo.Delete("a@x.vn"))

		assert.False(t, repo.Exists("a@x.vn"))
		assert.Equal(t, []model.User{{Email: "b@x.vn"}}, repo.List())
	})

	t.Run("replace", func(t *testing.T) {
		repo := NewMemoryUserRepository()
		require.NoError(t, repo.Save(model.User{Email: "old@x.vn"}))

		repo.Replace([]model.User{{Email: "c@x.vn"}, {Email: "d@x.vn"}})

		assert.False(t, repo.Exists("old@x.vn"))
		assert.Len(t, repo.List(), 2)
	})
}
