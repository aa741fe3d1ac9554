package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccount(t *testing.T) {
	env := newTestEnv(t)
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	id := env.db.addUser("user@example.com", true, created)

	account, err := env.account.GetAccount(context.Background(), &id)
	require.NoError(t, err)
	assert.True(t, account.IsAdmin)
	assert.Equal(t, "2026-03-04", account.MemberSince)
	assert.Equal(t, "user@example.com", account.Profile.Email)

	_, err = env.account.GetAccount(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProfile_SanitizesAndClears(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.db.addUser("user@example.com", false, time.Now())

	account, err := env.account.UpdateProfile(ctx, &id, ProfileUpdate{
		FullName:  "<b>Ada</b> Lovelace",
		AvatarURL: " https://cdn.example.com/ada.png ",
	})
	require.NoError(t, err)
	require.NotNil(t, account.Profile.FullName)
	assert.Equal(t, "Ada Lovelace", *account.Profile.FullName)
	require.NotNil(t, account.Profile.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/ada.png", *account.Profile.AvatarURL)

	account, err = env.account.UpdateProfile(ctx, &id, ProfileUpdate{})
	require.NoError(t, err)
	assert.Nil(t, account.Profile.FullName)
	assert.Nil(t, account.Profile.AvatarURL)
}

func TestUpdateProfile_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.db.addUser("user@example.com", false, time.Now())
	bannedID := env.db.addUser("banned@example.com", false, time.Now())
	env.db.profiles[bannedID].IsBanned = true

	_, err := env.account.UpdateProfile(ctx, &id, ProfileUpdate{AvatarURL: "javascript:alert(1)"})
	assert.ErrorIs(t, err, ErrInvalidAvatarURL)

	_, err = env.account.UpdateProfile(ctx, &id, ProfileUpdate{AvatarURL: "https://"})
	assert.ErrorIs(t, err, ErrInvalidAvatarURL)

	_, err = env.account.UpdateProfile(ctx, nil, ProfileUpdate{FullName: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.account.UpdateProfile(ctx, &bannedID, ProfileUpdate{FullName: "x"})
	assert.ErrorIs(t, err, ErrBanned)
	assert.Nil(t, env.db.profile(bannedID).FullName)
}
