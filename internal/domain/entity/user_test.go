package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave не обращается к tx, поэтому nil достаточно
var noTx *gorm.DB = nil

func TestUser_BeforeSave_HashesPlainPassword(t *testing.T) {
	plain := "mySecretPassword123"
	user := &User{Username: "player", Email: "player@example.com", Password: plain}

	require.NoError(t, user.BeforeSave(noTx))
	assert.NotEqual(t, plain, user.Password)

	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain))
	assert.NoError(t, err, "хеш должен соответствовать исходному паролю")
}

func TestUser_BeforeSave_SkipsAlreadyHashed(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &User{Username: "player", Email: "player@example.com", Password: string(hash)}
	require.NoError(t, user.BeforeSave(noTx))

	// повторного хеширования быть не должно
	assert.Equal(t, string(hash), user.Password)
}

func TestUser_BeforeSave_SkipsEmptyPassword(t *testing.T) {
	user := &User{Username: "player", Email: "player@example.com"}
	require.NoError(t, user.BeforeSave(noTx))
	assert.Equal(t, "", user.Password)
}

func TestUser_CheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correctPassword123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{Username: "player", Email: "player@example.com", Password: string(hash)}

	assert.True(t, user.CheckPassword("correctPassword123"))
	assert.False(t, user.CheckPassword("wrongPassword456"))
	assert.False(t, user.CheckPassword(""))
}
