package credentials

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestSaveLoadDelete(t *testing.T) {
	keyring.MockInit()
	server := "http://localhost:9090/Monolith/"

	_, err := Load(server)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Save(server, Login{Username: " ada ", Password: "secret"}))

	got, err := Load("http://localhost:9090/Monolith")
	require.NoError(t, err)
	require.Equal(t, Login{Username: "ada", Password: "secret"}, got)

	require.NoError(t, Delete(server))
	require.ErrorIs(t, Delete(server), ErrNotFound)
}

func TestSave_Validates(t *testing.T) {
	keyring.MockInit()
	require.Error(t, Save("", Login{Username: "a", Password: "b"}))
	require.Error(t, Save("http://x", Login{Username: " ", Password: "b"}))
	require.Error(t, Save("http://x", Login{Username: "a"}))
}
