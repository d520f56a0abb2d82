package pixel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRejection(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		output   string
		wantCode Code
		wantMsg  string
	}{
		{"plain message", `"Animal not found"`, CodeInternal, "Animal not found"},
		{"structured", `{"code":404,"message":"Animal not found"}`, CodeNotFound, "Animal not found"},
		{"list", `["first problem","second problem"]`, CodeInternal, "first problem; second problem"},
		{"unknown shape", `42`, CodeInternal, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := rejection("DeleteAnimal()", json.RawMessage(tc.output))
			require.Equal(t, tc.wantCode, err.Code)
			require.Equal(t, tc.wantMsg, err.Error())
			require.Equal(t, "DeleteAnimal()", err.Expression)
		})
	}
}

func TestIsCode(t *testing.T) {
	t.Parallel()
	err := NewError(CodeBadRequest, "Animal name, type, and date of birth cannot be empty")
	require.True(t, IsCode(err, CodeBadRequest))
	require.False(t, IsCode(err, CodeNotFound))
	require.Equal(t, "Resource not found", (&Error{Code: CodeNotFound}).Error())
}
