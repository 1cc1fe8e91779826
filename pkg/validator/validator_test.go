package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type listRequest struct {
	Hash     string `json:"hash" validate:"required"`
	PageSize int    `json:"page_size" validate:"max=500"`
	Internal string `json:"-"`
}

func TestValidateStruct_ReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&listRequest{PageSize: 501})
	require.Error(t, err)

	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures, 2)

	fields := make([]string, 0, len(failures))
	for _, failure := range failures {
		fields = append(fields, failure.Field)
	}
	require.Contains(t, fields, "hash")
	require.Contains(t, fields, "page_size")
	require.Contains(t, err.Error(), "page_size failed on max=500")
}

func TestValidateStruct_ValidPayload(t *testing.T) {
	require.NoError(t, ValidateStruct(&listRequest{Hash: "abc", PageSize: 100}))
}
