package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptPasswordTagCountsBytes(t *testing.T) {
	type form struct {
		Password string `json:"password" validate:"required,min=8,bcryptpw"`
	}

	require.NoError(t, ValidateStruct(form{Password: strings.Repeat("a", MaxPasswordBytes)}))
	require.NoError(t, ValidateStruct(form{Password: strings.Repeat("é", 36)}))

	err := ValidateStruct(form{Password: strings.Repeat("é", 40)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])
}
