package registrations

import (
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ValidateReportsFieldNames(t *testing.T) {
	req := Request{EventID: "x", Email: "nope", FirstName: "A", LastName: "B", Consent: boolPtr(false)}
	err := req.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "consent")
	assert.NotContains(t, errs, "firstName")
}

func TestRequest_ValidateCountsCharactersNotBytes(t *testing.T) {
	arabic := strings.Repeat("ع", 60) // 120 bytes
	req := Request{EventID: "x", Email: "a@x.com", FirstName: arabic, LastName: "Ndiaye", Consent: boolPtr(true)}
	require.NoError(t, req.Validate())

	req.LastName = strings.Repeat("é", 100)
	req.Phone = strings.Repeat("٠", 40)
	require.NoError(t, req.Validate())

	req.FirstName = strings.Repeat("ع", 101)
	errs, ok := req.Validate().(validation.Errors)
	require.True(t, ok)
	assert.Contains(t, errs, "firstName")
	assert.NotContains(t, errs, "lastName")
}

func TestRequest_Normalize(t *testing.T) {
	req := Request{Email: "  MiXed@Case.ORG ", FirstName: " Awa ", Expectations: "\tlearn\n"}
	req.Normalize()
	assert.Equal(t, "mixed@case.org", req.Email)
	assert.Equal(t, "Awa", req.FirstName)
	assert.Equal(t, "learn", req.Expectations)
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	require.NoError(t, err)
	b, err := generateToken()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}
