package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

type addItem struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"min=1,max=50"`
	Note      string `json:"-"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", strings.NewReader(body))
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	d, _ := typed.Details().(map[string]string)
	return d
}

func TestDecodeJSONBody(t *testing.T) {
	var dst addItem
	require.NoError(t, DecodeJSONBody(post(`{"productId":"5b0f4f0e-8a55-4c43-9a3f-1b0d2f1c8a10","quantity":2}`), &dst))
	assert.Equal(t, 2, dst.Quantity)
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	var dst addItem
	d := details(t, DecodeJSONBody(post(`{"quantity":0}`), &dst))
	assert.Contains(t, d, "productId")
	assert.Contains(t, d["quantity"], "1")
}

func TestDecodeJSONBodyRejects(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
		field   string
	}{
		"empty":    {body: ``, message: "request body is empty"},
		"syntax":   {body: `{"quantity":`, message: "invalid request body"},
		"unknown":  {body: `{"quantity":1,"price":5}`, message: "invalid request body", field: "price"},
		"mistyped": {body: `{"quantity":"two"}`, message: "invalid request body", field: "quantity"},
		"trailing": {body: `{"quantity":1}{"quantity":2}`, message: "request body must hold a single JSON value"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var dst addItem
			err := DecodeJSONBody(post(tc.body), &dst)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
			assert.Equal(t, tc.message, typed.Message())
			if tc.field != "" {
				assert.Contains(t, details(t, err), tc.field)
			}
		})
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	var dst addItem
	big := `{"productId":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	err := DecodeJSONBody(post(big), &dst)
	assert.Equal(t, "request body too large", pkgerrors.As(err).Message())
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/admin/orders?limit=75&offset=x&page=0", nil)

	n, err := ParseQueryInt(r, "limit", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 75, n)

	n, err = ParseQueryInt(r, "missing", 50, 1, 200)
	require.NoError(t, err)
	assert.Equal(t, 50, n)

	_, err = ParseQueryInt(r, "offset", 0, 0, 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(r, "page", 1, 1, 10)
	assert.EqualError(t, err, "VALIDATION_ERROR: page must be an integer between 1 and 10")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Pune", SanitizeString("  Pune ", 10))
	assert.Equal(t, "Bhu", SanitizeString("Bhubaneswar", 3))
	assert.Equal(t, "no limit here", SanitizeString("no limit here", 0))
	// "पालक" is 12 bytes; cutting at 4 must not split the second rune
	assert.Equal(t, "प", SanitizeString("पालक", 4))
}
