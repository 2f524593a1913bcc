package store

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParamsParse(t *testing.T) {
	pp := PaginationParams{PageID: 1, Limit: 10}

	r := httptest.NewRequest("GET", "/images?page=3&limit=25", nil)
	parsed, err := pp.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, 3, parsed.PageID)
	assert.Equal(t, 25, parsed.Limit)
}

func TestPaginationParamsDefaults(t *testing.T) {
	pp := PaginationParams{PageID: 1, Limit: 10}

	r := httptest.NewRequest("GET", "/images", nil)
	parsed, err := pp.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, pp, parsed)
}

func TestPaginationParamsBadValues(t *testing.T) {
	pp := PaginationParams{PageID: 1, Limit: 10}

	r := httptest.NewRequest("GET", "/images?page=abc", nil)
	_, err := pp.Parse(r)
	assert.Error(t, err)
}
