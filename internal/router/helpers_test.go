package router

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
