package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAppliesParamsHeadersAndJSONBody(t *testing.T) {
	var gotQuery url.Values
	var gotHeader string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Get("X-Test")
		_ = decodeJSON(r, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(0)
	resp, err := c.Request(context.Background(), http.MethodPost, srv.URL, RequestOptions{
		Params:  url.Values{"q": []string{"1"}},
		Headers: map[string]string{"X-Test": "yes"},
		JSON:    map[string]any{"hello": "world"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", gotQuery.Get("q"))
	assert.Equal(t, "yes", gotHeader)
	assert.Equal(t, "world", gotBody["hello"])
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
