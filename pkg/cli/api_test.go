package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mchmarny/trustchain/pkg/cache"
	"github.com/mchmarny/trustchain/pkg/config"
	"github.com/mchmarny/trustchain/pkg/fetch"
	"github.com/mchmarny/trustchain/pkg/identity"
	"github.com/mchmarny/trustchain/pkg/model"
	"github.com/mchmarny/trustchain/pkg/reputation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, commits, txs int) (http.Handler, *cache.Reputation) {
	t.Helper()
	up := newUpstream(t, commits, txs)

	cfg := config.Default()
	cfg.GitHub.URL = up.URL
	cfg.Chain.URL = up.URL + "/api"
	cfg.Timeout = 5 * time.Second

	ac := &appConfig{
		Config: cfg,
		Model:  model.New([]float64{0.1, 0.2, 0.3}, 0),
		Cache:  cache.New(),
	}

	svc, err := newService(context.Background(), ac)
	require.NoError(t, err)

	return makeRouter(svc, ac.Model), ac.Cache
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, 0, 0)
	w := serve(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestID_Echoed(t *testing.T) {
	h, _ := newTestRouter(t, 0, 0)

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.Header.Set(requestIDHeader, "0b9f4c7e-8a55-4f44-9f0e-1c2d3e4f5a6b")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, "0b9f4c7e-8a55-4f44-9f0e-1c2d3e4f5a6b", w.Header().Get(requestIDHeader))

	r.Header.Set(requestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(requestIDHeader))
}

func TestUpdateReputationAPI(t *testing.T) {
	h, c := newTestRouter(t, 120, 250)

	w := serve(h, http.MethodPost, "/reputation", `{"handle":"alice","address":"`+testAddress+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res reputation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, identity.Identity(testID), res.Identity)
	assert.Equal(t, 120.0, res.GitHub.Commits)
	assert.Equal(t, uint64(250), res.Chain.TxCount)
	assert.Contains(t, res.Message, "Most recent repo: alice/app")
	assert.Equal(t, 100.0, c.Get(testID))

	w = serve(h, http.MethodGet, "/reputation/"+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cached CachedReputation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cached))
	assert.Equal(t, 100.0, cached.Score)
	assert.True(t, cached.Found)
}

func TestUpdateReputationAPI_UnparseableAddress(t *testing.T) {
	h, c := newTestRouter(t, 120, 250)

	w := serve(h, http.MethodPost, "/reputation", `{"handle":"alice","address":"not-an-address"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res reputation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 100.0, res.Score)
	assert.Equal(t, identity.Anonymous, res.Identity)
	assert.True(t, res.Cached)
	assert.Contains(t, res.Message, "Reputation Score: 100.00")
	assert.Equal(t, 100.0, c.Get(identity.Anonymous))
}

func TestUpdateReputationAPI_DegradedUpstream(t *testing.T) {
	h, c := newTestRouter(t, 120, 250)

	w := serve(h, http.MethodPost, "/reputation",
		`{"handle":"broken","address":"0x0000000000000000000000000000000000000000"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res reputation.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 1, c.Len())
}

func TestUpdateReputationAPI_BadRequests(t *testing.T) {
	h, c := newTestRouter(t, 1, 1)

	tests := map[string]string{
		"bad json":        `{`,
		"unknown field":   `{"handle":"a","address":"` + testAddress + `","extra":1}`,
		"missing handle":  `{"address":"` + testAddress + `"}`,
		"missing address": `{"handle":"alice"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := serve(h, http.MethodPost, "/reputation", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Equal(t, 0, c.Len())
}

func TestGetReputationAPI(t *testing.T) {
	h, _ := newTestRouter(t, 0, 0)

	w := serve(h, http.MethodGet, "/reputation/"+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)

	var cached CachedReputation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cached))
	assert.Equal(t, identity.Identity(testID), cached.Identity)
	assert.Equal(t, 0.0, cached.Score)
	assert.False(t, cached.Found)

	w = serve(h, http.MethodGet, "/reputation/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignalAPI(t *testing.T) {
	h, c := newTestRouter(t, 7, 3)

	w := serve(h, http.MethodGet, "/signal/github/alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	var gs fetch.GitHubSignal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gs))
	assert.Equal(t, 7.0, gs.Commits)
	assert.Equal(t, "alice/app", gs.RecentRepo)

	w = serve(h, http.MethodGet, "/signal/chain/"+testAddress, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cs fetch.ChainSignal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cs))
	assert.Equal(t, uint64(3), cs.TxCount)

	assert.Equal(t, 0, c.Len())
}

func TestPredictAPI(t *testing.T) {
	h, _ := newTestRouter(t, 0, 0)

	w := serve(h, http.MethodPost, "/model/predict", `{"features":[1,2,3]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var p Prediction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Greater(t, p.Prediction, 0.5)
	assert.Less(t, p.Prediction, 1.0)

	w = serve(h, http.MethodPost, "/model/predict", `{"features":[1,2]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "expected 3 features, got 2")

	w = serve(h, http.MethodPost, "/model/predict", `nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictAPI_NoModel(t *testing.T) {
	w := httptest.NewRecorder()
	predictAPIHandler(nil)(w, httptest.NewRequest(http.MethodPost, "/model/predict", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
