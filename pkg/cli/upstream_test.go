package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const (
	testHandle  = "alice"
	testAddress = "0x52908400098527886E0F7030069857D2E4169EE7"
	testID      = "0x52908400098527886e0f7030069857d2e4169ee7"
)

func pushEvents(commits int) string {
	list := make([]string, 0, commits)
	for i := range commits {
		list = append(list, fmt.Sprintf(`{"sha":"%d"}`, i))
	}
	return fmt.Sprintf(`[{"id":"1","type":"PushEvent","repo":{"name":"alice/app"},"created_at":"2025-03-02T10:00:00Z","payload":{"commits":[%s]}}]`,
		strings.Join(list, ","))
}

func recentTxs(n int) string {
	now := time.Now().Unix()
	list := make([]string, 0, n)
	for i := range n {
		list = append(list, fmt.Sprintf(`{"timeStamp":"%d"}`, now-int64(i)))
	}
	return `{"status":"1","message":"OK","result":[` + strings.Join(list, ",") + `]}`
}

// newUpstream fakes the GitHub events API and the chain explorer. The
// handle "broken" and the address "0x000...0" get error responses.
func newUpstream(t *testing.T, commits, txs int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/users/broken/events/public":
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(r.URL.Path, "/users/"):
			_, _ = w.Write([]byte(pushEvents(commits)))
		case r.URL.Path == "/api" && r.URL.Query().Get("address") == "0x0000000000000000000000000000000000000000":
			w.WriteHeader(http.StatusBadGateway)
		case r.URL.Path == "/api":
			_, _ = w.Write([]byte(recentTxs(txs)))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
