package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"relpchain/core"
	"relpchain/crypto"
	"relpchain/gateway/middleware"
	"relpchain/native/relp"
	"relpchain/storage"
	"relpchain/storage/eventlog"
)

const testSecret = "routes-secret"

func newTestServer(t *testing.T, auth bool) (*httptest.Server, *core.Node) {
	t.Helper()
	journal, err := eventlog.Open(eventlog.MemoryDSN())
	require.NoError(t, err)
	params := relp.DefaultParams()
	params.AwardScale = 1
	params.DailyAward.Clear()
	node, err := core.NewNode(storage.NewMemDB(), params, core.WithJournal(journal))
	require.NoError(t, err)
	t.Cleanup(func() { node.Close() })

	handler, err := New(Config{
		Ledger:        node,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{Enabled: auth, HMACSecret: testSecret}, nil),
		RateLimiter:   middleware.NewRateLimiter(nil, nil),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{}, nil),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, node
}

func addr(b byte) string {
	var a crypto.Address
	a[0] = 0x52
	a[19] = b
	return a.String()
}

func post(t *testing.T, srv *httptest.Server, path, token string, body map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func get(t *testing.T, srv *httptest.Server, path string, out interface{}) int {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestLedgerRoutesEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t, false)
	a, b := addr(1), addr(2)

	resp, _ := post(t, srv, "/v1/tx/mint", "", map[string]interface{}{"block": 0, "to": a, "amount": "100"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = post(t, srv, "/v1/tx/mint", "", map[string]interface{}{"block": 10, "to": b, "amount": "100"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := post(t, srv, "/v1/admin/awards", "", map[string]interface{}{"block": 20, "pool": "stable", "amount": "3000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(0), body["index"])

	var supply supplyView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/supply", &supply))
	require.Equal(t, "200", supply.TotalSupply)
	require.Equal(t, uint64(20), supply.Height)

	var account accountView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/accounts/"+a, &account))
	require.Equal(t, "100", account.Balance)
	require.Equal(t, "0", account.Pools["stable"].Settled)
	require.Equal(t, "2000", account.Pools["stable"].Pending)

	var award awardView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/pools/stable/awards/0", &award))
	require.Equal(t, "3000", award.Amount)
	require.Equal(t, uint64(20), award.Block)
	require.Equal(t, http.StatusNotFound, get(t, srv, "/v1/pools/stable/awards/1", nil))
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/v1/pools/bogus", nil))

	var events []eventView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/events?type="+relp.EventTypeMinted, &events))
	require.Len(t, events, 2)
	require.Equal(t, uint64(10), events[1].Block)
}

func TestLedgerRoutesMapErrors(t *testing.T) {
	srv, _ := newTestServer(t, false)
	a, b := addr(1), addr(2)

	resp, _ := post(t, srv, "/v1/tx/mint", "", map[string]interface{}{"block": 5, "to": a, "amount": "10"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cases := []struct {
		name string
		path string
		body map[string]interface{}
		want int
	}{
		{"zero amount", "/v1/tx/mint", map[string]interface{}{"to": a, "amount": "0"}, http.StatusBadRequest},
		{"bad address", "/v1/tx/mint", map[string]interface{}{"to": "relp1nope", "amount": "1"}, http.StatusBadRequest},
		{"unknown field", "/v1/tx/mint", map[string]interface{}{"to": a, "amount": "1", "memo": "x"}, http.StatusBadRequest},
		{"insufficient", "/v1/tx/transfer", map[string]interface{}{"from": a, "to": b, "amount": "11"}, http.StatusConflict},
		{"allowance", "/v1/tx/transferFrom", map[string]interface{}{"spender": b, "from": a, "to": b, "amount": "1"}, http.StatusConflict},
		{"stale", "/v1/tx/burn", map[string]interface{}{"block": 4, "from": a, "amount": "1"}, http.StatusConflict},
		{"unknown pool", "/v1/admin/awards", map[string]interface{}{"pool": "gold", "amount": "1"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, body := post(t, srv, tc.path, "", tc.body)
		require.Equal(t, tc.want, resp.StatusCode, tc.name)
		require.NotEmpty(t, body["error"], tc.name)
	}

	var account accountView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/accounts/"+a, &account))
	require.Equal(t, "10", account.Balance)
}

func TestAdminRoutesRequireScope(t *testing.T) {
	srv, _ := newTestServer(t, true)

	sign := func(scope string) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"scope": scope,
			"exp":   time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return token
	}

	body := map[string]interface{}{"amount": "1000"}
	resp, _ := post(t, srv, "/v1/admin/dailyAward", "", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = post(t, srv, "/v1/admin/dailyAward", sign(middleware.ScopeWrite), body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = post(t, srv, "/v1/admin/dailyAward", sign(middleware.ScopeAdmin), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var farm farmView
	require.Equal(t, http.StatusOK, get(t, srv, "/v1/farm", &farm))
	require.Equal(t, "1000", farm.DailyAward)

	require.Equal(t, http.StatusOK, get(t, srv, "/healthz", nil))
}

func TestEventStreamReplaysAndFollows(t *testing.T) {
	srv, _ := newTestServer(t, false)
	a := addr(1)

	resp, _ := post(t, srv, "/v1/tx/mint", "", map[string]interface{}{"block": 1, "to": a, "amount": "5"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/events/stream", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() eventView {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var view eventView
		require.NoError(t, json.Unmarshal(data, &view))
		return view
	}

	backlog := read()
	require.Equal(t, uint64(1), backlog.Seq)
	require.Equal(t, relp.EventTypeMinted, backlog.Type)
	require.Len(t, backlog.Digest, 64)

	resp, _ = post(t, srv, "/v1/tx/mint", "", map[string]interface{}{"block": 2, "to": a, "amount": "7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	live := read()
	require.Equal(t, uint64(2), live.Seq)
	require.Equal(t, uint64(2), live.Block)
	require.Equal(t, "7", live.Attributes["amount"])
}

func TestEventStreamRejectsBadCursor(t *testing.T) {
	srv, _ := newTestServer(t, false)
	require.Equal(t, http.StatusBadRequest, get(t, srv, "/v1/events/stream?after=x", nil))
}
