package mockex

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const testSecret = "mock-test-secret"

func newTestServer(t *testing.T, sc Scenario) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewServer(sc)
}

// signedBody builds a urlencoded payload from key/value pairs and appends
// the signature the way the client does.
func signedBody(secret string, pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pairs[i])
		b.WriteByte('=')
		b.WriteString(pairs[i+1])
	}
	payload := b.String()
	return payload + "&signature=" + sign(payload, secret)
}

func marketBody(secret string) string {
	return signedBody(secret,
		"symbol", "BTCUSDT",
		"side", "BUY",
		"type", "MARKET",
		"quantity", "0.001",
		"newClientOrderId", "ft_1700000000001_0a1b2c3d",
		"newOrderRespType", "RESULT",
		"timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()),
		"recvWindow", "5000",
	)
}

func postOrder(t *testing.T, s *Server, body string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/fapi/v1/order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if withKey {
		req.Header.Set("X-MBX-APIKEY", "test-api-key")
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return m
}

func TestMarketOrderFills(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	w := postOrder(t, s, marketBody(testSecret), true)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, expected 200: %s", w.Code, w.Body.String())
	}

	resp := decodeJSON(t, w)
	if resp["status"] != "FILLED" {
		t.Errorf("status=%v, expected FILLED", resp["status"])
	}
	if resp["executedQty"] != "0.001" {
		t.Errorf("executedQty=%v, expected 0.001", resp["executedQty"])
	}
	if resp["avgPrice"] != "61482.40" {
		t.Errorf("avgPrice=%v, expected 61482.40", resp["avgPrice"])
	}
	if resp["cumQuote"] != "61.48240" {
		t.Errorf("cumQuote=%v, expected 61.48240", resp["cumQuote"])
	}
	if resp["clientOrderId"] != "ft_1700000000001_0a1b2c3d" {
		t.Errorf("clientOrderId=%v, expected echo of request id", resp["clientOrderId"])
	}
	if id, ok := resp["orderId"].(float64); !ok || id <= 0 {
		t.Errorf("orderId=%v, expected a positive id", resp["orderId"])
	}
}

func TestLimitOrderRests(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	body := signedBody(testSecret,
		"symbol", "ETHUSDT",
		"side", "SELL",
		"type", "LIMIT",
		"quantity", "0.5",
		"price", "3150.1",
		"timeInForce", "GTC",
		"newClientOrderId", "ft_1700000000002_11223344",
		"newOrderRespType", "RESULT",
		"timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()),
		"recvWindow", "5000",
	)
	w := postOrder(t, s, body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, expected 200: %s", w.Code, w.Body.String())
	}

	resp := decodeJSON(t, w)
	if resp["status"] != "NEW" {
		t.Errorf("status=%v, expected NEW", resp["status"])
	}
	if resp["executedQty"] != "0" {
		t.Errorf("executedQty=%v, expected 0", resp["executedQty"])
	}
	if resp["price"] != "3150.1" {
		t.Errorf("price=%v, expected echo of limit price", resp["price"])
	}
}

func TestRejectsBadSignature(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	w := postOrder(t, s, marketBody("wrong-secret"), true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, expected 400", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -1022 {
		t.Errorf("code=%v, expected -1022", resp["code"])
	}
}

func TestRejectsStaleTimestamp(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	body := signedBody(testSecret,
		"symbol", "BTCUSDT",
		"side", "BUY",
		"type", "MARKET",
		"quantity", "0.001",
		"timestamp", fmt.Sprintf("%d", time.Now().Add(-time.Minute).UnixMilli()),
		"recvWindow", "5000",
	)
	w := postOrder(t, s, body, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, expected 400", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -1021 {
		t.Errorf("code=%v, expected -1021", resp["code"])
	}
}

func TestClockSkewShiftsVenueTime(t *testing.T) {
	skew := int64(60_000)
	s := newTestServer(t, Scenario{Secret: testSecret, ClockSkewMS: skew})

	// A timestamp from the local clock now drifts outside the window.
	w := postOrder(t, s, marketBody(testSecret), true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, expected 400 under clock skew", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -1021 {
		t.Errorf("code=%v, expected -1021", resp["code"])
	}

	// The time endpoint reports the shifted clock.
	req := httptest.NewRequest(http.MethodGet, "/fapi/v1/time", nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("time status=%d, expected 200", rec.Code)
	}
	tr := decodeJSON(t, rec)
	serverTime, ok := tr["serverTime"].(float64)
	if !ok {
		t.Fatalf("serverTime missing in %v", tr)
	}
	diff := int64(serverTime) - time.Now().UnixMilli()
	if diff < skew-5_000 || diff > skew+5_000 {
		t.Errorf("serverTime skew=%dms, expected about %dms", diff, skew)
	}
}

func TestFailFirstThenRecovers(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret, FailFirst: 2})

	for call := 1; call <= 2; call++ {
		w := postOrder(t, s, marketBody(testSecret), true)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("call %d status=%d, expected 503", call, w.Code)
		}
		resp := decodeJSON(t, w)
		if code, _ := resp["code"].(float64); code != -1001 {
			t.Errorf("call %d code=%v, expected -1001", call, resp["code"])
		}
	}

	w := postOrder(t, s, marketBody(testSecret), true)
	if w.Code != http.StatusOK {
		t.Fatalf("call 3 status=%d, expected 200: %s", w.Code, w.Body.String())
	}

	if got := len(s.Received()); got != 3 {
		t.Errorf("Received()=%d requests, expected 3", got)
	}
}

func TestScriptedFatal(t *testing.T) {
	s := newTestServer(t, Scenario{
		Secret:      testSecret,
		FatalStatus: http.StatusBadRequest,
		ErrorCode:   -2019,
		ErrorMsg:    "Margin is insufficient.",
	})

	w := postOrder(t, s, marketBody(testSecret), true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, expected 400", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -2019 {
		t.Errorf("code=%v, expected -2019", resp["code"])
	}
	if resp["msg"] != "Margin is insufficient." {
		t.Errorf("msg=%v, expected scripted message", resp["msg"])
	}
}

func TestRejectsMissingAPIKey(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	w := postOrder(t, s, marketBody(testSecret), false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, expected 401", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -2014 {
		t.Errorf("code=%v, expected -2014", resp["code"])
	}
}

func TestRejectsMissingMandatoryParam(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	body := signedBody(testSecret,
		"symbol", "BTCUSDT",
		"side", "BUY",
		"type", "MARKET",
		"timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()),
	)
	w := postOrder(t, s, body, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, expected 400", w.Code)
	}
	resp := decodeJSON(t, w)
	if code, _ := resp["code"].(float64); code != -1102 {
		t.Errorf("code=%v, expected -1102", resp["code"])
	}
	if msg, _ := resp["msg"].(string); !strings.Contains(msg, "quantity") {
		t.Errorf("msg=%q, expected mention of the missing parameter", msg)
	}
}

func TestOrderIDsIncrement(t *testing.T) {
	s := newTestServer(t, Scenario{Secret: testSecret})

	first := decodeJSON(t, postOrder(t, s, marketBody(testSecret), true))
	second := decodeJSON(t, postOrder(t, s, marketBody(testSecret), true))

	a, _ := first["orderId"].(float64)
	b, _ := second["orderId"].(float64)
	if b != a+1 {
		t.Errorf("orderId sequence %v, %v, expected consecutive ids", a, b)
	}
}

func TestScenarioPriceOverride(t *testing.T) {
	s := newTestServer(t, Scenario{
		Secret: testSecret,
		Prices: map[string]string{"BTCUSDT": "50000.00"},
	})

	resp := decodeJSON(t, postOrder(t, s, marketBody(testSecret), true))
	if resp["avgPrice"] != "50000.00" {
		t.Errorf("avgPrice=%v, expected scenario override 50000.00", resp["avgPrice"])
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	yaml := `secret: mock-test-secret
fail_first: 2
fatal_status: 400
error_code: -2019
error_msg: "Margin is insufficient."
latency_ms: 5
clock_skew_ms: 1000
prices:
  BTCUSDT: "50000.00"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if sc.Secret != "mock-test-secret" {
		t.Errorf("Secret=%q", sc.Secret)
	}
	if sc.FailFirst != 2 || sc.FatalStatus != 400 || sc.ErrorCode != -2019 {
		t.Errorf("failure knobs=%d/%d/%d, expected 2/400/-2019", sc.FailFirst, sc.FatalStatus, sc.ErrorCode)
	}
	if sc.LatencyMS != 5 || sc.ClockSkewMS != 1000 {
		t.Errorf("timing knobs=%d/%d, expected 5/1000", sc.LatencyMS, sc.ClockSkewMS)
	}
	if sc.Prices["BTCUSDT"] != "50000.00" {
		t.Errorf("Prices[BTCUSDT]=%q", sc.Prices["BTCUSDT"])
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing scenario file")
	}
}
