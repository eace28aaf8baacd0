// Package mockex runs a local stand-in for the venue's USDT-margined
// futures REST API. It enforces the same signing and timestamp rules as
// the real venue so the whole pipeline can be exercised offline.
package mockex

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const defaultRecvWindow = 5000

var defaultPrices = map[string]string{
	"BTCUSDT": "61482.40",
	"ETHUSDT": "3150.25",
	"BNBUSDT": "585.10",
}

// ReceivedOrder is one captured order request, exactly as transmitted.
type ReceivedOrder struct {
	Raw    string
	Params url.Values
}

// Server is the mock venue.
type Server struct {
	Router *gin.Engine

	scenario Scenario

	mu          sync.Mutex
	orderCalls  int
	nextOrderID int64
	received    []ReceivedOrder
}

// NewServer builds the mock venue for a scenario.
func NewServer(sc Scenario) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{Router: r, scenario: sc, nextOrderID: 4721892}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/fapi/v1/time", s.serverTime)
	s.Router.POST("/fapi/v1/order", s.placeOrder)
}

// Received returns the well-formed, correctly signed order requests
// captured so far, oldest first.
func (s *Server) Received() []ReceivedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedOrder(nil), s.received...)
}

// now is the venue clock, shifted by the scenario skew.
func (s *Server) now() int64 {
	return time.Now().UnixMilli() + s.scenario.ClockSkewMS
}

func (s *Server) serverTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"serverTime": s.now()})
}

func apiError(c *gin.Context, status int, code int64, msg string) {
	c.JSON(status, gin.H{"code": code, "msg": msg})
}

func (s *Server) placeOrder(c *gin.Context) {
	if s.scenario.LatencyMS > 0 {
		time.Sleep(time.Duration(s.scenario.LatencyMS) * time.Millisecond)
	}

	if c.GetHeader("X-MBX-APIKEY") == "" {
		apiError(c, http.StatusUnauthorized, -2014, "API-key format invalid.")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apiError(c, http.StatusBadRequest, -1000, "An unknown error occurred while processing the request.")
		return
	}
	raw := string(body)

	payload, sig, ok := splitSignature(raw)
	if !ok {
		apiError(c, http.StatusBadRequest, -1102, "Mandatory parameter 'signature' was not sent, was empty/null, or malformed.")
		return
	}
	if s.scenario.Secret != "" && !hmac.Equal([]byte(sig), []byte(sign(payload, s.scenario.Secret))) {
		apiError(c, http.StatusBadRequest, -1022, "Signature for this request is not valid.")
		return
	}

	params, err := url.ParseQuery(raw)
	if err != nil {
		apiError(c, http.StatusBadRequest, -1100, "Illegal characters found in a parameter.")
		return
	}

	s.mu.Lock()
	s.received = append(s.received, ReceivedOrder{Raw: raw, Params: params})
	s.mu.Unlock()

	for _, required := range []string{"symbol", "side", "type", "quantity", "timestamp"} {
		if params.Get(required) == "" {
			apiError(c, http.StatusBadRequest, -1102,
				fmt.Sprintf("Mandatory parameter '%s' was not sent, was empty/null, or malformed.", required))
			return
		}
	}

	ts, err := strconv.ParseInt(params.Get("timestamp"), 10, 64)
	if err != nil {
		apiError(c, http.StatusBadRequest, -1100, "Illegal characters found in a parameter.")
		return
	}
	recvWindow := int64(defaultRecvWindow)
	if v := params.Get("recvWindow"); v != "" {
		if w, err := strconv.ParseInt(v, 10, 64); err == nil && w > 0 {
			recvWindow = w
		}
	}
	drift := s.now() - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > recvWindow {
		apiError(c, http.StatusBadRequest, -1021, "Timestamp for this request is outside of the recvWindow.")
		return
	}

	s.mu.Lock()
	s.orderCalls++
	call := s.orderCalls
	s.mu.Unlock()

	if call <= s.scenario.FailFirst {
		apiError(c, http.StatusServiceUnavailable, -1001, "Internal error; unable to process your request. Please try again.")
		return
	}

	if s.scenario.FatalStatus > 0 {
		code, msg := s.scenario.ErrorCode, s.scenario.ErrorMsg
		if code == 0 {
			code = -1000
		}
		if msg == "" {
			msg = "An unknown error occurred while processing the request."
		}
		apiError(c, s.scenario.FatalStatus, code, msg)
		return
	}

	s.fill(c, params)
}

func (s *Server) fill(c *gin.Context, params url.Values) {
	symbol := params.Get("symbol")
	orderType := params.Get("type")
	qty := params.Get("quantity")

	clientOrderID := params.Get("newClientOrderId")
	if clientOrderID == "" {
		clientOrderID = fmt.Sprintf("web_%d", time.Now().UnixNano())
	}

	s.mu.Lock()
	s.nextOrderID++
	orderID := s.nextOrderID
	s.mu.Unlock()

	tif := params.Get("timeInForce")
	if tif == "" {
		tif = "GTC"
	}

	resp := gin.H{
		"orderId":       orderID,
		"symbol":        symbol,
		"status":        "NEW",
		"clientOrderId": clientOrderID,
		"price":         "0",
		"avgPrice":      "0.00000",
		"origQty":       qty,
		"executedQty":   "0",
		"cumQuote":      "0",
		"timeInForce":   tif,
		"type":          orderType,
		"side":          params.Get("side"),
		"updateTime":    time.Now().UnixMilli(),
	}

	switch orderType {
	case "MARKET":
		price := s.quote(symbol)
		resp["status"] = "FILLED"
		resp["avgPrice"] = price
		resp["executedQty"] = qty
		if q, err := decimal.NewFromString(qty); err == nil {
			if p, err := decimal.NewFromString(price); err == nil {
				resp["cumQuote"] = q.Mul(p).StringFixed(5)
			}
		}
	case "LIMIT":
		if params.Get("price") == "" {
			apiError(c, http.StatusBadRequest, -1102, "Mandatory parameter 'price' was not sent, was empty/null, or malformed.")
			return
		}
		resp["price"] = params.Get("price")
	default:
		apiError(c, http.StatusBadRequest, -1116, "Invalid orderType.")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// quote returns the fill price for a symbol, scenario overrides first.
func (s *Server) quote(symbol string) string {
	if p, ok := s.scenario.Prices[symbol]; ok {
		return p
	}
	if p, ok := defaultPrices[symbol]; ok {
		return p
	}
	return "1000.00"
}

// splitSignature separates the signed payload from the trailing
// signature parameter. The venue signs everything before it.
func splitSignature(raw string) (payload, signature string, ok bool) {
	const marker = "&signature="
	idx := strings.LastIndex(raw, marker)
	if idx < 0 {
		return "", "", false
	}
	return raw[:idx], raw[idx+len(marker):], true
}

func sign(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
