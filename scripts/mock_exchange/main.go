package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"futures-trader/internal/mockex"
)

// mock_exchange/main.go
//
// Runs a local stand-in for the venue's USDT-futures REST API so the
// trader can be exercised without touching the testnet:
//
//   go run ./scripts/mock_exchange -secret local-secret
//   BINANCE_BASE_URL=http://127.0.0.1:8090 BINANCE_API_SECRET=local-secret \
//     ./futures-trader -symbol BTCUSDT -side BUY -type MARKET -quantity 0.001
//
// A YAML scenario file scripts failure behavior:
//
//   secret: local-secret
//   fail_first: 2
//   clock_skew_ms: 8000
//   prices:
//     BTCUSDT: "61482.40"

func main() {
	addr := flag.String("addr", "127.0.0.1:8090", "listen address")
	scenarioPath := flag.String("scenario", "", "path to a YAML scenario file")
	secret := flag.String("secret", "", "API secret used to verify signatures (overrides the scenario)")
	flag.Parse()

	var sc mockex.Scenario
	if *scenarioPath != "" {
		loaded, err := mockex.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("scenario load error: %v", err)
		}
		sc = loaded
	}
	if *secret != "" {
		sc.Secret = *secret
	}
	if sc.Secret == "" {
		log.Println("Warning: no secret configured, signature verification disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	venue := mockex.NewServer(sc)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           venue.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("mock exchange listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("mock exchange stopped: %v", err)
	}
}
