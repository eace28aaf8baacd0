package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"futures-trader/internal/journal"
	"futures-trader/internal/logging"
	"futures-trader/internal/order"
	"futures-trader/internal/report"
	"futures-trader/pkg/binance/futures"
	"futures-trader/pkg/config"
	"futures-trader/pkg/exchange"
)

// Exit codes, one per failure family.
const (
	exitOK            = 0
	exitUnexpected    = 1
	exitValidation    = 2
	exitConfiguration = 3
	exitAPI           = 4
	exitNetwork       = 5
)

type cliArgs struct {
	symbol    string
	side      string
	orderType string
	quantity  string
	price     string
	recent    int
	envFile   string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("futures-trader", flag.ContinueOnError)

	var a cliArgs
	fs.StringVar(&a.symbol, "symbol", "", "trading pair, e.g. BTCUSDT")
	fs.StringVar(&a.side, "side", "", "BUY or SELL")
	fs.StringVar(&a.orderType, "type", "", "MARKET or LIMIT")
	fs.StringVar(&a.quantity, "quantity", "", "order quantity in the base asset")
	fs.StringVar(&a.price, "price", "", "limit price, LIMIT orders only")
	fs.IntVar(&a.recent, "recent", 0, "print the last N journalled orders and exit")
	fs.StringVar(&a.envFile, "env", "", "path to an env file (default: .env when present)")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}

	cfg, err := config.Load(a.envFile)
	if err != nil {
		fmt.Println(report.ConfigError(err))
		return exitConfiguration
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Println(report.ConfigError(err))
		return exitConfiguration
	}
	defer func() { _ = logger.Sync() }()

	if a.recent > 0 {
		return showRecent(cfg.JournalPath, a.recent)
	}

	sink := logging.NewSink(logger)

	client := futures.NewClient(futures.Config{
		APIKey:     cfg.APIKey,
		APISecret:  cfg.APISecret,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Backoff:    cfg.Backoff,
		RecvWindow: cfg.RecvWindow,
	}, futures.WithSink(sink))

	svc := order.NewService(client, order.NewIDGenerator(), sink)

	ord, err := svc.Prepare(order.Input{
		Symbol:   a.symbol,
		Side:     a.side,
		Type:     a.orderType,
		Quantity: a.quantity,
		Price:    a.price,
	})
	if err != nil {
		return reportFailure(err)
	}

	fmt.Println(report.RequestSummary(ord))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TimeSync {
		if err := client.SyncTime(ctx); err != nil {
			logger.Warn("time sync failed, using local clock", zap.Error(err))
		}
	}

	res, err := svc.Submit(ctx, ord)
	journalOutcome(logger, cfg.JournalPath, ord, res, err)
	if err != nil {
		return reportFailure(err)
	}

	fmt.Println(report.Result(res))
	return exitOK
}

// journalOutcome records the submission, best effort. A broken journal
// never fails an order that the venue already answered.
func journalOutcome(logger *zap.Logger, path string, ord exchange.Order, res exchange.OrderResult, submitErr error) {
	j, err := journal.Open(path)
	if err != nil {
		logger.Warn("journal unavailable", zap.Error(err))
		return
	}
	defer j.Close()

	e := journal.Entry{
		ClientOrderID: ord.ClientOrderID,
		Symbol:        ord.Symbol,
		Side:          string(ord.Side),
		Type:          string(ord.Type),
		Quantity:      ord.Quantity.String(),
	}
	if ord.Price.Valid {
		e.Price = ord.Price.Decimal.String()
	}

	if submitErr != nil {
		f, ok := exchange.AsFailure(submitErr)
		if !ok {
			f = exchange.Unexpectedf("%v", submitErr)
		}
		e.FailureKind = string(f.Kind)
		e.FailureMessage = f.Error()
		e.Attempts = f.Attempts
	} else {
		e.OrderID = res.OrderID
		e.Status = string(res.Status)
		e.ExecutedQty = res.ExecutedQty.String()
		if res.AvgPrice.Valid {
			e.AvgPrice = res.AvgPrice.Decimal.String()
		}
	}

	if err := j.Record(context.Background(), e); err != nil {
		logger.Warn("journal write failed", zap.Error(err))
	}
}

func showRecent(path string, n int) int {
	j, err := journal.Open(path)
	if err != nil {
		fmt.Println(report.ConfigError(err))
		return exitConfiguration
	}
	defer j.Close()

	entries, err := j.Recent(context.Background(), n)
	if err != nil {
		return reportFailure(err)
	}

	fmt.Println(report.Recent(entries))
	return exitOK
}

func reportFailure(err error) int {
	f, ok := exchange.AsFailure(err)
	if !ok {
		f = exchange.Unexpectedf("%v", err)
	}
	fmt.Println(report.Failure(f))
	return exitCode(f.Kind)
}

func exitCode(kind exchange.FailureKind) int {
	switch kind {
	case exchange.FailureValidation:
		return exitValidation
	case exchange.FailureAPI:
		return exitAPI
	case exchange.FailureNetwork:
		return exitNetwork
	default:
		return exitUnexpected
	}
}
