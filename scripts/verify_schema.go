package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// verify_schema.go checks that an order journal carries the expected
// schema. Usage: go run scripts/verify_schema.go [path-to-orders.db]

func main() {
	dbPath := "data/orders.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}
	fmt.Printf("Verifying journal at: %s\n", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	// 1. Verify orders table
	fmt.Println("\n1. Verifying orders table...")
	var sqlSchema string
	err = db.QueryRow("SELECT sql FROM sqlite_master WHERE type='table' AND name='orders'").Scan(&sqlSchema)
	if err != nil {
		log.Fatalf("orders table missing: %v", err)
	}
	fmt.Println("✓ orders table exists")

	// 2. Verify required columns
	fmt.Println("\n2. Verifying columns...")
	for _, col := range []string{"client_order_id", "order_id", "status", "failure_kind", "attempts", "created_at"} {
		if strings.Contains(sqlSchema, col) {
			fmt.Printf("✓ %s column exists\n", col)
		} else {
			fmt.Printf("❌ %s column MISSING\n", col)
		}
	}

	// 3. Verify WAL journaling
	fmt.Println("\n3. Verifying journal mode...")
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	if strings.EqualFold(mode, "wal") {
		fmt.Println("✓ WAL journaling enabled")
	} else {
		fmt.Printf("❌ journal_mode=%s, expected wal\n", mode)
	}
}
