package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []struct {
	name  string
	query string
}{
	{"PurchaseOrders", `
	CREATE TABLE IF NOT EXISTS PurchaseOrders (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		poNumber VARCHAR(100) NOT NULL,
		poKey VARCHAR(100) NOT NULL,
		partyName VARCHAR(255) NOT NULL DEFAULT '',
		currency VARCHAR(10) NOT NULL DEFAULT '',
		totalAmount DECIMAL(14,2) NOT NULL DEFAULT 0.00,
		lineItems JSON,
		status VARCHAR(50) NOT NULL DEFAULT 'PoReceived',
		createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updatedAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_po_key (poKey)
	)`},
}

// EnsureSchema creates the order tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, tbl := range schema {
		if _, err := db.ExecContext(ctx, tbl.query); err != nil {
			return fmt.Errorf("creating table %s: %w", tbl.name, err)
		}
	}
	return nil
}
