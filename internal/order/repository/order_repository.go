package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"potracker/internal/domain"
	"potracker/internal/errors"
)

const mysqlDuplicateEntry = 1062

const orderColumns = `id, poNumber, partyName, currency, totalAmount, lineItems, status, createdAt, updatedAt`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// CreateIfAbsent relies on the unique index on poKey, so concurrent inserts of
// the same key resolve to one row and DuplicateKeyError for everyone else.
func (r *MySQLOrderRepository) CreateIfAbsent(ctx context.Context, order domain.Order) (*domain.Order, error) {
	key := order.Key()
	if key == "" {
		return nil, errors.NewValidationError("poNumber is required", errors.ValidationDetail{
			Field:   "poNumber",
			Message: "must not be empty",
		})
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPoReceived
	}

	items, err := json.Marshal(order.LineItems)
	if err != nil {
		return nil, fmt.Errorf("encoding line items: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	query := `
		INSERT INTO PurchaseOrders (poNumber, poKey, partyName, currency, totalAmount, lineItems, status, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		order.PONumber, key, order.PartyName, order.Currency, order.TotalAmount,
		string(items), string(order.Status), now, now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stderrors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, errors.NewDuplicateKeyError(key)
		}
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting inserted id: %w", err)
	}

	order.ID = uint(id)
	order.CreatedAt = now
	order.UpdatedAt = now
	return &order, nil
}

func (r *MySQLOrderRepository) FindExact(ctx context.Context, poNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM PurchaseOrders WHERE poKey = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, domain.NormalizeKey(poNumber)))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order %q not found", poNumber))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by po number: %w", err)
	}
	return order, nil
}

func (r *MySQLOrderRepository) FindFuzzy(ctx context.Context, reference string) (*domain.Order, error) {
	ref := domain.NormalizeKey(reference)
	if ref == "" {
		return nil, errors.NewNotFoundError("empty reference matches no order")
	}

	query := `
		SELECT ` + orderColumns + `
		FROM PurchaseOrders
		WHERE poKey LIKE ? ESCAPE '!'
		ORDER BY id ASC
		LIMIT 1
	`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, "%"+escapeLike(ref)+"%"))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("no order matches reference %q", reference))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by reference: %w", err)
	}
	return order, nil
}

// UpdateStatus locks the row for the duration of the check and the write.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, poNumber string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError("unknown status", errors.ValidationDetail{
			Field:   "status",
			Message: fmt.Sprintf("%q is not a lifecycle status", status),
		})
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	query := `SELECT ` + orderColumns + ` FROM PurchaseOrders WHERE poKey = ? FOR UPDATE`
	order, err := scanOrder(tx.QueryRowContext(ctx, query, domain.NormalizeKey(poNumber)))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order %q not found", poNumber))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order: %w", err)
	}

	if err := checkTransition(order.Status, status); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx, `UPDATE PurchaseOrders SET status = ?, updatedAt = ? WHERE id = ?`, string(status), now, order.ID); err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status update: %w", err)
	}

	order.Status = status
	order.UpdatedAt = now
	return order, nil
}

func (r *MySQLOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM PurchaseOrders ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func (r *MySQLOrderRepository) FindByPONumbers(ctx context.Context, poNumbers []string) ([]domain.Order, error) {
	if len(poNumbers) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(poNumbers))
	args := make([]interface{}, 0, len(poNumbers))
	for i, po := range poNumbers {
		placeholders[i] = "?"
		args = append(args, domain.NormalizeKey(po))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM PurchaseOrders
		WHERE poKey IN (%s)
		ORDER BY id ASC`,
		orderColumns, strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders by po numbers: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order  domain.Order
		items  sql.NullString
		status string
	)
	err := row.Scan(
		&order.ID, &order.PONumber, &order.PartyName, &order.Currency, &order.TotalAmount,
		&items, &status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &order.LineItems); err != nil {
			return nil, fmt.Errorf("decoding line items of %q: %w", order.PONumber, err)
		}
	}
	return &order, nil
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}
	return orders, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
