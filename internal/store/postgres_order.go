package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bakery-admin-service/internal/domain"
)

const orderSelectColumns = `
	SELECT order_id, user_id, status, total_amount, remark, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...interface{}) error }, o *domain.Order) error {
	return row.Scan(&o.OrderID, &o.UserID, &o.Status, &o.TotalAmount, &o.Remark, &o.CreatedAt, &o.UpdatedAt)
}

// --- OrderStorer Implementation ---

// GetOrderByID loads an order together with its item lines.
func (s *PostgresStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := orderSelectColumns + `
		FROM bakery.orders
		WHERE order_id = $1;
	`
	var order domain.Order
	err := scanOrder(s.db.QueryRowContext(ctx, query, id), &order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to scan row: %w", err)
	}

	itemsQuery := `
		SELECT order_item_id, order_id, product_id, quantity, unit_price, subtotal
		FROM bakery.order_items
		WHERE order_id = $1
		ORDER BY order_item_id ASC;
	`
	rows, err := s.db.QueryContext(ctx, itemsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("store: GetOrderByID failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.OrderItemID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("store: GetOrderByID failed to scan order item row: %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: GetOrderByID iteration error: %w", err)
	}
	order.Items = items
	return &order, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, params ListParams) ([]domain.Order, int, error) {
	countQuery := `SELECT COUNT(*) FROM bakery.orders;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to count orders: %w", err)
	}

	if totalCount == 0 {
		return []domain.Order{}, 0, nil
	}

	query := orderSelectColumns + `
		FROM bakery.orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.db.QueryContext(ctx, query, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0, params.PageSize)
	for rows.Next() {
		var o domain.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, 0, fmt.Errorf("store: ListOrders failed to scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListOrders iteration error: %w", err)
	}

	return orders, totalCount, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	query := `
		UPDATE bakery.orders
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE order_id = $2
		RETURNING order_id, user_id, status, total_amount, remark, created_at, updated_at;
	`
	var updatedOrder domain.Order
	err := scanOrder(s.db.QueryRowContext(ctx, query, status, orderID), &updatedOrder)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: UpdateOrderStatus failed to scan row: %w", err)
	}
	return &updatedOrder, nil
}
