package notify

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS customers (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS workers (
    id UUID PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    order_number VARCHAR(50) NOT NULL,
    status VARCHAR(50) DEFAULT 'submitted',
    customer_id UUID REFERENCES customers(id),
    assigned_worker_id UUID REFERENCES workers(id),
    scheduled_date DATE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS surveys (
    id UUID PRIMARY KEY,
    order_id UUID REFERENCES orders(id) ON DELETE CASCADE,
    status VARCHAR(50) DEFAULT 'submitted',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_surveys_order_id ON surveys(order_id);

CREATE OR REPLACE FUNCTION notify_order_update() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify(
        'order_update_' || NEW.id::text,
        json_build_object(
            'type', TG_OP,
            'table', TG_TABLE_NAME,
            'old', row_to_json(OLD),
            'new', row_to_json(NEW)
        )::text
    );
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION notify_survey_change() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify(
        'survey_change_' || COALESCE(NEW.order_id, OLD.order_id)::text,
        json_build_object(
            'type', TG_OP,
            'table', TG_TABLE_NAME,
            'old', row_to_json(OLD),
            'new', row_to_json(NEW)
        )::text
    );
    RETURN COALESCE(NEW, OLD);
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS orders_notify_update ON orders;
CREATE TRIGGER orders_notify_update AFTER UPDATE ON orders
    FOR EACH ROW EXECUTE FUNCTION notify_order_update();

DROP TRIGGER IF EXISTS surveys_notify_change ON surveys;
CREATE TRIGGER surveys_notify_change AFTER INSERT OR UPDATE OR DELETE ON surveys
    FOR EACH ROW EXECUTE FUNCTION notify_survey_change();
`

// pgStore implements Store using PostgreSQL.
type pgStore struct {
	db *sql.DB
}

func newPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) ApplySchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaDDL)
	if err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *pgStore) GetOrder(ctx context.Context, id string) (*OrderRow, error) {
	var o OrderRow
	var worker sql.NullString
	var scheduled sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT id, order_number, status, customer_id, assigned_worker_id, scheduled_date FROM orders WHERE id = $1",
		id,
	).Scan(&o.ID, &o.OrderNumber, &o.Status, &o.CustomerID, &worker, &scheduled)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &RouteError{Op: "GetOrder", OrderID: id, Err: ErrOrderNotFound}
		}
		return nil, fmt.Errorf("error fetching order: %w", err)
	}
	o.AssignedWorkerID = worker.String
	if scheduled.Valid {
		o.ScheduledDate = scheduled.Time.Format("2006-01-02")
	}
	return &o, nil
}

func (s *pgStore) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email FROM customers WHERE id = $1", id,
	).Scan(&c.ID, &c.Name, &c.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &RouteError{Op: "GetCustomer", Err: ErrCustomerNotFound}
		}
		return nil, fmt.Errorf("error fetching customer: %w", err)
	}
	return &c, nil
}

func (s *pgStore) GetWorker(ctx context.Context, id string) (*Worker, error) {
	var w Worker
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name FROM workers WHERE id = $1", id,
	).Scan(&w.ID, &w.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &RouteError{Op: "GetWorker", Err: ErrWorkerNotFound}
		}
		return nil, fmt.Errorf("error fetching worker: %w", err)
	}
	return &w, nil
}
