package database

// Migration bookkeeping
const (
	createMigrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`

	selectMigrationsSQL = `SELECT migration_name FROM schema_migrations`

	recordMigrationSQL = `INSERT INTO schema_migrations (migration_name) VALUES ($1)`
)

// Order queries. Money columns travel as text to keep decimal precision.
const (
	NextOrderSequenceSQL = `
		INSERT INTO order_sequences (day, last_value) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = order_sequences.last_value + 1
		RETURNING last_value`

	InsertOrderSQL = `
		INSERT INTO orders (id, number, customer_name, type, table_number, delivery_address,
			notes, total_amount, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $11)`

	InsertOrderLineSQL = `
		INSERT INTO order_lines (order_id, position, dish_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6::numeric)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at, notes)
		VALUES ($1, $2, $3, $4, $5)`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, processed_by = COALESCE($2, processed_by), updated_at = $3,
			completed_at = CASE WHEN $1 IN ('ready', 'completed') THEN $3 ELSE completed_at END
		WHERE number = $4
		RETURNING id::text`

	GetOrderByNumberSQL = `
		SELECT id::text, number, customer_name, type, table_number, delivery_address, notes,
			total_amount::text, priority, status, processed_by, created_at, updated_at, completed_at
		FROM orders WHERE number = $1`

	GetOrderLinesSQL = `
		SELECT dish_id, name, quantity, unit_price::text
		FROM order_lines WHERE order_id = $1::uuid
		ORDER BY position ASC`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = (SELECT id FROM orders WHERE number = $1)
		ORDER BY changed_at ASC, id ASC`
)

// Kitchen station queries
const (
	UpsertStationSQL = `
		INSERT INTO kitchen_stations (name, order_types, status, last_seen)
		VALUES ($1, $2, 'online', NOW())
		ON CONFLICT (name) DO UPDATE SET
			order_types = EXCLUDED.order_types,
			status = 'online',
			last_seen = NOW()`

	UpdateStationStatusSQL = `
		UPDATE kitchen_stations SET status = $1, last_seen = NOW()
		WHERE name = $2`

	StationHeartbeatSQL = `
		UPDATE kitchen_stations SET last_seen = NOW(), orders_processed = orders_processed + $1
		WHERE name = $2`

	GetAllStationsSQL = `
		SELECT name, order_types, status, orders_processed, last_seen
		FROM kitchen_stations
		ORDER BY created_at ASC`
)

// Invoice queries
const (
	InsertInvoiceSQL = `
		INSERT INTO invoices (id, order_number, total, payment_method, payment_status, payment_date, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
		ON CONFLICT (order_number) DO UPDATE SET
			payment_method = EXCLUDED.payment_method,
			payment_status = EXCLUDED.payment_status,
			payment_date = EXCLUDED.payment_date
		RETURNING id::text, created_at`
)
