package db

const (
	InsertJob = `
		INSERT INTO print_jobs (id, order_id, print_data, status, attempts)
		VALUES (?, ?, ?, 'pending', 0)
	`

	GetJobByID = `
		SELECT id, order_id, print_data, status, attempts, error_message, created_at, processed_at
		FROM print_jobs WHERE id = ?
	`

	GetDueJobs = `
		SELECT id, order_id, print_data, status, attempts, error_message, created_at, processed_at
		FROM print_jobs
		WHERE status = 'pending' AND attempts < ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	GetPendingJobByOrder = `
		SELECT id, order_id, print_data, status, attempts, error_message, created_at, processed_at
		FROM print_jobs
		WHERE order_id = ? AND status = 'pending'
		ORDER BY created_at ASC
		LIMIT 1
	`

	ListJobsByStatus = `
		SELECT id, order_id, print_data, status, attempts, error_message, created_at, processed_at
		FROM print_jobs WHERE status = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	ListJobs = `
		SELECT id, order_id, print_data, status, attempts, error_message, created_at, processed_at
		FROM print_jobs
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`

	ClaimJobAttempt = `
		UPDATE print_jobs SET attempts = attempts + 1
		WHERE id = ? AND status = 'pending'
	`

	MarkJobPrinted = `
		UPDATE print_jobs SET status = 'printed', error_message = '', processed_at = ?
		WHERE id = ? AND status = 'pending'
	`

	MarkJobFailed = `
		UPDATE print_jobs SET status = 'failed', error_message = ?, processed_at = ?
		WHERE id = ? AND status = 'pending'
	`

	RecordJobError = `
		UPDATE print_jobs SET error_message = ?
		WHERE id = ? AND status = 'pending'
	`

	ResetJobForRetry = `
		UPDATE print_jobs
		SET status = 'pending', attempts = 0, error_message = '', processed_at = NULL
		WHERE id = ? AND status = 'failed'
	`

	CountJobsByStatus = `
		SELECT status, COUNT(*) FROM print_jobs GROUP BY status
	`
)

const (
	InsertOrder = `
		INSERT INTO orders (id, order_number, payload)
		VALUES (?, ?, ?)
	`

	GetOrderByID = `
		SELECT id, order_number, payload, print_status, print_attempts, created_at
		FROM orders WHERE id = ?
	`

	UpdateOrderPrintStatus = `
		UPDATE orders SET print_status = ?, print_attempts = ? WHERE id = ?
	`
)

const (
	GetSetting = `SELECT value, encrypted FROM settings WHERE key = ?`

	SetSetting = `
		INSERT INTO settings (key, value, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, encrypted = ?, updated_at = CURRENT_TIMESTAMP
	`
)
