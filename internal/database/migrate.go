package database

import (
	"database/sql"
	"log"
)

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so the server can run them on every boot. The unique keys
// declared here are load-bearing: payments.reference is the
// idempotency key for settlement, and the composite key on
// webhook_events is the dedup gate for gateway notifications.
func Migrate(db *sql.DB) error {
	log.Println("Running database migrations...")

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS packages (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			code VARCHAR(16) NOT NULL,
			name VARCHAR(191) NOT NULL,
			package_type ENUM('FULL','TWO_DAY','CORPORATE_OWAMBE','CORPORATE_PLUS') NOT NULL DEFAULT 'FULL',
			price_kobo BIGINT NOT NULL,
			benefits TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY ux_packages_code (code)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS students (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			matric_number VARCHAR(64) NOT NULL,
			full_name VARCHAR(191) NOT NULL,
			email VARCHAR(191) NULL,
			phone VARCHAR(32) NULL,
			package_id BIGINT UNSIGNED NULL,
			selected_days VARCHAR(128) NOT NULL DEFAULT '',
			total_paid_kobo BIGINT NOT NULL DEFAULT 0,
			payment_status ENUM('NOT_PAID','PARTIALLY_PAID','FULLY_PAID') NOT NULL DEFAULT 'NOT_PAID',
			invite_image_url VARCHAR(512) NULL,
			invite_generated_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY ux_students_matric (matric_number),
			KEY ix_students_status (payment_status),
			KEY ix_students_package (package_id),
			CONSTRAINT fk_students_package FOREIGN KEY (package_id) REFERENCES packages (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS payments (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			student_id BIGINT UNSIGNED NOT NULL,
			package_id_at_time BIGINT UNSIGNED NOT NULL,
			amount_kobo BIGINT NOT NULL,
			reference VARCHAR(64) NOT NULL,
			status ENUM('PENDING','SUCCESS','FAILED') NOT NULL DEFAULT 'PENDING',
			paid_at DATETIME NULL,
			raw_payload MEDIUMTEXT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY ux_payments_reference (reference),
			KEY ix_payments_student_status (student_id, status),
			CONSTRAINT fk_payments_student FOREIGN KEY (student_id) REFERENCES students (id),
			CONSTRAINT fk_payments_package FOREIGN KEY (package_id_at_time) REFERENCES packages (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS webhook_events (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			event_id VARCHAR(128) NOT NULL,
			reference VARCHAR(64) NOT NULL,
			event VARCHAR(64) NOT NULL,
			processed_at DATETIME NOT NULL,
			raw_payload MEDIUMTEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY ux_webhook_events_event_ref (event_id, reference),
			KEY ix_webhook_events_reference (reference)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	log.Println("Database migrations completed")
	return nil
}
