package store

// migration holds a single schema migration with its target version and
// the statements to run for each dialect.
type migration struct {
	version  int
	sqlite   []string
	postgres []string
}

// statements returns the statements for the given dialect.
func (m migration) statements(d dialect) []string {
	if d == dialectPostgres {
		return m.postgres
	}
	return m.sqlite
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sqlite: []string{
			`CREATE TABLE IF NOT EXISTS users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	email      TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS reports (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id             INTEGER NOT NULL REFERENCES users(id),
	location            TEXT NOT NULL,
	waste_type          TEXT NOT NULL,
	amount              TEXT NOT NULL,
	image_url           TEXT,
	verification_result TEXT,
	status              TEXT NOT NULL DEFAULT 'pending',
	created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	collector_id        INTEGER REFERENCES users(id)
)`,
			`CREATE TABLE IF NOT EXISTS rewards (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id         INTEGER NOT NULL REFERENCES users(id),
	points          INTEGER NOT NULL DEFAULT 0,
	level           INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	is_available    INTEGER NOT NULL DEFAULT 1,
	description     TEXT,
	name            TEXT NOT NULL,
	collection_info TEXT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS collected_waste (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id       INTEGER NOT NULL REFERENCES reports(id),
	collector_id    INTEGER NOT NULL REFERENCES users(id),
	collection_date DATETIME NOT NULL,
	status          TEXT NOT NULL DEFAULT 'collected'
)`,
			`CREATE TABLE IF NOT EXISTS notifications (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	message    TEXT NOT NULL,
	type       TEXT NOT NULL,
	is_read    INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
			`CREATE TABLE IF NOT EXISTS transactions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     INTEGER NOT NULL REFERENCES users(id),
	type        TEXT NOT NULL,
	amount      INTEGER NOT NULL,
	description TEXT NOT NULL,
	date        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		},
		postgres: []string{
			`CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	email      VARCHAR(255) NOT NULL UNIQUE,
	name       VARCHAR(255) NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`,
			`CREATE TABLE IF NOT EXISTS reports (
	id                  SERIAL PRIMARY KEY,
	user_id             INTEGER NOT NULL REFERENCES users(id),
	location            TEXT NOT NULL,
	waste_type          VARCHAR(255) NOT NULL,
	amount              VARCHAR(255) NOT NULL,
	image_url           TEXT,
	verification_result TEXT,
	status              VARCHAR(255) NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMP NOT NULL DEFAULT NOW(),
	collector_id        INTEGER REFERENCES users(id)
)`,
			`CREATE TABLE IF NOT EXISTS rewards (
	id              SERIAL PRIMARY KEY,
	user_id         INTEGER NOT NULL REFERENCES users(id),
	points          INTEGER NOT NULL DEFAULT 0,
	level           INTEGER NOT NULL DEFAULT 1,
	created_at      TIMESTAMP NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMP NOT NULL DEFAULT NOW(),
	is_available    BOOLEAN NOT NULL DEFAULT TRUE,
	description     TEXT,
	name            VARCHAR(255) NOT NULL,
	collection_info TEXT NOT NULL
)`,
			`CREATE TABLE IF NOT EXISTS collected_waste (
	id              SERIAL PRIMARY KEY,
	report_id       INTEGER NOT NULL REFERENCES reports(id),
	collector_id    INTEGER NOT NULL REFERENCES users(id),
	collection_date TIMESTAMP NOT NULL,
	status          VARCHAR(20) NOT NULL DEFAULT 'collected'
)`,
			`CREATE TABLE IF NOT EXISTS notifications (
	id         SERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	message    TEXT NOT NULL,
	type       VARCHAR(50) NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL DEFAULT NOW()
)`,
			`CREATE TABLE IF NOT EXISTS transactions (
	id          SERIAL PRIMARY KEY,
	user_id     INTEGER NOT NULL REFERENCES users(id),
	type        VARCHAR(20) NOT NULL,
	amount      INTEGER NOT NULL,
	description TEXT NOT NULL,
	date        TIMESTAMP NOT NULL DEFAULT NOW()
)`,
		},
	},
	{
		version: 2,
		sqlite: []string{
			"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, is_read)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)",
			"CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id)",
		},
		postgres: []string{
			"CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id, is_read)",
			"CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)",
			"CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id)",
		},
	},
}
