package postgres

// migrations are idempotent and applied in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		user_type TEXT NOT NULL DEFAULT 'NormalUser',
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		address TEXT NOT NULL,
		identification_number TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		department TEXT,
		position TEXT,
		years_of_experience INT,
		last_action_at TIMESTAMPTZ,
		admin_level TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_active_email_unique_idx ON users (email) WHERE is_active;`,
	`CREATE TABLE IF NOT EXISTS user_credentials (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		password_hash TEXT NOT NULL,
		password_salt TEXT NOT NULL,
		failed_login_attempts INT NOT NULL DEFAULT 0 CHECK (failed_login_attempts >= 0),
		is_locked BOOLEAN NOT NULL DEFAULT FALSE,
		locked_until TIMESTAMPTZ,
		last_password_change TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGINT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS permissions (
		id BIGINT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT,
		module TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS role_permissions (
		id BIGINT PRIMARY KEY,
		role_id BIGINT NOT NULL REFERENCES roles(id),
		permission_id BIGINT NOT NULL REFERENCES permissions(id),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (role_id, permission_id)
	);`,
	`CREATE TABLE IF NOT EXISTS banks (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		bank_id BIGINT NOT NULL REFERENCES banks(id),
		account_number TEXT UNIQUE NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id BIGINT NOT NULL REFERENCES roles(id),
		bank_id BIGINT REFERENCES banks(id),
		account_id BIGINT REFERENCES accounts(id),
		assigned_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expiry_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE INDEX IF NOT EXISTS user_roles_user_idx ON user_roles (user_id);`,
	`CREATE TABLE IF NOT EXISTS guardian_relationships (
		id BIGSERIAL PRIMARY KEY,
		guardian_user_id BIGINT NOT NULL REFERENCES users(id),
		minor_user_id BIGINT NOT NULL REFERENCES users(id),
		relationship_type TEXT NOT NULL,
		established_date TIMESTAMPTZ NOT NULL,
		expiry_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		CHECK (guardian_user_id <> minor_user_id)
	);`,
}
