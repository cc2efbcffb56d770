package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/bank-customer-api/internal/models"
	"github.com/hongminglow/bank-customer-api/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users, credentials and grants.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store, runs migrations and seeds the role catalogue.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.seed(ctx, storage.DefaultSeed()); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) seed(ctx context.Context, seed storage.Seed) error {
	batch := &pgx.Batch{}
	for _, r := range seed.Roles {
		batch.Queue(`INSERT INTO roles (id, name, description, is_active) VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
			r.ID, r.Name, r.Description, r.Active)
	}
	for _, p := range seed.Permissions {
		batch.Queue(`INSERT INTO permissions (id, name, description, module, is_active) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Description, p.Module, p.Active)
	}
	for _, rp := range seed.RolePermissions {
		batch.Queue(`INSERT INTO role_permissions (id, role_id, permission_id, is_active) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
			rp.ID, rp.RoleID, rp.PermissionID, rp.Active)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

const userColumns = `u.id, u.user_type, u.first_name, u.last_name, u.email, u.phone_number, u.date_of_birth,
	u.address, u.identification_number, u.is_active, u.department, u.position, u.years_of_experience,
	u.last_action_at, u.admin_level, u.created_at, u.updated_at`

// FindActiveUserByEmail fetches an active user by exact email.
func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND u.is_active LIMIT 1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// EmailExists reports whether any user, active or not, uses email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

const credentialColumns = `id, user_id, password_hash, password_salt, failed_login_attempts, is_locked,
	locked_until, last_password_change, created_at`

// UpdateCredential locks the credential row with SELECT ... FOR UPDATE for the
// duration of fn and writes the result in the same transaction.
func (s *Store) UpdateCredential(ctx context.Context, userID int64, fn storage.CredentialUpdater) (models.Credential, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Credential{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + credentialColumns + ` FROM user_credentials WHERE user_id = $1 FOR UPDATE`
	cred, err := scanCredential(tx.QueryRow(ctx, query, userID))
	if err != nil {
		return models.Credential{}, err
	}
	if err := fn(&cred); err != nil {
		return models.Credential{}, err
	}

	const update = `
	UPDATE user_credentials
	SET failed_login_attempts = $2, is_locked = $3, locked_until = $4,
		password_hash = $5, password_salt = $6, last_password_change = $7
	WHERE id = $1`
	if _, err := tx.Exec(ctx, update, cred.ID, cred.FailedLoginAttempts, cred.IsLocked, cred.LockedUntil,
		cred.PasswordHash, cred.PasswordKey, cred.LastPasswordChange); err != nil {
		return models.Credential{}, fmt.Errorf("update credential: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Credential{}, fmt.Errorf("commit credential: %w", err)
	}
	return cred, nil
}

// LoadGrantGraph reads the user's grants and everything they reference.
func (s *Store) LoadGrantGraph(ctx context.Context, userID int64) (models.GrantGraph, error) {
	graph := models.GrantGraph{
		Roles:       map[int64]models.Role{},
		Permissions: map[int64]models.Permission{},
		Banks:       map[int64]models.Bank{},
		Accounts:    map[int64]models.Account{},
	}

	rows, err := s.pool.Query(ctx, `
	SELECT id, user_id, role_id, bank_id, account_id, assigned_date, expiry_date, is_active
	FROM user_roles WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return graph, fmt.Errorf("query grants: %w", err)
	}
	graph.Grants, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.UserRoleGrant, error) {
		var g models.UserRoleGrant
		err := row.Scan(&g.ID, &g.UserID, &g.RoleID, &g.BankID, &g.AccountID, &g.AssignedAt, &g.ExpiresAt, &g.Active)
		return g, err
	})
	if err != nil {
		return graph, fmt.Errorf("scan grants: %w", err)
	}
	if len(graph.Grants) == 0 {
		return graph, nil
	}

	rows, err = s.pool.Query(ctx, `
	SELECT r.id, r.name, COALESCE(r.description, ''), r.is_active
	FROM roles r WHERE r.id IN (SELECT role_id FROM user_roles WHERE user_id = $1)`, userID)
	if err != nil {
		return graph, fmt.Errorf("query roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Role, error) {
		var r models.Role
		err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Active)
		return r, err
	})
	if err != nil {
		return graph, fmt.Errorf("scan roles: %w", err)
	}
	for _, r := range roles {
		graph.Roles[r.ID] = r
	}

	rows, err = s.pool.Query(ctx, `
	SELECT rp.id, rp.role_id, rp.permission_id, rp.is_active,
		p.name, COALESCE(p.description, ''), p.module, p.is_active
	FROM role_permissions rp
	JOIN permissions p ON p.id = rp.permission_id
	WHERE rp.role_id IN (SELECT role_id FROM user_roles WHERE user_id = $1)
	ORDER BY rp.id`, userID)
	if err != nil {
		return graph, fmt.Errorf("query role permissions: %w", err)
	}
	for rows.Next() {
		var rp models.RolePermission
		var p models.Permission
		if err := rows.Scan(&rp.ID, &rp.RoleID, &rp.PermissionID, &rp.Active, &p.Name, &p.Description, &p.Module, &p.Active); err != nil {
			rows.Close()
			return graph, fmt.Errorf("scan role permissions: %w", err)
		}
		p.ID = rp.PermissionID
		graph.RolePermissions = append(graph.RolePermissions, rp)
		graph.Permissions[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return graph, fmt.Errorf("iterate role permissions: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
	SELECT a.id, a.bank_id, a.account_number
	FROM accounts a WHERE a.id IN (SELECT account_id FROM user_roles WHERE user_id = $1 AND account_id IS NOT NULL)`, userID)
	if err != nil {
		return graph, fmt.Errorf("query accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Account, error) {
		var a models.Account
		err := row.Scan(&a.ID, &a.BankID, &a.AccountNumber)
		return a, err
	})
	if err != nil {
		return graph, fmt.Errorf("scan accounts: %w", err)
	}
	for _, a := range accounts {
		graph.Accounts[a.ID] = a
	}

	rows, err = s.pool.Query(ctx, `
	SELECT b.id, b.name FROM banks b
	WHERE b.id IN (
		SELECT bank_id FROM user_roles WHERE user_id = $1 AND bank_id IS NOT NULL
		UNION
		SELECT a.bank_id FROM accounts a JOIN user_roles ur ON ur.account_id = a.id WHERE ur.user_id = $1
	)`, userID)
	if err != nil {
		return graph, fmt.Errorf("query banks: %w", err)
	}
	banks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Bank, error) {
		var b models.Bank
		err := row.Scan(&b.ID, &b.Name)
		return b, err
	})
	if err != nil {
		return graph, fmt.Errorf("scan banks: %w", err)
	}
	for _, b := range banks {
		graph.Banks[b.ID] = b
	}

	return graph, nil
}

// CreateUser inserts the user, its credential and the default grant in one
// transaction.
func (s *Store) CreateUser(ctx context.Context, user models.User, cred models.Credential, defaultRole string) (models.User, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var department, position, adminLevel *string
	var years *int
	var lastAction *time.Time
	if user.Admin != nil {
		department = nullableString(user.Admin.Department)
		position = nullableString(user.Admin.Position)
		years = user.Admin.YearsOfExperience
		lastAction = user.Admin.LastActionAt
		adminLevel = nullableString(string(user.Admin.Level))
	}

	const insertUser = `
	INSERT INTO users (user_type, first_name, last_name, email, phone_number, date_of_birth, address,
		identification_number, is_active, department, position, years_of_experience, last_action_at,
		admin_level, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id`
	err = tx.QueryRow(ctx, insertUser, user.Kind.String(), user.FirstName, user.LastName, user.Email,
		user.PhoneNumber, user.DateOfBirth, user.Address, user.IdentificationNumber, user.Active,
		department, position, years, lastAction, adminLevel, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	const insertCredential = `
	INSERT INTO user_credentials (user_id, password_hash, password_salt, failed_login_attempts, is_locked,
		locked_until, last_password_change, created_at)
	VALUES ($1, $2, $3, 0, FALSE, NULL, $4, $5)`
	if _, err := tx.Exec(ctx, insertCredential, user.ID, cred.PasswordHash, cred.PasswordKey,
		cred.LastPasswordChange, cred.CreatedAt); err != nil {
		return models.User{}, fmt.Errorf("insert credential: %w", err)
	}

	const insertGrant = `
	INSERT INTO user_roles (user_id, role_id, bank_id, account_id, assigned_date, expiry_date, is_active)
	SELECT $1, r.id, NULL, NULL, $3, NULL, TRUE FROM roles r WHERE r.name = $2`
	if _, err := tx.Exec(ctx, insertGrant, user.ID, defaultRole, user.CreatedAt); err != nil {
		return models.User{}, fmt.Errorf("assign default role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.User{}, fmt.Errorf("commit user: %w", err)
	}
	return user, nil
}

// SetUserActive activates or deactivates a user.
func (s *Store) SetUserActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row)
	})
}

// UpdateUserProfile overwrites the editable profile fields and returns the
// stored user.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, update models.ProfileUpdate, at time.Time) (models.User, error) {
	query := `
	UPDATE users u
	SET first_name = $2, last_name = $3, phone_number = $4, address = $5, updated_at = $6
	WHERE u.id = $1
	RETURNING ` + userColumns
	return scanUser(s.pool.QueryRow(ctx, query, id, update.FirstName, update.LastName,
		update.PhoneNumber, update.Address, at))
}

// DeleteUser removes an inactive user. Credentials and grants cascade; guardian
// edges are deleted explicitly.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	if err := tx.QueryRow(ctx, `SELECT is_active FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("lock user: %w", err)
	}
	if active {
		return storage.ErrUserActive
	}

	if _, err := tx.Exec(ctx, `DELETE FROM guardian_relationships WHERE guardian_user_id = $1 OR minor_user_id = $1`, id); err != nil {
		return fmt.Errorf("delete guardianships: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// ListGuardianships returns relationships where userID is guardian or minor.
func (s *Store) ListGuardianships(ctx context.Context, userID int64) ([]models.GuardianRelationship, error) {
	rows, err := s.pool.Query(ctx, `
	SELECT id, guardian_user_id, minor_user_id, relationship_type, established_date, expiry_date, is_active
	FROM guardian_relationships
	WHERE guardian_user_id = $1 OR minor_user_id = $1
	ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query guardianships: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GuardianRelationship, error) {
		var g models.GuardianRelationship
		err := row.Scan(&g.ID, &g.GuardianUserID, &g.MinorUserID, &g.RelationshipType, &g.EstablishedAt, &g.ExpiresAt, &g.Active)
		return g, err
	})
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user       models.User
		kind       string
		department *string
		position   *string
		years      *int
		lastAction *time.Time
		adminLevel *string
	)
	err := row.Scan(&user.ID, &kind, &user.FirstName, &user.LastName, &user.Email, &user.PhoneNumber,
		&user.DateOfBirth, &user.Address, &user.IdentificationNumber, &user.Active, &department, &position,
		&years, &lastAction, &adminLevel, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}

	user.Kind = models.ParseUserKind(kind)
	if user.Kind.IsAdministrative() {
		user.Admin = &models.AdminProfile{
			Department:        deref(department),
			Position:          deref(position),
			YearsOfExperience: years,
			LastActionAt:      lastAction,
		}
		if user.Kind == models.KindSysAdmin {
			user.Admin.Level, _ = models.ParseAdminLevel(deref(adminLevel))
		}
	}
	return user, nil
}

func scanCredential(row pgx.Row) (models.Credential, error) {
	var cred models.Credential
	err := row.Scan(&cred.ID, &cred.UserID, &cred.PasswordHash, &cred.PasswordKey, &cred.FailedLoginAttempts,
		&cred.IsLocked, &cred.LockedUntil, &cred.LastPasswordChange, &cred.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, storage.ErrNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
