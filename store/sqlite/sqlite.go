/*
Package sqlite provides a SQLite-backed implementation of the leave engine's
storage interfaces.

PURPOSE:
  Implements EmployeeStore, CompanyStore, LeaveStore, and DeductionStore on
  SQLite. The same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  companies:         Company records with the leave policy as JSON
  employees:         Employee aggregates (usage, accrual state, snapshots)
  leaves:            Leave requests with per-type allocations
  unpaid_deductions: One ledger row per employee-month, UNIQUE constrained

REPRESENTATION:
  Day quantities are stored as decimal strings, never floats, so nothing is
  lost round-tripping through the database. Dates are ISO strings; absent
  dates are NULL.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers don't
  block, single writer at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/leave.db")   // or ":memory:" for tests
  if err != nil { ... }
  defer st.Close()
  engine := leave.NewEngine(st, st, st, st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// Store implements all leave engine storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// Compile-time interface checks
var (
	_ leave.EmployeeStore  = (*Store)(nil)
	_ leave.CompanyStore   = (*Store)(nil)
	_ leave.LeaveStore     = (*Store)(nil)
	_ leave.DeductionStore = (*Store)(nil)
)

// New creates a new SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		policy_json TEXT
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		joining_date TEXT,
		created_at TEXT NOT NULL,
		used_paid TEXT NOT NULL DEFAULT '0',
		used_casual TEXT NOT NULL DEFAULT '0',
		used_sick TEXT NOT NULL DEFAULT '0',
		used_unpaid TEXT NOT NULL DEFAULT '0',
		manual_adjustment TEXT NOT NULL DEFAULT '0',
		last_accrued_month TEXT NOT NULL DEFAULT '',
		total_available TEXT NOT NULL DEFAULT '0',
		balances_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company
		ON employees(company_id);

	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		alloc_paid TEXT NOT NULL DEFAULT '0',
		alloc_casual TEXT NOT NULL DEFAULT '0',
		alloc_sick TEXT NOT NULL DEFAULT '0',
		alloc_unpaid TEXT NOT NULL DEFAULT '0',
		reason TEXT
	);

	-- Hot path: approved-leave overlap queries per employee
	CREATE INDEX IF NOT EXISTS idx_leaves_employee_status_dates
		ON leaves(employee_id, status, start_date, end_date);

	CREATE TABLE IF NOT EXISTS unpaid_deductions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		month TEXT NOT NULL,
		taken TEXT NOT NULL DEFAULT '0',
		carry_before TEXT NOT NULL DEFAULT '0',
		available TEXT NOT NULL DEFAULT '0',
		max_deductable TEXT NOT NULL DEFAULT '0',
		deducted TEXT NOT NULL DEFAULT '0',
		carry_after TEXT NOT NULL DEFAULT '0',
		UNIQUE(employee_id, month)
	);

	CREATE INDEX IF NOT EXISTS idx_deductions_employee
		ON unpaid_deductions(employee_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SCAN/FORMAT HELPERS
// =============================================================================

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullableDate(d *leave.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func scanDate(s sql.NullString) *leave.Date {
	if !s.Valid {
		return nil
	}
	d, ok := leave.ParseDate(s.String)
	if !ok {
		return nil
	}
	return &d
}

// =============================================================================
// COMPANIES
// =============================================================================

func (s *Store) GetCompany(ctx context.Context, id string) (*leave.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, policy_json FROM companies WHERE id = ?`, id)

	var c leave.Company
	var policyJSON sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &policyJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if policyJSON.Valid && policyJSON.String != "" {
		var p leave.LeavePolicy
		if err := json.Unmarshal([]byte(policyJSON.String), &p); err != nil {
			return nil, fmt.Errorf("failed to decode policy for company %s: %w", id, err)
		}
		c.Policy = &p
	}
	return &c, nil
}

func (s *Store) SaveCompany(ctx context.Context, c *leave.Company) error {
	var policyJSON any
	if c.Policy != nil {
		b, err := json.Marshal(c.Policy)
		if err != nil {
			return err
		}
		policyJSON = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, policy_json) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, policy_json = excluded.policy_json`,
		c.ID, c.Name, policyJSON)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, company_id, name, joining_date, created_at,
	used_paid, used_casual, used_sick, used_unpaid,
	manual_adjustment, last_accrued_month, total_available, balances_json`

func (s *Store) scanEmployee(row interface{ Scan(...any) error }) (*leave.Employee, error) {
	var e leave.Employee
	var joining sql.NullString
	var createdAt string
	var usedPaid, usedCasual, usedSick, usedUnpaid string
	var manualAdj, totalAvail string
	var lastMonth string
	var balancesJSON sql.NullString

	err := row.Scan(&e.ID, &e.CompanyID, &e.Name, &joining, &createdAt,
		&usedPaid, &usedCasual, &usedSick, &usedUnpaid,
		&manualAdj, &lastMonth, &totalAvail, &balancesJSON)
	if err != nil {
		return nil, err
	}

	e.JoiningDate = scanDate(joining)
	if d, ok := leave.ParseDate(createdAt); ok {
		e.CreatedAt = d
	}
	e.Usage = leave.Usage{Paid: dec(usedPaid), Casual: dec(usedCasual), Sick: dec(usedSick), Unpaid: dec(usedUnpaid)}
	e.Accrual = leave.AccrualState{ManualAdjustment: dec(manualAdj), LastAccruedMonth: leave.MonthKey(lastMonth)}
	e.TotalAvailable = dec(totalAvail)
	if balancesJSON.Valid && balancesJSON.String != "" {
		if err := json.Unmarshal([]byte(balancesJSON.String), &e.Balances); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := s.scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context) ([]*leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		e, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) SaveEmployee(ctx context.Context, e *leave.Employee) error {
	balances, err := json.Marshal(e.Balances)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, company_id, name, joining_date, created_at,
			used_paid, used_casual, used_sick, used_unpaid,
			manual_adjustment, last_accrued_month, total_available, balances_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			joining_date = excluded.joining_date,
			created_at = excluded.created_at,
			used_paid = excluded.used_paid,
			used_casual = excluded.used_casual,
			used_sick = excluded.used_sick,
			used_unpaid = excluded.used_unpaid,
			manual_adjustment = excluded.manual_adjustment,
			last_accrued_month = excluded.last_accrued_month,
			total_available = excluded.total_available,
			balances_json = excluded.balances_json`,
		e.ID, e.CompanyID, e.Name, nullableDate(e.JoiningDate), e.CreatedAt.String(),
		e.Usage.Paid.String(), e.Usage.Casual.String(), e.Usage.Sick.String(), e.Usage.Unpaid.String(),
		e.Accrual.ManualAdjustment.String(), string(e.Accrual.LastAccruedMonth),
		e.TotalAvailable.String(), string(balances))
	return err
}

// =============================================================================
// LEAVES
// =============================================================================

const leaveColumns = `id, employee_id, company_id, start_date, end_date, status,
	alloc_paid, alloc_casual, alloc_sick, alloc_unpaid, reason`

func (s *Store) CreateLeave(ctx context.Context, l *leave.Leave) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leaves (id, employee_id, company_id, start_date, end_date, status,
			alloc_paid, alloc_casual, alloc_sick, alloc_unpaid, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.EmployeeID, l.CompanyID, l.Start.String(), l.End.String(), string(l.Status),
		l.Allocation.Paid.String(), l.Allocation.Casual.String(),
		l.Allocation.Sick.String(), l.Allocation.Unpaid.String(), l.Reason)
	return err
}

func (s *Store) scanLeave(row interface{ Scan(...any) error }) (*leave.Leave, error) {
	var l leave.Leave
	var start, end, status string
	var paid, casual, sick, unpaid string
	var reason sql.NullString

	err := row.Scan(&l.ID, &l.EmployeeID, &l.CompanyID, &start, &end, &status,
		&paid, &casual, &sick, &unpaid, &reason)
	if err != nil {
		return nil, err
	}
	if d, ok := leave.ParseDate(start); ok {
		l.Start = d
	}
	if d, ok := leave.ParseDate(end); ok {
		l.End = d
	}
	l.Status = leave.LeaveStatus(status)
	l.Allocation = leave.Allocation{Paid: dec(paid), Casual: dec(casual), Sick: dec(sick), Unpaid: dec(unpaid)}
	l.Reason = reason.String
	return &l, nil
}

func (s *Store) GetLeave(ctx context.Context, id string) (*leave.Leave, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leaveColumns+` FROM leaves WHERE id = ?`, id)
	l, err := s.scanLeave(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func (s *Store) SetLeaveStatus(ctx context.Context, id string, status leave.LeaveStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leaves SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return leave.ErrLeaveNotFound
	}
	return nil
}

func (s *Store) FindApprovedOverlapping(ctx context.Context, employeeID, companyID string, from, to leave.Date) ([]leave.Leave, error) {
	// ISO date strings compare lexicographically, so range overlap works in SQL.
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+leaveColumns+` FROM leaves
		WHERE employee_id = ? AND company_id = ? AND status = ?
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date`,
		employeeID, companyID, string(leave.StatusApproved), to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Leave
	for rows.Next() {
		l, err := s.scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// =============================================================================
// UNPAID DEDUCTIONS
// =============================================================================

const deductionColumns = `id, employee_id, month, taken, carry_before, available,
	max_deductable, deducted, carry_after`

func (s *Store) scanDeduction(row interface{ Scan(...any) error }) (*leave.DeductionEntry, error) {
	var e leave.DeductionEntry
	var month string
	var taken, carryBefore, available, maxDeductable, deducted, carryAfter string

	err := row.Scan(&e.ID, &e.EmployeeID, &month, &taken, &carryBefore, &available,
		&maxDeductable, &deducted, &carryAfter)
	if err != nil {
		return nil, err
	}
	e.Month = leave.MonthKey(month)
	e.Taken = dec(taken)
	e.CarryBefore = dec(carryBefore)
	e.Available = dec(available)
	e.MaxDeductable = dec(maxDeductable)
	e.Deducted = dec(deducted)
	e.CarryAfter = dec(carryAfter)
	return &e, nil
}

func (s *Store) GetDeduction(ctx context.Context, employeeID string, month leave.MonthKey) (*leave.DeductionEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+deductionColumns+` FROM unpaid_deductions WHERE employee_id = ? AND month = ?`,
		employeeID, string(month))
	e, err := s.scanDeduction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (s *Store) UpsertDeduction(ctx context.Context, entry *leave.DeductionEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unpaid_deductions (id, employee_id, month, taken, carry_before,
			available, max_deductable, deducted, carry_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, month) DO UPDATE SET
			taken = excluded.taken,
			carry_before = excluded.carry_before,
			available = excluded.available,
			max_deductable = excluded.max_deductable,
			deducted = excluded.deducted,
			carry_after = excluded.carry_after`,
		entry.ID, entry.EmployeeID, string(entry.Month),
		entry.Taken.String(), entry.CarryBefore.String(), entry.Available.String(),
		entry.MaxDeductable.String(), entry.Deducted.String(), entry.CarryAfter.String())
	return err
}

func (s *Store) ListDeductions(ctx context.Context, employeeID string) ([]leave.DeductionEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deductionColumns+` FROM unpaid_deductions WHERE employee_id = ? ORDER BY month`,
		employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.DeductionEntry
	for rows.Next() {
		e, err := s.scanDeduction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
