package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	orgerr "github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/org"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	title           TEXT,
	department      TEXT,
	email           TEXT,
	phone           TEXT,
	business_phone  TEXT,
	location        TEXT,
	office_location TEXT,
	city            TEXT,
	state           TEXT,
	country         TEXT,
	hire_date       TEXT,
	photo_url       TEXT,
	account_enabled INTEGER,
	user_type       TEXT,
	manager_id      TEXT,
	position        INTEGER NOT NULL DEFAULT 0
)`

const selectEmployees = `
	SELECT id, name, title, department, email, phone, business_phone,
	       location, office_location, city, state, country, hire_date,
	       photo_url, account_enabled, user_type, manager_id
	FROM employees
	ORDER BY position, id`

// SQLite reads employees from the "employees" table of a SQLite database.
type SQLite struct {
	path string
}

// NewSQLite returns a Source backed by the database at path.
func NewSQLite(path string) *SQLite {
	return &SQLite{path: path}
}

// Path implements Source.
func (s *SQLite) Path() string { return s.path }

// Load implements Source. Rows keep their insertion order, which becomes
// the sibling order of the built hierarchy.
func (s *SQLite) Load(ctx context.Context) ([]*org.Employee, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeFileNotFound, err, "employee database %s", s.path)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, selectEmployees)
	if err != nil {
		return nil, orgerr.Wrap(orgerr.ErrCodeInvalidFormat, err, "query employees")
	}
	defer rows.Close()

	var out []*org.Employee
	for rows.Next() {
		var (
			e                                      org.Employee
			title, dept, email, phone, bizPhone    sql.NullString
			location, office, city, state, country sql.NullString
			hireDate, photo, userType, managerID   sql.NullString
			enabled                                sql.NullBool
		)
		if err := rows.Scan(&e.ID, &e.Name, &title, &dept, &email, &phone, &bizPhone,
			&location, &office, &city, &state, &country, &hireDate,
			&photo, &enabled, &userType, &managerID); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		e.Title = title.String
		e.Department = dept.String
		e.Email = email.String
		e.Phone = phone.String
		e.BusinessPhone = bizPhone.String
		e.Location = location.String
		e.OfficeLocation = office.String
		e.City = city.String
		e.State = state.String
		e.Country = country.String
		e.HireDate = hireDate.String
		e.PhotoURL = photo.String
		e.UserType = userType.String
		e.ManagerID = managerID.String
		if enabled.Valid {
			v := enabled.Bool
			e.AccountEnabled = &v
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read employees: %w", err)
	}
	return out, nil
}

// WriteSQLite stores records in a new or existing database at path,
// replacing any previous rows.
func WriteSQLite(ctx context.Context, path string, records []*org.Employee) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM employees`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO employees (id, name, title, department, email, phone,
			business_phone, location, office_location, city, state, country,
			hire_date, photo_url, account_enabled, user_type, manager_id, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range records {
		var enabled any
		if e.AccountEnabled != nil {
			enabled = *e.AccountEnabled
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Name, e.Title, e.Department,
			e.Email, e.Phone, e.BusinessPhone, e.Location, e.OfficeLocation,
			e.City, e.State, e.Country, e.HireDate, e.PhotoURL, enabled,
			e.UserType, e.ManagerID, i); err != nil {
			return fmt.Errorf("insert %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}
