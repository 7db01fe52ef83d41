package visitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/evcraddock/frontdesk/internal/db"
)

// Repository provides CRUD and lifecycle updates for visitors.
type Repository struct {
	db      *sql.DB
	dialect db.Dialect
}

// NewRepository creates a visitor repository.
func NewRepository(d *db.DB) *Repository {
	return &Repository{db: d.DB, dialect: d.Dialect}
}

const (
	arrivedSQL  = "(time_in IS NOT NULL AND TRIM(time_in) <> '')"
	openSQL     = "(time_out IS NULL OR TRIM(time_out) = '')"
	scheduleSQL = "(time_in IS NULL OR TRIM(time_in) = '')"
)

// scanVisitor scans a visitor from a row whose columns follow Fields.
func scanVisitor(row interface{ Scan(...interface{}) error }) (*Visitor, error) {
	var v Visitor
	var company, phone, photo, reason, host, date sql.NullString
	var expected, timeIn, timeOut sql.NullString
	var agreement sql.NullBool

	dest := map[string]interface{}{
		"id":                   &v.ID,
		"name":                 &v.Name,
		"surname":              &v.Surname,
		"company":              &company,
		"visitor_phone_number": &phone,
		"photo":                &photo,
		"reason_for_visit":     &reason,
		"host":                 &host,
		"date":                 &date,
		"expected_time_in":     &expected,
		"time_in":              &timeIn,
		"time_out":             &timeOut,
		"agreement_signed":     &agreement,
	}
	args := make([]interface{}, len(Fields))
	for i, f := range Fields {
		args[i] = dest[f.Column]
	}

	if err := row.Scan(args...); err != nil {
		return nil, err
	}

	v.Company = company.String
	v.VisitorPhoneNumber = phone.String
	v.Photo = photo.String
	v.ReasonForVisit = reason.String
	v.Host = host.String
	v.Date = date.String
	if expected.Valid {
		v.ExpectedTimeIn = strPtr(expected.String)
	}
	if timeIn.Valid {
		v.TimeIn = strPtr(timeIn.String)
	}
	if timeOut.Valid {
		v.TimeOut = strPtr(timeOut.String)
	}
	v.AgreementSigned = agreement.Bool

	return &v, nil
}

// columnValues returns the insertable values of v keyed by column.
func columnValues(v *Visitor) map[string]interface{} {
	return map[string]interface{}{
		"name":                 v.Name,
		"surname":              v.Surname,
		"company":              v.Company,
		"visitor_phone_number": v.VisitorPhoneNumber,
		"photo":                v.Photo,
		"reason_for_visit":     v.ReasonForVisit,
		"host":                 v.Host,
		"date":                 v.Date,
		"expected_time_in":     v.ExpectedTimeIn,
		"time_in":              v.TimeIn,
		"time_out":             v.TimeOut,
		"agreement_signed":     v.AgreementSigned,
	}
}

// Insert stores a new visitor and returns it with its generated ID.
func (r *Repository) Insert(ctx context.Context, v *Visitor) (*Visitor, error) {
	cols := insertColumns()
	values := columnValues(v)
	args := make([]interface{}, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		args[i] = values[c]
		marks[i] = "?"
	}

	query := fmt.Sprintf("INSERT INTO visitors (%s) VALUES (%s) RETURNING %s",
		strings.Join(cols, ", "), strings.Join(marks, ", "), selectColumns())

	saved, err := scanVisitor(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), args...))
	if err != nil {
		return nil, fmt.Errorf("inserting visitor: %w", err)
	}
	return saved, nil
}

// GetByID returns a visitor by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Visitor, error) {
	query := fmt.Sprintf("SELECT %s FROM visitors WHERE id = ?", selectColumns())
	v, err := scanVisitor(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying visitor %d: %w", id, err)
	}
	return v, nil
}

// List returns all visitors, newest first.
func (r *Repository) List(ctx context.Context) ([]*Visitor, error) {
	query := fmt.Sprintf("SELECT %s FROM visitors ORDER BY id DESC", selectColumns())
	return r.query(ctx, "listing visitors", query)
}

// SearchOptions controls Search.
type SearchOptions struct {
	Name   string // substring of "name surname", case-insensitive
	Status Status // empty = any
}

// Search finds visitors whose full name contains opts.Name, newest first.
func (r *Repository) Search(ctx context.Context, opts SearchOptions) ([]*Visitor, error) {
	query := fmt.Sprintf("SELECT %s FROM visitors", selectColumns())
	var conditions []string
	var args []interface{}

	if opts.Name != "" {
		conditions = append(conditions, `LOWER(name || ' ' || surname) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(opts.Name))+"%")
	}

	switch opts.Status {
	case StatusScheduled:
		conditions = append(conditions, scheduleSQL)
	case StatusCheckedIn:
		conditions = append(conditions, arrivedSQL, openSQL)
	case StatusCheckedOut:
		conditions = append(conditions, arrivedSQL, "NOT "+openSQL)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id DESC"

	return r.query(ctx, "searching visitors", query, args...)
}

// LogArrival records the time-in and visit date of a scheduled visitor and
// marks the agreement signed.
func (r *Repository) LogArrival(ctx context.Context, id int64, timeIn, date string) (*Visitor, error) {
	query := fmt.Sprintf(
		"UPDATE visitors SET time_in = ?, date = ?, agreement_signed = ? WHERE id = ? RETURNING %s",
		selectColumns())
	v, err := scanVisitor(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), timeIn, date, true, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("logging arrival: %w", err)
	}
	return v, nil
}

// SignOut sets the time-out of a visitor who has arrived. An existing
// time-out is overwritten.
func (r *Repository) SignOut(ctx context.Context, id int64, timeOut string) (*Visitor, error) {
	query := fmt.Sprintf("UPDATE visitors SET time_out = ? WHERE id = ? AND %s RETURNING %s",
		arrivedSQL, selectColumns())
	v, err := scanVisitor(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), timeOut, id))
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotArrived)
	}
	if err != nil {
		return nil, fmt.Errorf("signing out visitor: %w", err)
	}
	return v, nil
}

// SignOutOpen signs out every checked-in visitor and returns them.
func (r *Repository) SignOutOpen(ctx context.Context, timeOut string) ([]*Visitor, error) {
	query := fmt.Sprintf("UPDATE visitors SET time_out = ? WHERE %s AND %s RETURNING %s",
		arrivedSQL, openSQL, selectColumns())
	return r.query(ctx, "signing out open visits", query, timeOut)
}

// Update changes editable fields. Keys are wire names; non-editable or
// unknown keys are rejected.
func (r *Repository) Update(ctx context.Context, id int64, changes map[string]string) (*Visitor, error) {
	var sets []string
	var args []interface{}
	for _, f := range Fields {
		value, ok := changes[f.Wire]
		if !ok {
			continue
		}
		if !f.Editable {
			return nil, invalid(f.Wire, "field is not editable")
		}
		sets = append(sets, f.Column+" = ?")
		args = append(args, value)
	}
	for wire := range changes {
		if _, ok := ColumnFor(wire); !ok {
			return nil, invalid(wire, "unknown field")
		}
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf("UPDATE visitors SET %s WHERE id = ? RETURNING %s",
		strings.Join(sets, ", "), selectColumns())
	args = append(args, id)

	v, err := scanVisitor(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("updating visitor: %w", err)
	}
	return v, nil
}

// Delete removes a visitor by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.dialect.Rebind("DELETE FROM visitors WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting visitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("visitor %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *Repository) query(ctx context.Context, what, query string, args ...interface{}) ([]*Visitor, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	visitors := make([]*Visitor, 0)
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning visitor: %w", err)
		}
		visitors = append(visitors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visitors: %w", err)
	}

	return visitors, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
