package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
	"github.com/iliyamo/cinema-seat-coordinator/internal/schedule"
)

// ShowingRepo manages persistence for showings.  Schedule-mutating
// methods re-run the overlap predicate inside the same transaction as
// the write, so two operators racing for the same slot cannot both
// commit even if both passed the advisory Detector check.
type ShowingRepo struct {
	db *sql.DB
}

// NewShowingRepo constructs a ShowingRepo with the given DB handle.
func NewShowingRepo(db *sql.DB) *ShowingRepo {
	return &ShowingRepo{db: db}
}

// DB exposes the underlying sql.DB for callers that need to span a
// transaction across repositories.
func (r *ShowingRepo) DB() *sql.DB { return r.db }

const showingColumns = `id, room_id, title, starts_at, ends_at, status, created_at, updated_at`

func scanShowing(row interface{ Scan(...any) error }, s *model.Showing) error {
	return row.Scan(&s.ID, &s.RoomID, &s.Title, &s.StartsAt, &s.EndsAt, &s.Status, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a showing by its ID.  It returns
// ErrShowingNotFound if there is no matching row.
func (r *ShowingRepo) GetByID(ctx context.Context, id uint64) (*model.Showing, error) {
	const q = `SELECT ` + showingColumns + ` FROM showings WHERE id = ?`
	var s model.Showing
	if err := scanShowing(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowingNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByRoom returns all scheduled showings of a room ordered by
// start time.  Cancelled showings no longer occupy their slot and are
// excluded.  When no showings exist it returns an empty slice and nil
// error.
func (r *ShowingRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Showing, error) {
	const q = `SELECT ` + showingColumns + `
               FROM showings
               WHERE room_id = ? AND status = 'SCHEDULED'
               ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Showing, 0)
	for rows.Next() {
		var s model.Showing
		if err := scanShowing(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRoomIntervals implements schedule.IntervalLister for the
// advisory Detector check.
func (r *ShowingRepo) ListRoomIntervals(ctx context.Context, roomID uint64) ([]schedule.Interval, error) {
	showings, err := r.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	intervals := make([]schedule.Interval, 0, len(showings))
	for _, s := range showings {
		intervals = append(intervals, s.Interval())
	}
	return intervals, nil
}

// findOverlappingTx selects, with a locking read, the showings of a
// room whose window intersects [start, end), optionally excluding one
// showing id (zero means no exclusion).  FOR UPDATE matters: a plain
// snapshot read would let two racing transactions each see an empty
// conflict set and both insert.  The locking read takes next-key/gap
// locks on the room's scanned rows, so a concurrent writer blocks (or
// deadlocks and retries) instead of committing an overlap.
func (r *ShowingRepo) findOverlappingTx(ctx context.Context, tx *sql.Tx, roomID, excludeID uint64, start, end time.Time) ([]model.Showing, error) {
	// A showing overlaps when NOT (it ends before the new start OR
	// starts after the new end); endpoints touching is not overlap.
	const q = `SELECT ` + showingColumns + `
               FROM showings
               WHERE room_id = ? AND id <> ? AND status = 'SCHEDULED'
                 AND NOT (ends_at <= ? OR starts_at >= ?)
               ORDER BY starts_at ASC
               FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, roomID, excludeID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overlaps []model.Showing
	for rows.Next() {
		var s model.Showing
		if err := scanShowing(rows, &s); err != nil {
			return nil, err
		}
		overlaps = append(overlaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return overlaps, nil
}

// Create inserts a new showing after re-checking the room's schedule
// within the insert transaction.  On an overlap it returns
// ErrScheduleConflict together with the competing showings so the
// operator sees what is actually in the way.  On success the
// generated ID and DB-default fields are populated on the struct.
func (r *ShowingRepo) Create(ctx context.Context, s *model.Showing) ([]model.Showing, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	conflicts, err := r.findOverlappingTx(ctx, tx, s.RoomID, 0, s.StartsAt, s.EndsAt)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, ErrScheduleConflict
	}

	const q = `INSERT INTO showings (room_id, title, starts_at, ends_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.RoomID, s.Title, s.StartsAt, s.EndsAt)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + showingColumns + ` FROM showings WHERE id = ?`
	if err := scanShowing(tx.QueryRowContext(ctx, sel, s.ID), s); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return nil, nil
}

// Reschedule moves an existing showing to a new window, excluding the
// showing itself from the overlap check so editing in place never
// reports a self-conflict.  Returns ErrShowingNotFound when the row
// is missing and ErrScheduleConflict with the competing showings when
// the new window is occupied.
func (r *ShowingRepo) Reschedule(ctx context.Context, id uint64, start, end time.Time) ([]model.Showing, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var cur model.Showing
	const sel = `SELECT ` + showingColumns + ` FROM showings WHERE id = ?`
	if err := scanShowing(tx.QueryRowContext(ctx, sel, id), &cur); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowingNotFound
		}
		return nil, err
	}

	conflicts, err := r.findOverlappingTx(ctx, tx, cur.RoomID, id, start, end)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, ErrScheduleConflict
	}

	const q = `UPDATE showings
               SET starts_at = ?, ends_at = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, start, end, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return nil, nil
}

// Delete removes a showing.  Returns ErrShowingNotFound when nothing
// was deleted.
func (r *ShowingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM showings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrShowingNotFound
	}
	return nil
}
