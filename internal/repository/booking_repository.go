package repository

import (
	"context"
	"database/sql"
)

// BookingRepo answers the read-only Already-Booked query against the
// committed reservations owned by the order subsystem.  This
// subsystem never writes to these tables: final exclusivity at
// commit time is the order service's responsibility, the coordinator
// only consults the outcome so it stops offering seats that are
// already sold.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// IsBooked reports whether a seat belongs to a confirmed reservation
// of the showing.  Called on every select intent.
func (r *BookingRepo) IsBooked(ctx context.Context, showingID, seatID uint64) (bool, error) {
	const q = `SELECT EXISTS(
                 SELECT 1
                 FROM reservation_seats rs
                 JOIN reservations res ON res.id = rs.reservation_id
                 WHERE res.showing_id = ? AND rs.seat_id = ? AND res.status = 'CONFIRMED')`
	var booked bool
	if err := r.db.QueryRowContext(ctx, q, showingID, seatID).Scan(&booked); err != nil {
		return false, err
	}
	return booked, nil
}

// BookedSeats returns the seat ids of all confirmed reservations for
// a showing, used to render the initial seat map.  When nothing is
// booked it returns an empty slice and nil error.
func (r *BookingRepo) BookedSeats(ctx context.Context, showingID uint64) ([]uint64, error) {
	const q = `SELECT rs.seat_id
               FROM reservation_seats rs
               JOIN reservations res ON res.id = rs.reservation_id
               WHERE res.showing_id = ? AND res.status = 'CONFIRMED'
               ORDER BY rs.seat_id ASC`
	rows, err := r.db.QueryContext(ctx, q, showingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		seats = append(seats, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
