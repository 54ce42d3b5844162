package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-coordinator/internal/lock"
	"github.com/iliyamo/cinema-seat-coordinator/internal/repository"
)

// SeatStateHandler exposes the seat state of a showing over plain
// HTTP.  Reconnecting clients bootstrap from these endpoints before
// their socket is up; the socket then keeps them current.
type SeatStateHandler struct {
	Coordinator *lock.Coordinator
	ShowingRepo *repository.ShowingRepo
	BookingRepo *repository.BookingRepo
}

// NewSeatStateHandler constructs a SeatStateHandler.
func NewSeatStateHandler(coord *lock.Coordinator, showings *repository.ShowingRepo, bookings *repository.BookingRepo) *SeatStateHandler {
	if coord == nil || showings == nil || bookings == nil {
		panic("nil dependency passed to NewSeatStateHandler")
	}
	return &SeatStateHandler{Coordinator: coord, ShowingRepo: showings, BookingRepo: bookings}
}

func (h *SeatStateHandler) showingID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	if _, err := h.ShowingRepo.GetByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return 0, c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return 0, c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return id, nil
}

// GetLocks handles GET /v1/showings/:id/locks and returns the current
// locked seat set, the same payload a snapshot broadcast carries.
func (h *SeatStateHandler) GetLocks(c echo.Context) error {
	id, err := h.showingID(c)
	if err != nil || id == 0 {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showing_id":      id,
		"locked_seat_ids": h.Coordinator.SnapshotFor(id),
	})
}

// GetSeatmap handles GET /v1/showings/:id/seats and returns both the
// ephemeral locked set and the committed booked set, which together
// are everything a client needs to render the seat map.
func (h *SeatStateHandler) GetSeatmap(c echo.Context) error {
	id, err := h.showingID(c)
	if err != nil || id == 0 {
		return err
	}
	booked, err := h.BookingRepo.BookedSeats(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showing_id":      id,
		"locked_seat_ids": h.Coordinator.SnapshotFor(id),
		"booked_seat_ids": booked,
	})
}
