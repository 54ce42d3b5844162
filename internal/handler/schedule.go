package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-coordinator/internal/model"
	"github.com/iliyamo/cinema-seat-coordinator/internal/repository"
	"github.com/iliyamo/cinema-seat-coordinator/internal/schedule"
)

// ScheduleHandler exposes the operator-facing scheduling endpoints.
// Every mutation re-validates the room's interval set; the dry-run
// validate endpoint backs interactive drag-to-schedule so the UI can
// reject a slot before a full create round-trip.
type ScheduleHandler struct {
	ShowingRepo *repository.ShowingRepo
	Detector    *schedule.Detector
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(showings *repository.ShowingRepo, detector *schedule.Detector) *ScheduleHandler {
	if showings == nil || detector == nil {
		panic("nil dependency passed to NewScheduleHandler")
	}
	return &ScheduleHandler{ShowingRepo: showings, Detector: detector}
}

// conflictDTO is the wire shape of one competing showing.  Conflicts
// are always reported with the identity of the showing in the way,
// never as a bare "conflict".
type conflictDTO struct {
	ShowingID uint64 `json:"showing_id"`
	Title     string `json:"title"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
}

func conflictsFromShowings(in []model.Showing) []conflictDTO {
	out := make([]conflictDTO, 0, len(in))
	for _, s := range in {
		out = append(out, conflictDTO{
			ShowingID: s.ID,
			Title:     s.Title,
			StartsAt:  s.StartsAt.UTC().Format(time.RFC3339),
			EndsAt:    s.EndsAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func conflictsFromIntervals(in []schedule.Interval) []conflictDTO {
	out := make([]conflictDTO, 0, len(in))
	for _, iv := range in {
		out = append(out, conflictDTO{
			ShowingID: iv.ShowingID,
			Title:     iv.Title,
			StartsAt:  iv.Start.UTC().Format(time.RFC3339),
			EndsAt:    iv.End.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// parseWindow validates and parses a [starts_at, ends_at) pair from a
// request body.  Both bounds are RFC3339; the end must lie strictly
// after the start.
func parseWindow(startsAt, endsAt string) (time.Time, time.Time, string) {
	startsAt = strings.TrimSpace(startsAt)
	endsAt = strings.TrimSpace(endsAt)
	if startsAt == "" || endsAt == "" {
		return time.Time{}, time.Time{}, "starts_at and ends_at are required"
	}
	start, err := time.Parse(time.RFC3339, startsAt)
	if err != nil {
		return time.Time{}, time.Time{}, "invalid starts_at format"
	}
	end, err := time.Parse(time.RFC3339, endsAt)
	if err != nil {
		return time.Time{}, time.Time{}, "invalid ends_at format"
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, "ends_at must be after starts_at"
	}
	return start.UTC(), end.UTC(), ""
}

// CreateShowing handles POST /v1/rooms/:id/showings.  The overlap
// predicate runs inside the insert transaction, so this is the
// race-safe commit-time check, not merely advisory.
func (h *ScheduleHandler) CreateShowing(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		Title    string `json:"title"`
		StartsAt string `json:"starts_at"`
		EndsAt   string `json:"ends_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	start, end, msg := parseWindow(body.StartsAt, body.EndsAt)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	showing := &model.Showing{RoomID: roomID, Title: title, StartsAt: start, EndsAt: end}
	conflicts, err := h.ShowingRepo.Create(c.Request().Context(), showing)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleConflict) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "showing time overlaps an existing showing",
				"conflicts": conflictsFromShowings(conflicts),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create showing"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":        showing.ID,
		"room_id":   showing.RoomID,
		"title":     showing.Title,
		"starts_at": showing.StartsAt.UTC().Format(time.RFC3339),
		"ends_at":   showing.EndsAt.UTC().Format(time.RFC3339),
		"status":    showing.Status,
	})
}

// RescheduleShowing handles PUT /v1/showings/:id.  The showing's own
// interval is excluded from the overlap check so an edit in place is
// never reported as conflicting with itself.
func (h *ScheduleHandler) RescheduleShowing(c echo.Context) error {
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	var body struct {
		StartsAt string `json:"starts_at"`
		EndsAt   string `json:"ends_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg := parseWindow(body.StartsAt, body.EndsAt)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	conflicts, err := h.ShowingRepo.Reschedule(c.Request().Context(), showingID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrShowingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		case errors.Is(err, repository.ErrScheduleConflict):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "showing time overlaps an existing showing",
				"conflicts": conflictsFromShowings(conflicts),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reschedule showing"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":        showingID,
		"starts_at": start.Format(time.RFC3339),
		"ends_at":   end.Format(time.RFC3339),
	})
}

// ValidateShowing handles POST /v1/rooms/:id/showings/validate, the
// dry-run used by drag-to-schedule.  It never writes; it only reports
// which showings a proposed window would collide with.  An optional
// exclude_showing_id supports validating an edit of an existing
// showing.
func (h *ScheduleHandler) ValidateShowing(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	var body struct {
		StartsAt         string `json:"starts_at"`
		EndsAt           string `json:"ends_at"`
		ExcludeShowingID uint64 `json:"exclude_showing_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg := parseWindow(body.StartsAt, body.EndsAt)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	proposed := schedule.Interval{RoomID: roomID, Start: start, End: end}
	conflicts, err := h.Detector.Check(c.Request().Context(), roomID, proposed, body.ExcludeShowingID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check schedule"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"admissible": len(conflicts) == 0,
		"conflicts":  conflictsFromIntervals(conflicts),
	})
}

// ListRoomShowings handles GET /v1/rooms/:id/showings and returns the
// room's scheduled intervals ordered by start time.
func (h *ScheduleHandler) ListRoomShowings(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	showings, err := h.ShowingRepo.ListByRoom(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list showings"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id":  roomID,
		"showings": conflictsFromShowings(showings),
	})
}

// DeleteShowing handles DELETE /v1/showings/:id.
func (h *ScheduleHandler) DeleteShowing(c echo.Context) error {
	showingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || showingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showing id"})
	}
	if err := h.ShowingRepo.Delete(c.Request().Context(), showingID); err != nil {
		if errors.Is(err, repository.ErrShowingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete showing"})
	}
	return c.NoContent(http.StatusNoContent)
}
