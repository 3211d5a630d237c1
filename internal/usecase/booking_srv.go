package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/data/repository"
	"bar-booking/internal/dto/request"
	"bar-booking/internal/dto/response"
	"bar-booking/pkg/utils"
)

type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.CreatedBookingResponse, error)
	ConfirmBooking(ctx context.Context, bookingID string, req *request.ConfirmBookingRequest) (*response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	CompleteBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	CheckIn(ctx context.Context, req *request.CheckInRequest) (*response.CheckInResponse, error)
	ResolveToken(ctx context.Context, token string) (*response.BookingResponse, error)
	GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID string, page request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// MarkNoShow flips one overdue confirmed booking to no-show. It
	// reports false when another actor won the transition first.
	MarkNoShow(ctx context.Context, booking *entity.Booking) (bool, error)
	// FindOverdue lists confirmed bookings whose check-in window has
	// closed, for the sweeper.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error)
}

type bookingService struct {
	repo      *repository.Repository
	allocator AllocatorService
	tokens    TokenService
	tracker   NoShowTracker
	policy    *SlotPolicy
	horizon   int
	log       *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	allocator AllocatorService,
	tokens TokenService,
	tracker NoShowTracker,
	policy *SlotPolicy,
	cfg utils.BookingConfig,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		allocator: allocator,
		tokens:    tokens,
		tracker:   tracker,
		policy:    policy,
		horizon:   cfg.HorizonMonths,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, userID string, req *request.CreateBookingRequest) (*response.CreatedBookingResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", entity.ErrValidation)
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date", entity.ErrValidation)
	}
	slot := entity.TimeSlot(req.Slot)
	mode := entity.AllocationMode(req.Mode)

	if err := s.checkHorizon(date); err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", entity.ErrNotFound, userID)
	}
	if s.policy.IsFreeSlot(slot) && !user.CanBookFreeSlot() {
		return nil, fmt.Errorf("%w: user is banned from the free slot", entity.ErrPolicyViolation)
	}

	claim, err := s.reserve(ctx, mode, req, date, slot)
	if err != nil {
		return nil, err
	}

	fee := s.policy.Fee(slot, mode)
	booking := &entity.Booking{
		Base:            entity.Base{ID: utils.GenerateUUID()},
		OrderID:         utils.GenerateOrderID(),
		UserID:          uid,
		Mode:            mode,
		ZoneID:          claim.ZoneID,
		TableID:         claim.TableID,
		ClaimID:         claim.ID,
		BookingDate:     date,
		Slot:            slot,
		GuestCount:      req.GuestCount,
		Fee:             fee,
		Status:          entity.BookingStatusPending,
		CheckInDeadline: s.policy.CheckInDeadline(date, slot),
	}
	var createEvent *entity.OutboxEvent
	if fee == 0 {
		// nothing to pay, the booking is immediately confirmed
		booking.Status = entity.BookingStatusConfirmed
		createEvent = s.buildEvent(entity.EventBookingConfirmed, booking)
	}

	if err := s.repo.Booking.Create(ctx, booking, createEvent); err != nil {
		if relErr := s.allocator.Release(ctx, claim.ID); relErr != nil {
			s.log.Error("release claim after failed create", zap.Error(relErr))
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	resp := &response.CreatedBookingResponse{BookingResponse: *response.NewBookingResponse(booking)}
	if booking.Status == entity.BookingStatusConfirmed {
		token, err := s.tokens.Issue(ctx, booking.ID)
		if err != nil {
			// a confirmed booking must carry a token, undo the booking
			// rather than hand back one that cannot check in
			s.rollbackConfirmedCreate(ctx, booking)
			return nil, fmt.Errorf("issue check-in token: %w", err)
		}
		resp.CheckInToken = token.Token
	}

	s.log.Info("booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("mode", string(mode)),
		zap.String("status", string(booking.Status)),
		zap.Float64("fee", fee))
	return resp, nil
}

// rollbackConfirmedCreate cancels a freshly confirmed booking whose
// token issuance failed and frees its claim.
func (s *bookingService) rollbackConfirmedCreate(ctx context.Context, booking *entity.Booking) {
	cancelled := *booking
	cancelled.Status = entity.BookingStatusCancelled
	event := s.buildEvent(entity.EventBookingCancelled, &cancelled)
	if _, err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed, entity.BookingStatusCancelled, event); err != nil {
		s.log.Error("cancel booking after failed token issue", zap.Error(err))
	}
	if err := s.allocator.Release(ctx, booking.ClaimID); err != nil {
		s.log.Error("release claim after failed token issue", zap.Error(err))
	}
}

func (s *bookingService) reserve(ctx context.Context, mode entity.AllocationMode, req *request.CreateBookingRequest, date time.Time, slot entity.TimeSlot) (*entity.TableClaim, error) {
	switch mode {
	case entity.ModeTableLocked:
		if req.TableID == "" {
			return nil, fmt.Errorf("%w: table_id is required for table_locked bookings", entity.ErrValidation)
		}
		tableID, err := uuid.Parse(req.TableID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid table id", entity.ErrValidation)
		}
		return s.allocator.ReserveTable(ctx, tableID, date, slot, req.GuestCount)
	case entity.ModeZoneAuto:
		if req.ZoneID == "" {
			return nil, fmt.Errorf("%w: zone_id is required for zone_auto bookings", entity.ErrValidation)
		}
		zoneID, err := uuid.Parse(req.ZoneID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid zone id", entity.ErrValidation)
		}
		return s.allocator.ReserveZone(ctx, zoneID, date, slot, req.GuestCount)
	default:
		return nil, fmt.Errorf("%w: unknown allocation mode %q", entity.ErrValidation, mode)
	}
}

func (s *bookingService) checkHorizon(date time.Time) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if date.Before(today) {
		return fmt.Errorf("%w: booking date is in the past", entity.ErrPolicyViolation)
	}
	if s.horizon > 0 && date.After(today.AddDate(0, s.horizon, 0)) {
		return fmt.Errorf("%w: booking date is beyond the %d month horizon", entity.ErrPolicyViolation, s.horizon)
	}
	return nil
}

func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID string, req *request.ConfirmBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.IsConfirmedWith(req.PaymentRef) {
		// repeated confirmation with the same reference is a no-op
		return response.NewBookingResponse(booking), nil
	}
	if !booking.CanConfirm() {
		return nil, fmt.Errorf("%w: cannot confirm a %s booking", entity.ErrInvalidState, booking.Status)
	}

	confirmed := *booking
	confirmed.Status = entity.BookingStatusConfirmed
	confirmed.PaymentRef = &req.PaymentRef
	event := s.buildEvent(entity.EventBookingConfirmed, &confirmed)

	ok, err := s.repo.Booking.Confirm(ctx, booking.ID, req.PaymentRef, event)
	if err != nil {
		return nil, fmt.Errorf("confirm booking: %w", err)
	}
	if !ok {
		// lost the race, re-read to tell duplicate confirm from a real conflict
		current, err := s.findBooking(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.IsConfirmedWith(req.PaymentRef) {
			return response.NewBookingResponse(current), nil
		}
		return nil, fmt.Errorf("%w: cannot confirm a %s booking", entity.ErrInvalidState, current.Status)
	}

	booking.Status = entity.BookingStatusConfirmed
	booking.PaymentRef = &req.PaymentRef

	if _, err := s.tokens.Issue(ctx, booking.ID); err != nil {
		s.log.Error("issue token on confirm", zap.Error(err))
	}

	s.log.Info("booking confirmed",
		zap.String("booking_id", booking.ID.String()),
		zap.String("payment_ref", req.PaymentRef))
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanCancel() {
		return nil, fmt.Errorf("%w: cannot cancel a %s booking", entity.ErrInvalidState, booking.Status)
	}

	cancelled := *booking
	cancelled.Status = entity.BookingStatusCancelled
	event := s.buildEvent(entity.EventBookingCancelled, &cancelled)

	ok, err := s.repo.Booking.UpdateStatus(ctx, booking.ID, booking.Status, entity.BookingStatusCancelled, event)
	if err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking changed state during cancel", entity.ErrInvalidState)
	}

	if err := s.allocator.Release(ctx, booking.ClaimID); err != nil {
		s.log.Error("release claim on cancel", zap.Error(err))
	}

	booking.Status = entity.BookingStatusCancelled

	s.log.Info("booking cancelled", zap.String("booking_id", booking.ID.String()))
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != entity.BookingStatusCheckedIn {
		return nil, fmt.Errorf("%w: cannot complete a %s booking", entity.ErrInvalidState, booking.Status)
	}

	completed := *booking
	completed.Status = entity.BookingStatusCompleted
	event := s.buildEvent(entity.EventBookingCompleted, &completed)

	ok, err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusCheckedIn, entity.BookingStatusCompleted, event)
	if err != nil {
		return nil, fmt.Errorf("complete booking: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking changed state during complete", entity.ErrInvalidState)
	}

	if err := s.allocator.Release(ctx, booking.ClaimID); err != nil {
		s.log.Error("release claim on complete", zap.Error(err))
	}

	booking.Status = entity.BookingStatusCompleted

	s.log.Info("booking completed", zap.String("booking_id", booking.ID.String()))
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) CheckIn(ctx context.Context, req *request.CheckInRequest) (*response.CheckInResponse, error) {
	if errs := utils.ValidateStruct(req); errs != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.CanCheckIn() {
		return nil, fmt.Errorf("%w: cannot check in a %s booking", entity.ErrInvalidState, booking.Status)
	}

	now := time.Now()
	if booking.PastDeadline(now) {
		return nil, fmt.Errorf("%w: check-in window closed at %s",
			entity.ErrExpired, booking.CheckInDeadline.Format(time.RFC3339))
	}

	tokenBookingID, err := s.tokens.Validate(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if tokenBookingID != booking.ID {
		return nil, fmt.Errorf("%w: token does not belong to this booking", entity.ErrInvalidToken)
	}

	if _, err := s.tokens.Consume(ctx, req.Token); err != nil {
		return nil, err
	}

	ok, err := s.repo.Booking.SetCheckedIn(ctx, booking.ID, now)
	if err != nil {
		return nil, fmt.Errorf("set checked in: %w", err)
	}
	if !ok {
		// the sweep got there between our read and the update
		return nil, fmt.Errorf("%w: booking changed state during check-in", entity.ErrInvalidState)
	}

	booking.Status = entity.BookingStatusCheckedIn
	booking.CheckedInAt = &now

	s.log.Info("guest checked in",
		zap.String("booking_id", booking.ID.String()),
		zap.Time("checked_in_at", now))
	return &response.CheckInResponse{
		Booking:     response.NewBookingResponse(booking),
		CheckedInAt: now,
	}, nil
}

// ResolveToken is the read-only QR lookup: it maps a token to its
// booking without consuming it.
func (s *bookingService) ResolveToken(ctx context.Context, token string) (*response.BookingResponse, error) {
	bookingID, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) GetBookingByID(ctx context.Context, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return response.NewBookingResponse(booking), nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID string, page request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user id", entity.ErrValidation)
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, uid, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	total, err := s.repo.Booking.CountByUserID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	items := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, *response.NewBookingResponse(b))
	}
	return response.NewPaginatedResponse(items, page.Page, page.Limit(), total), nil
}

func (s *bookingService) MarkNoShow(ctx context.Context, booking *entity.Booking) (bool, error) {
	var event *entity.OutboxEvent
	if s.policy.IsFreeSlot(booking.Slot) {
		noShow := *booking
		noShow.Status = entity.BookingStatusNoShow
		event = s.buildEvent(entity.EventBookingNoShow, &noShow)
	}

	ok, err := s.repo.Booking.UpdateStatus(ctx, booking.ID, entity.BookingStatusConfirmed, entity.BookingStatusNoShow, event)
	if err != nil {
		return false, fmt.Errorf("mark no-show: %w", err)
	}
	if !ok {
		// the guest checked in or cancelled before the sweep ran
		return false, nil
	}

	if err := s.allocator.Release(ctx, booking.ClaimID); err != nil {
		s.log.Error("release claim on no-show", zap.Error(err))
	}
	if err := s.tracker.RecordNoShow(ctx, booking.UserID, booking.Slot); err != nil {
		s.log.Error("record no-show", zap.Error(err))
	}
	booking.Status = entity.BookingStatusNoShow

	s.log.Info("booking marked no-show",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", booking.UserID.String()))
	return true, nil
}

func (s *bookingService) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	return s.repo.Booking.FindExpiredConfirmed(ctx, now, limit)
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*entity.Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", entity.ErrValidation)
	}
	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", entity.ErrNotFound, bookingID)
	}
	return booking, nil
}

// buildEvent shapes an outbox row for a lifecycle transition. The
// caller hands it to the booking repository so the row commits with
// the transition itself.
func (s *bookingService) buildEvent(eventType entity.OutboxEventType, booking *entity.Booking) *entity.OutboxEvent {
	payload, err := json.Marshal(map[string]any{
		"booking_id":  booking.ID.String(),
		"order_id":    booking.OrderID,
		"user_id":     booking.UserID.String(),
		"zone_id":     booking.ZoneID.String(),
		"date":        booking.BookingDate.Format("2006-01-02"),
		"slot":        booking.Slot.String(),
		"guest_count": booking.GuestCount,
		"fee":         booking.Fee,
		"status":      string(booking.Status),
		"occurred_at": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Error("marshal event payload", zap.Error(err))
		return nil
	}

	return &entity.OutboxEvent{
		ID:        utils.GenerateUUID(),
		EventType: eventType,
		BookingID: booking.ID,
		UserID:    booking.UserID,
		Payload:   payload,
		Status:    entity.OutboxStatusPending,
	}
}
