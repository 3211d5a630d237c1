package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bar-booking/internal/data/entity"
	"bar-booking/internal/dto/request"
	"bar-booking/pkg/utils"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

func testConfig() *utils.Config {
	return &utils.Config{
		Booking: utils.BookingConfig{
			GraceMinutes:  15,
			BanThreshold:  3,
			HorizonMonths: 3,
			LockDeposit:   150,
			Slot2100Fee:   500,
			Slot2200Fee:   1000,
		},
	}
}

func seedUser(env *testEnv) *entity.User {
	user := &entity.User{
		Base:     entity.Base{ID: uuid.New()},
		Username: "guest",
		Email:    "guest@example.com",
		IsActive: true,
	}
	env.users.add(user)
	return user
}

func seedZone(env *testEnv, tableCapacities ...int) (*entity.Zone, []*entity.Table) {
	zone := &entity.Zone{
		Base:     entity.Base{ID: uuid.New()},
		Name:     "Terrace",
		IsActive: true,
	}
	env.zones.add(zone)

	tables := make([]*entity.Table, 0, len(tableCapacities))
	for i, capacity := range tableCapacities {
		table := &entity.Table{
			Base:        entity.Base{ID: uuid.New()},
			ZoneID:      zone.ID,
			TableNumber: "T" + string(rune('1'+i)),
			Capacity:    capacity,
			IsActive:    true,
		}
		env.tables.add(table)
		tables = append(tables, table)
	}
	return zone, tables
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func TestCreateBooking_ZoneAutoPaidSlot(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4, 4)

	resp, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_21_00",
		GuestCount: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 500.0, resp.Fee)
	assert.Empty(t, resp.CheckInToken)
	assert.NotEmpty(t, resp.OrderID)
}

func TestCreateBooking_FreeSlotAutoConfirms(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	resp, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, 0.0, resp.Fee)
	assert.NotEmpty(t, resp.CheckInToken, "zero-fee booking gets its token at creation")
	assert.Len(t, env.outbox.byType(entity.EventBookingConfirmed), 1)
}

func TestCreateBooking_ZeroFeeTokenFailureRollsBack(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)
	ctx := context.Background()
	env.tokens.failCreate = errors.New("token store down")

	req := &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 4,
	}
	_, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), req)
	require.Error(t, err, "a confirmed booking without a token must not be handed out")

	bookings, err := env.store.FindByUserID(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, entity.BookingStatusCancelled, bookings[0].Status)
	assert.Len(t, env.outbox.byType(entity.EventBookingCancelled), 1)

	// the claim was released, so the same zone and slot can be booked again
	env.tokens.failCreate = nil
	resp, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), req)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.NotEmpty(t, resp.CheckInToken)
}

func TestCreateBooking_TableLockedFreeSlotChargesDeposit(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	_, tables := seedZone(env, 4)

	resp, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "table_locked",
		TableID:    tables[0].ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 150.0, resp.Fee)
	require.NotNil(t, resp.TableID)
	assert.Equal(t, tables[0].ID.String(), *resp.TableID)
}

func TestCreateBooking_BannedUserBlockedFromFreeSlot(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	user.BannedFromFreeSlot = true
	env.users.add(user)
	zone, _ := seedZone(env, 4)

	_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	assert.ErrorIs(t, err, entity.ErrPolicyViolation)

	// paid slots stay open to the banned user
	resp, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
}

func TestCreateBooking_DateOutsideHorizon(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	past := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       past,
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	assert.ErrorIs(t, err, entity.ErrPolicyViolation)

	tooFar := time.Now().AddDate(0, 4, 0).Format("2006-01-02")
	_, err = env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       tooFar,
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	assert.ErrorIs(t, err, entity.ErrPolicyViolation)
}

func TestCreateBooking_GuestCountBeyondTableCapacity(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	_, tables := seedZone(env, 4)

	_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "table_locked",
		TableID:    tables[0].ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_21_00",
		GuestCount: 6,
	})
	assert.ErrorIs(t, err, entity.ErrPolicyViolation)
}

func TestCreateBooking_MissingResourceID(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	seedZone(env, 4)

	_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "table_locked",
		Date:       futureDate(),
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestCreateBooking_TableDoubleBookingLosesRace(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	_, tables := seedZone(env, 4)
	date := futureDate()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
				Mode:       "table_locked",
				TableID:    tables[0].ID.String(),
				Date:       date,
				Slot:       "SLOT_22_00",
				GuestCount: 2,
			})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, entity.ErrConflict)
		}
	}
	assert.Equal(t, 1, won, "exactly one attempt may hold the table")
}

func TestCreateBooking_ZoneCapacityExhausted(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4, 4)
	date := futureDate()

	for i := 0; i < 2; i++ {
		_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
			Mode:       "zone_auto",
			ZoneID:     zone.ID.String(),
			Date:       date,
			Slot:       "SLOT_21_00",
			GuestCount: 4,
		})
		require.NoError(t, err)
	}

	_, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       date,
		Slot:       "SLOT_21_00",
		GuestCount: 1,
	})
	assert.ErrorIs(t, err, entity.ErrConflict)

	// a different slot has its own ledger
	_, err = env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       date,
		Slot:       "SLOT_22_00",
		GuestCount: 4,
	})
	assert.NoError(t, err)
}

func TestConfirmBooking(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	created, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	confirmed, err := env.service.Booking.ConfirmBooking(context.Background(), created.ID, &request.ConfirmBookingRequest{
		PaymentRef: "PAY-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)
	assert.Len(t, env.outbox.byType(entity.EventBookingConfirmed), 1)

	// same reference again is a no-op
	again, err := env.service.Booking.ConfirmBooking(context.Background(), created.ID, &request.ConfirmBookingRequest{
		PaymentRef: "PAY-123",
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", again.Status)
	assert.Len(t, env.outbox.byType(entity.EventBookingConfirmed), 1, "no duplicate event")

	// a different reference on a confirmed booking is a state error
	_, err = env.service.Booking.ConfirmBooking(context.Background(), created.ID, &request.ConfirmBookingRequest{
		PaymentRef: "PAY-456",
	})
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestConfirmBooking_NotFound(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.Booking.ConfirmBooking(context.Background(), uuid.NewString(), &request.ConfirmBookingRequest{
		PaymentRef: "PAY-123",
	})
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestCancelBooking_ReleasesClaim(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	_, tables := seedZone(env, 4)
	date := futureDate()

	created, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "table_locked",
		TableID:    tables[0].ID.String(),
		Date:       date,
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	cancelled, err := env.service.Booking.CancelBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Len(t, env.outbox.byType(entity.EventBookingCancelled), 1)

	// the table is free again
	_, err = env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "table_locked",
		TableID:    tables[0].ID.String(),
		Date:       date,
		Slot:       "SLOT_21_00",
		GuestCount: 2,
	})
	assert.NoError(t, err)

	// cancelling twice is a state error
	_, err = env.service.Booking.CancelBooking(context.Background(), created.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestCheckIn(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	created, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.CheckInToken)

	result, err := env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: created.ID,
		Token:     created.CheckInToken,
	})
	require.NoError(t, err)
	assert.Equal(t, "checked_in", result.Booking.Status)
	assert.False(t, result.CheckedInAt.IsZero())

	// the token is single use
	_, err = env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: created.ID,
		Token:     created.CheckInToken,
	})
	assert.ErrorIs(t, err, entity.ErrInvalidState)
}

func TestCheckIn_WrongToken(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 8)

	first, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	second, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	// second booking's token against the first booking
	_, err = env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: first.ID,
		Token:     second.CheckInToken,
	})
	assert.ErrorIs(t, err, entity.ErrInvalidToken)

	// the mismatched token survives for its own booking
	_, err = env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: second.ID,
		Token:     second.CheckInToken,
	})
	assert.NoError(t, err)
}

func TestCheckIn_AfterDeadline(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	booking := &entity.Booking{
		Base:            entity.Base{ID: uuid.New()},
		OrderID:         "BKG-TEST-1",
		UserID:          user.ID,
		Mode:            entity.ModeZoneAuto,
		ZoneID:          zone.ID,
		ClaimID:         uuid.New(),
		BookingDate:     time.Now().Truncate(24 * time.Hour),
		Slot:            entity.Slot2000,
		GuestCount:      2,
		Status:          entity.BookingStatusConfirmed,
		CheckInDeadline: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.store.Create(context.Background(), booking, nil))

	token, err := env.service.Token.Issue(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: booking.ID.String(),
		Token:     token.Token,
	})
	assert.ErrorIs(t, err, entity.ErrExpired)
}

func TestCompleteBooking(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)

	created, err := env.service.Booking.CreateBooking(context.Background(), user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	// completion requires a check-in first
	_, err = env.service.Booking.CompleteBooking(context.Background(), created.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	_, err = env.service.Booking.CheckIn(context.Background(), &request.CheckInRequest{
		BookingID: created.ID,
		Token:     created.CheckInToken,
	})
	require.NoError(t, err)

	completed, err := env.service.Booking.CompleteBooking(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)
	assert.Len(t, env.outbox.byType(entity.EventBookingCompleted), 1)
}

func TestMarkNoShow_FreeSlotEscalatesToBan(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 16)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		created, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), &request.CreateBookingRequest{
			Mode:       "zone_auto",
			ZoneID:     zone.ID.String(),
			Date:       futureDate(),
			Slot:       "SLOT_20_00",
			GuestCount: 2,
		})
		require.NoError(t, err)

		booking, err := env.store.FindByID(ctx, uuid.MustParse(created.ID))
		require.NoError(t, err)

		ok, err := env.service.Booking.MarkNoShow(ctx, booking)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	banned, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, banned.NoShowCount)
	assert.True(t, banned.BannedFromFreeSlot)
	assert.Len(t, env.outbox.byType(entity.EventBookingNoShow), 3)
}

func TestMarkNoShow_PaidSlotCountsWithoutBanOrEvent(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 16)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		created, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), &request.CreateBookingRequest{
			Mode:       "zone_auto",
			ZoneID:     zone.ID.String(),
			Date:       futureDate(),
			Slot:       "SLOT_21_00",
			GuestCount: 2,
		})
		require.NoError(t, err)
		_, err = env.service.Booking.ConfirmBooking(ctx, created.ID, &request.ConfirmBookingRequest{PaymentRef: "PAY-" + created.ID})
		require.NoError(t, err)

		booking, err := env.store.FindByID(ctx, uuid.MustParse(created.ID))
		require.NoError(t, err)

		ok, err := env.service.Booking.MarkNoShow(ctx, booking)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	u, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, u.NoShowCount)
	assert.False(t, u.BannedFromFreeSlot, "paid-slot no-shows do not trigger the ban")
	assert.Empty(t, env.outbox.byType(entity.EventBookingNoShow))
}

func TestMarkNoShow_LosesToCheckIn(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)
	ctx := context.Background()

	created, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	booking, err := env.store.FindByID(ctx, uuid.MustParse(created.ID))
	require.NoError(t, err)

	_, err = env.service.Booking.CheckIn(ctx, &request.CheckInRequest{
		BookingID: created.ID,
		Token:     created.CheckInToken,
	})
	require.NoError(t, err)

	ok, err := env.service.Booking.MarkNoShow(ctx, booking)
	require.NoError(t, err)
	assert.False(t, ok, "checked-in booking cannot become a no-show")

	u, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, u.NoShowCount)
	assert.Empty(t, env.outbox.byType(entity.EventBookingNoShow), "lost transition must not leave an event behind")
}

func TestGetUserBookings_Paginates(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 100)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), &request.CreateBookingRequest{
			Mode:       "zone_auto",
			ZoneID:     zone.ID.String(),
			Date:       futureDate(),
			Slot:       "SLOT_21_00",
			GuestCount: 2,
		})
		require.NoError(t, err)
	}

	page, err := env.service.Booking.GetUserBookings(ctx, user.ID.String(), request.PaginatedRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(5), page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
}

func TestResolveToken(t *testing.T) {
	env := newTestEnv()
	user := seedUser(env)
	zone, _ := seedZone(env, 4)
	ctx := context.Background()

	created, err := env.service.Booking.CreateBooking(ctx, user.ID.String(), &request.CreateBookingRequest{
		Mode:       "zone_auto",
		ZoneID:     zone.ID.String(),
		Date:       futureDate(),
		Slot:       "SLOT_20_00",
		GuestCount: 2,
	})
	require.NoError(t, err)

	resolved, err := env.service.Booking.ResolveToken(ctx, created.CheckInToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	// resolving does not consume
	resolved, err = env.service.Booking.ResolveToken(ctx, created.CheckInToken)
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)

	_, err = env.service.Booking.ResolveToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, entity.ErrInvalidToken)
}
