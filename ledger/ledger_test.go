package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booking-api/model"
	"booking-api/store"
)

func newTestLedger(st store.Store) *Ledger {
	l := New(st, zerolog.Nop())
	l.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return l
}

func seedEvent(t *testing.T, st store.Store, capacity int, status model.EventStatus) model.Event {
	t.Helper()
	event := model.Event{
		Id:       "evt-1",
		Name:     "GopherCon",
		Capacity: capacity,
		Status:   status,
	}
	require.NoError(t, st.Set(context.Background(), store.Events, event.Id, event))
	return event
}

func getEvent(t *testing.T, st store.Store, id string) model.Event {
	t.Helper()
	var event model.Event
	require.NoError(t, st.Get(context.Background(), store.Events, id, &event))
	return event
}

func countCheckInLogs(t *testing.T, st store.Store, bookingId string) int {
	t.Helper()
	count := 0
	err := st.Scan(context.Background(), store.CheckInLogs, func(id string, decode func(dest interface{}) error) error {
		var logRecord model.CheckInLog
		if err := decode(&logRecord); err != nil {
			return err
		}
		if logRecord.BookingId == bookingId {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestCreateBookingConfirmsWithinCapacity(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 2, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, booking.Status)
	assert.False(t, booking.IsWaitlist)
	assert.NotEmpty(t, booking.TicketId)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount)
	assert.Equal(t, 0, event.WaitlistCount)
}

func TestCreateBookingWaitlistsWhenFull(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	_, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)

	second, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-b", TicketCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingWaitlist, second.Status)
	assert.True(t, second.IsWaitlist)
	assert.Equal(t, 1, second.WaitlistPosition)

	third, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-c", TicketCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, third.WaitlistPosition)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount)
	assert.Equal(t, 2, event.WaitlistCount)
}

func TestCreateBookingConcurrentLastSeat(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	var wg sync.WaitGroup
	bookings := make([]*model.Booking, 2)
	errs := make([]error, 2)
	for i, user := range []string{"user-a", "user-b"} {
		wg.Add(1)
		go func(i int, user string) {
			defer wg.Done()
			bookings[i], errs[i] = l.CreateBooking(context.Background(), CreateBookingInput{
				EventId: "evt-1", UserId: user, TicketCount: 1,
			})
		}(i, user)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	confirmed, waitlisted := 0, 0
	for _, booking := range bookings {
		switch booking.Status {
		case model.BookingConfirmed:
			confirmed++
		case model.BookingWaitlist:
			waitlisted++
			assert.Equal(t, 1, booking.WaitlistPosition)
		}
	}
	assert.Equal(t, 1, confirmed, "exactly one booking may take the last seat")
	assert.Equal(t, 1, waitlisted)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount)
	assert.Equal(t, 1, event.WaitlistCount)
}

func TestCreateBookingDuplicateIntent(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 5, model.EventPublished)

	in := CreateBookingInput{EventId: "evt-1", UserId: "user-a", TicketCount: 1}
	_, err := l.CreateBooking(context.Background(), in)
	require.NoError(t, err)

	_, err = l.CreateBooking(context.Background(), in)
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount, "a rejected duplicate must not touch the counter")
}

func TestCreateBookingEventGuards(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)

	_, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "missing", UserId: "user-a", TicketCount: 1,
	})
	assert.ErrorIs(t, err, ErrEventNotFound)

	seedEvent(t, st, 5, model.EventDraft)
	_, err = l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	assert.ErrorIs(t, err, ErrEventNotPublished)

	event := getEvent(t, st, "evt-1")
	event.Status = model.EventPublished
	event.IsDeleted = true
	require.NoError(t, st.Set(context.Background(), store.Events, event.Id, event))
	_, err = l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCheckInIsExactlyOnce(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)

	first, err := l.CheckIn(context.Background(), booking.Id, "operator-1", "qr")
	require.NoError(t, err)
	assert.False(t, first.AlreadyCheckedIn)
	assert.Equal(t, model.BookingCheckedIn, first.Booking.Status)
	assert.Equal(t, 1, countCheckInLogs(t, st, booking.Id))

	second, err := l.CheckIn(context.Background(), booking.Id, "operator-2", "qr")
	require.NoError(t, err)
	assert.True(t, second.AlreadyCheckedIn)
	assert.Equal(t, 1, countCheckInLogs(t, st, booking.Id), "a repeat check-in must not append a log record")
}

func TestCheckInRejectsCancelledBooking(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)
	_, err = l.Cancel(context.Background(), booking.Id)
	require.NoError(t, err)

	_, err = l.CheckIn(context.Background(), booking.Id, "operator-1", "qr")
	assert.ErrorIs(t, err, ErrBookingCancelled)
	assert.Equal(t, 0, countCheckInLogs(t, st, booking.Id))

	after, err := l.GetBooking(context.Background(), booking.Id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, after.Status)
}

func TestCheckInRejectsWaitlistedBooking(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 0, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)
	require.Equal(t, model.BookingWaitlist, booking.Status)

	_, err = l.CheckIn(context.Background(), booking.Id, "operator-1", "qr")
	assert.ErrorIs(t, err, ErrNotConfirmed)
}

func TestCheckInMissingBooking(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)

	_, err := l.CheckIn(context.Background(), "missing", "operator-1", "qr")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelConfirmedPromotesEarliestWaitlisted(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	confirmed, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)
	waitlisted1, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-b", TicketCount: 1,
	})
	require.NoError(t, err)
	waitlisted2, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-c", TicketCount: 1,
	})
	require.NoError(t, err)

	result, err := l.Cancel(context.Background(), confirmed.Id)
	require.NoError(t, err)
	require.NotNil(t, result.Promoted)
	assert.Equal(t, waitlisted1.Id, result.Promoted.Id, "the lowest position is promoted first")
	assert.Equal(t, model.BookingConfirmed, result.Promoted.Status)
	assert.False(t, result.Promoted.IsWaitlist)
	assert.Equal(t, 0, result.Promoted.WaitlistPosition)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount, "the freed seat transfers to the promoted booking")

	// Second in line stays waitlisted at its original position.
	remaining, err := l.GetBooking(context.Background(), waitlisted2.Id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingWaitlist, remaining.Status)
	assert.Equal(t, 2, remaining.WaitlistPosition)
}

func TestCancelConfirmedWithoutWaitlistFreesSeat(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)

	result, err := l.Cancel(context.Background(), booking.Id)
	require.NoError(t, err)
	assert.Nil(t, result.Promoted)
	assert.Equal(t, model.BookingCancelled, result.Booking.Status)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 0, event.RegisteredCount)
}

func TestCancelWaitlistedLeavesCountersAlone(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	_, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)
	waitlisted, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-b", TicketCount: 1,
	})
	require.NoError(t, err)

	result, err := l.Cancel(context.Background(), waitlisted.Id)
	require.NoError(t, err)
	assert.Nil(t, result.Promoted)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 1, event.RegisteredCount)
	assert.Equal(t, 1, event.WaitlistCount, "positions are never reused")
}

func TestCancelTwiceConflicts(t *testing.T) {
	st := store.NewMemory()
	l := newTestLedger(st)
	seedEvent(t, st, 1, model.EventPublished)

	booking, err := l.CreateBooking(context.Background(), CreateBookingInput{
		EventId: "evt-1", UserId: "user-a", TicketCount: 1,
	})
	require.NoError(t, err)

	_, err = l.Cancel(context.Background(), booking.Id)
	require.NoError(t, err)
	_, err = l.Cancel(context.Background(), booking.Id)
	assert.ErrorIs(t, err, ErrBookingNotActive)

	event := getEvent(t, st, "evt-1")
	assert.Equal(t, 0, event.RegisteredCount, "a second cancel must not decrement again")
}

func TestBookingIdIsDeterministic(t *testing.T) {
	assert.Equal(t, BookingId("evt-1", "user-a"), BookingId("evt-1", "user-a"))
	assert.NotEqual(t, BookingId("evt-1", "user-a"), BookingId("evt-1", "user-b"))
	assert.NotEqual(t, BookingId("evt-1", "user-a"), BookingId("evt-2", "user-a"))
}
