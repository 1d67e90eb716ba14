package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShipment(t *testing.T) {
	s := NewShipment("S100", "Toronto", "NYC", "electronics")

	assert.Equal(t, "S100", s.ID)
	assert.Equal(t, StatusCreated, s.Status)
	assert.False(t, s.DispatchDate.IsZero())
	assert.Nil(t, s.DeliveryDate)

	require.Len(t, s.History, 1)
	assert.Contains(t, s.History[0].Message, "created")
}

func TestShipmentAppendEvent(t *testing.T) {
	t.Run("timestamps are strictly increasing", func(t *testing.T) {
		s := NewShipment("S1", "A", "B", "d")
		for i := 0; i < 100; i++ {
			s.AppendEvent("tick")
		}
		for i := 1; i < len(s.History); i++ {
			assert.True(t, s.History[i].Timestamp.After(s.History[i-1].Timestamp),
				"event %d must be after event %d", i, i-1)
		}
	})

	t.Run("clamps when clock has not advanced", func(t *testing.T) {
		s := &Shipment{ID: "S2"}
		future := time.Now().UTC().Add(time.Hour)
		s.History = append(s.History, Event{Timestamp: future, Message: "from the future"})

		e := s.AppendEvent("now")

		assert.Equal(t, future.Add(time.Nanosecond), e.Timestamp)
	})
}

func TestShipmentApplyStatus(t *testing.T) {
	t.Run("appends exactly one event per transition", func(t *testing.T) {
		s := NewShipment("S3", "A", "B", "d")
		before := len(s.History)

		s.ApplyStatus(StatusInTransit)

		assert.Equal(t, StatusInTransit, s.Status)
		assert.Len(t, s.History, before+1)
		assert.Nil(t, s.DeliveryDate)
	})

	t.Run("delivery stamps the delivery date once", func(t *testing.T) {
		s := NewShipment("S4", "A", "B", "d")
		s.ApplyStatus(StatusDelivered)

		require.NotNil(t, s.DeliveryDate)
		stamped := *s.DeliveryDate

		// Re-affirming DELIVERED keeps the original date.
		s.ApplyStatus(StatusDelivered)
		assert.Equal(t, stamped, *s.DeliveryDate)
	})
}

func TestShipmentFindDocument(t *testing.T) {
	s := NewShipment("S5", "A", "B", "d")
	s.AttachDocument(Document{ID: "1", Name: "Invoice.PDF"})

	assert.NotNil(t, s.FindDocument("invoice.pdf"))
	assert.NotNil(t, s.FindDocument("INVOICE.pdf"))
	assert.Nil(t, s.FindDocument("manifest.pdf"))
}

func TestShipmentAttachDocument(t *testing.T) {
	s := NewShipment("S6", "A", "B", "d")
	before := len(s.History)

	s.AttachDocument(Document{Name: "manifest.csv"})

	assert.Len(t, s.Documents, 1)
	assert.Len(t, s.History, before+1)
	assert.Contains(t, s.History[before].Message, "manifest.csv")
}

func TestShipmentSnapshot(t *testing.T) {
	s := NewShipment("S7", "A", "B", "d")
	s.AttachDocument(Document{Name: "invoice.pdf"})
	s.ApplyStatus(StatusDelivered)

	snap := s.Snapshot()

	// Later mutations of the live shipment must not show through.
	s.AppendEvent("after snapshot")
	s.AttachDocument(Document{Name: "manifest.csv"})

	assert.Equal(t, StatusDelivered, snap.Status)
	assert.Len(t, snap.Documents, 1)
	assert.Len(t, snap.History, len(s.History)-2)
	require.NotNil(t, snap.DeliveryDate)
	assert.NotSame(t, s.DeliveryDate, snap.DeliveryDate)
}
