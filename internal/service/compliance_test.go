package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ledgerMocks "shiptrack/internal/ledger/mocks"
	"shiptrack/internal/model"
	"shiptrack/internal/registry"
	"shiptrack/internal/rules"
	storeMocks "shiptrack/internal/storage/mocks"
)

func newComplianceFixture() (Compliance, *ledgerMocks.MockGateway, *storeMocks.MockOffChainStore) {
	gw := new(ledgerMocks.MockGateway)
	oc := new(storeMocks.MockOffChainStore)
	return NewCompliance(registry.New(), rules.NewEngine(), gw, oc), gw, oc
}

func TestQueryStatus(t *testing.T) {
	comp, _, _ := newComplianceFixture()

	assert.Equal(t, "Shipment not found.", comp.QueryStatus(nil))

	s := model.NewShipment("S100", "Toronto", "NYC", "electronics")
	assert.Equal(t, "Shipment S100 status: CREATED", comp.QueryStatus(s))

	s.ApplyStatus(model.StatusInTransit)
	assert.Equal(t, "Shipment S100 status: IN_TRANSIT", comp.QueryStatus(s))
}

func TestGenerateAuditTrail(t *testing.T) {
	ctx := context.Background()

	t.Run("absent shipment", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		report := comp.GenerateAuditTrail(ctx, nil)
		assert.Equal(t, "Audit Trail", report.Title)
		assert.Equal(t, "No shipment found.", report.Body)
	})

	t.Run("renders every event in order", func(t *testing.T) {
		comp, gw, _ := newComplianceFixture()
		gw.On("QueryLedger", ctx, "S100").Return([]string(nil), nil)

		s := model.NewShipment("S100", "Toronto", "NYC", "electronics")
		s.ApplyStatus(model.StatusInTransit)
		s.ApplyStatus(model.StatusDelivered)

		report := comp.GenerateAuditTrail(ctx, s)

		assert.Equal(t, "Audit Trail - Shipment S100", report.Title)
		assert.Contains(t, report.Body, "Shipment created: electronics")
		assert.Contains(t, report.Body, "Status updated to IN_TRANSIT")
		assert.Contains(t, report.Body, "Status updated to DELIVERED")
		gw.AssertCalled(t, "QueryLedger", ctx, "S100")
	})

	t.Run("ledger failure does not fail the report", func(t *testing.T) {
		comp, gw, _ := newComplianceFixture()
		gw.On("QueryLedger", ctx, mock.Anything).Return([]string(nil), errors.New("ledger down"))

		s := model.NewShipment("S1", "A", "B", "d")
		report := comp.GenerateAuditTrail(ctx, s)
		assert.NotEmpty(t, report.Body)
	})
}

func TestEnsureLedgerIntegrity(t *testing.T) {
	comp, _, _ := newComplianceFixture()

	assert.False(t, comp.EnsureLedgerIntegrity(nil))

	s := model.NewShipment("S1", "A", "B", "d")
	s.ApplyStatus(model.StatusInTransit)
	assert.True(t, comp.EnsureLedgerIntegrity(s))

	// Swapping two events breaks the ordering invariant.
	s.History[0], s.History[1] = s.History[1], s.History[0]
	assert.False(t, comp.EnsureLedgerIntegrity(s))
}

func TestVerifyDocument(t *testing.T) {
	ctx := context.Background()

	newDoc := func(name string, content []byte) model.Document {
		d := model.Document{ID: "d1", Name: name, Content: content}
		d.Seal()
		return d
	}

	t.Run("nil shipment or empty name", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		assert.Equal(t, VerificationNotFound, comp.VerifyDocument(ctx, nil, "bol.pdf"))

		s := model.NewShipment("S1", "A", "B", "d")
		assert.Equal(t, VerificationNotFound, comp.VerifyDocument(ctx, s, ""))
	})

	t.Run("unknown document name", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		s.AttachDocument(newDoc("bol.pdf", []byte("x")))

		assert.Equal(t, VerificationNotFound, comp.VerifyDocument(ctx, s, "invoice.pdf"))
	})

	t.Run("intact round trip is VALID", func(t *testing.T) {
		comp, _, oc := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		s.AttachDocument(newDoc("bol.pdf", []byte("bill of lading")))
		oc.On("VerifyIntegrity", ctx, mock.Anything).Return(true)

		assert.Equal(t, VerificationValid, comp.VerifyDocument(ctx, s, "bol.pdf"))
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		comp, _, oc := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		s.AttachDocument(newDoc("BOL.pdf", []byte("x")))
		oc.On("VerifyIntegrity", ctx, mock.Anything).Return(true)

		assert.Equal(t, VerificationValid, comp.VerifyDocument(ctx, s, "bol.PDF"))
	})

	t.Run("tampered local content fails without a storage call", func(t *testing.T) {
		comp, _, oc := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		doc := newDoc("bol.pdf", []byte("original"))
		doc.Content = []byte("tampered")
		s.AttachDocument(doc)

		assert.Equal(t, VerificationFailed, comp.VerifyDocument(ctx, s, "bol.pdf"))
		oc.AssertNotCalled(t, "VerifyIntegrity", mock.Anything, mock.Anything)
	})

	t.Run("corrupted stored copy fails", func(t *testing.T) {
		comp, _, oc := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		s.AttachDocument(newDoc("bol.pdf", []byte("x")))
		oc.On("VerifyIntegrity", ctx, mock.Anything).Return(false)

		assert.Equal(t, VerificationFailed, comp.VerifyDocument(ctx, s, "bol.pdf"))
	})
}

func TestLogDispute(t *testing.T) {
	ctx := context.Background()

	t.Run("records the dispute", func(t *testing.T) {
		comp, gw, _ := newComplianceFixture()
		gw.On("SendTransaction", ctx, "S1", "DISPUTE damaged crate").Return(nil)

		s := model.NewShipment("S1", "A", "B", "d")
		msg, err := comp.LogDispute(ctx, s, "damaged crate")
		require.NoError(t, err)

		assert.Equal(t, "Dispute filed for shipment S1", msg)
		assert.Contains(t, s.History[len(s.History)-1].Message, "Dispute raised: damaged crate")
	})

	t.Run("nil shipment", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		_, err := comp.LogDispute(ctx, nil, "whatever")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("blank description is its own failure", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")

		_, err := comp.LogDispute(ctx, s, "   ")
		assert.ErrorIs(t, err, ErrEmptyDescription)
		assert.NotErrorIs(t, err, ErrDisputeDenied)
	})

	t.Run("delivered shipment cannot be disputed", func(t *testing.T) {
		comp, _, _ := newComplianceFixture()
		s := model.NewShipment("S1", "A", "B", "d")
		s.ApplyStatus(model.StatusDelivered)
		historyLen := len(s.History)

		_, err := comp.LogDispute(ctx, s, "too late")
		assert.ErrorIs(t, err, ErrDisputeDenied)
		assert.Len(t, s.History, historyLen)
	})

	t.Run("ledger failure keeps the dispute event", func(t *testing.T) {
		comp, gw, _ := newComplianceFixture()
		gw.On("SendTransaction", ctx, mock.Anything, mock.Anything).Return(errors.New("down"))

		s := model.NewShipment("S1", "A", "B", "d")
		msg, err := comp.LogDispute(ctx, s, "damaged crate")

		assert.ErrorIs(t, err, ErrLedgerNotify)
		assert.Equal(t, "Dispute filed for shipment S1", msg)
		assert.Contains(t, s.History[len(s.History)-1].Message, "Dispute raised")
	})
}

// Audit reads and snapshot serialization must be able to run while
// another request appends to the same shipment's history.
func TestConcurrentReadsAndStatusUpdates(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	engine := rules.NewEngine()
	gw := new(ledgerMocks.MockGateway)
	oc := new(storeMocks.MockOffChainStore)
	gw.On("SendTransaction", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	gw.On("QueryLedger", mock.Anything, mock.Anything).Return(nil, nil)

	lc := NewLifecycle(reg, engine, gw, oc)
	comp := NewCompliance(reg, engine, gw, oc)

	s, err := lc.CreateShipment(ctx, shipper, "S100", "Toronto", "NYC", "electronics")
	require.NoError(t, err)

	const rounds = 25
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			next := model.StatusInTransit
			if i%2 == 1 {
				next = model.StatusAtWarehouse
			}
			assert.NoError(t, lc.UpdateStatus(ctx, s, next))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			report := comp.GenerateAuditTrail(ctx, s)
			assert.NotEmpty(t, report.Body)
			assert.True(t, comp.EnsureLedgerIntegrity(s))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			snap, err := lc.SnapshotShipment("S100")
			assert.NoError(t, err)
			assert.NotEmpty(t, snap.History)
		}
	}()
	wg.Wait()

	snap, err := lc.SnapshotShipment("S100")
	require.NoError(t, err)
	assert.Len(t, snap.History, rounds+2) // creation events + one per update
	for i := 1; i < len(snap.History); i++ {
		assert.True(t, snap.History[i].Timestamp.After(snap.History[i-1].Timestamp))
	}
}
