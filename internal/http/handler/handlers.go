package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"shiptrack/internal/model"
	"shiptrack/internal/rules"
	"shiptrack/internal/service"
)

// actorPayload identifies the custodian performing a write operation.
type actorPayload struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (a actorPayload) custodian() (model.Custodian, error) {
	role, err := model.ParseRole(a.Role)
	if err != nil {
		return model.Custodian{}, err
	}
	return model.Custodian{Name: a.Name, Role: role}, nil
}

type createShipmentRequest struct {
	Actor       actorPayload `json:"actor"`
	ID          string       `json:"id"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`
	Description string       `json:"description"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type actorRequest struct {
	Actor actorPayload `json:"actor"`
}

type disputeRequest struct {
	Description string `json:"description"`
}

type customsRequest struct {
	Actor    actorPayload `json:"actor"`
	Decision string       `json:"decision"`
}

// writeServiceError maps service failures onto the error envelope.
// The taxonomy: authorization and rule denials are 403/409 with the
// denial verbatim, not-found is 404, malformed input is 400.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		return writeError(c, fiber.StatusForbidden, "NOT_AUTHORIZED", err.Error())
	case errors.Is(err, service.ErrDuplicateID):
		return writeError(c, fiber.StatusConflict, "DUPLICATE_ID", err.Error())
	case errors.Is(err, service.ErrDeliveredFinal),
		errors.Is(err, service.ErrPaymentDenied),
		errors.Is(err, service.ErrClearanceDenied),
		errors.Is(err, service.ErrDisputeDenied):
		return writeError(c, fiber.StatusConflict, "RULE_DENIED", err.Error())
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrIDRequired),
		errors.Is(err, service.ErrShipmentRequired),
		errors.Is(err, service.ErrEmptyDescription):
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ledgerWarning extracts the applied-but-not-notified condition: the
// shipment mutation stands, only the ledger mirror failed. Responses
// carry it as a warning instead of failing the request.
func ledgerWarning(err error) string {
	if err != nil && errors.Is(err, service.ErrLedgerNotify) {
		return err.Error()
	}
	return ""
}

// HealthCheck reports readiness based on ledger database connectivity.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// CreateShipment registers a new shipment for a shipper custodian.
func CreateShipment(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShipmentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		actor, err := req.Actor.custodian()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
		}

		_, err = lc.CreateShipment(c.UserContext(), actor, req.ID, req.Origin, req.Destination, req.Description)
		warn := ledgerWarning(err)
		if err != nil && warn == "" {
			return writeServiceError(c, err)
		}

		snap, err := lc.SnapshotShipment(req.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if warn != "" {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"shipment": snap, "warning": warn})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"shipment": snap})
	}
}

// GetShipment returns the full shipment record as a point-in-time
// snapshot, so serialization never races a concurrent mutation.
func GetShipment(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := lc.SnapshotShipment(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(snap)
	}
}

// QueryStatus returns the compliance status line for a shipment.
func QueryStatus(lc service.Lifecycle, comp service.Compliance) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := lc.SnapshotShipment(c.Params("id"))
		if err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", comp.QueryStatus(nil))
		}
		return c.JSON(fiber.Map{"id": snap.ID, "status": snap.Status, "message": comp.QueryStatus(&snap)})
	}
}

// UpdateStatus moves a shipment to a new workflow state.
func UpdateStatus(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		next, err := model.ParseStatus(req.Status)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_STATUS", err.Error())
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		err = lc.UpdateStatus(c.UserContext(), s, next)
		warn := ledgerWarning(err)
		if err != nil && warn == "" {
			return writeServiceError(c, err)
		}

		snap, err := lc.SnapshotShipment(s.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if warn != "" {
			return c.JSON(fiber.Map{"shipment": snap, "warning": warn})
		}
		return c.JSON(fiber.Map{"shipment": snap})
	}
}

// UploadDocument attaches a sealed document to a shipment
// (multipart/form-data, field name: file; actor_name/actor_role form
// fields identify the custodian).
func UploadDocument(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		actor, err := actorPayload{
			Name: c.FormValue("actor_name"),
			Role: c.FormValue("actor_role"),
		}.custodian()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		doc, err := lc.UploadDocument(c.UserContext(), actor, s, fh.Filename, content)
		if warn := ledgerWarning(err); warn != "" {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc, "warning": warn})
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"document": doc})
	}
}

// ConfirmDelivery marks a shipment DELIVERED on behalf of a buyer or
// logistics custodian.
func ConfirmDelivery(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req actorRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		actor, err := req.Actor.custodian()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		err = lc.ConfirmDelivery(c.UserContext(), actor, s)
		warn := ledgerWarning(err)
		if err != nil && warn == "" {
			return writeServiceError(c, err)
		}

		snap, err := lc.SnapshotShipment(s.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if warn != "" {
			return c.JSON(fiber.Map{"shipment": snap, "warning": warn})
		}
		return c.JSON(fiber.Map{"shipment": snap})
	}
}

// TriggerPayment records a payment for a delivered shipment.
func TriggerPayment(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req actorRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		actor, err := req.Actor.custodian()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		err = lc.TriggerPayment(c.UserContext(), actor, s)
		if warn := ledgerWarning(err); warn != "" {
			return c.JSON(fiber.Map{"status": "payment recorded", "warning": warn})
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"status": "payment recorded"})
	}
}

// CustomsClearance applies an APPROVE/REJECT customs ruling.
func CustomsClearance(lc service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req customsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}
		actor, err := req.Actor.custodian()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
		}
		decision, ok := rules.ParseClearanceDecision(req.Decision)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DECISION", "decision must be APPROVE or REJECT")
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		err = lc.ApplyCustomsClearance(c.UserContext(), actor, s, decision)
		warn := ledgerWarning(err)
		if err != nil && warn == "" {
			return writeServiceError(c, err)
		}

		snap, err := lc.SnapshotShipment(s.ID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if warn != "" {
			return c.JSON(fiber.Map{"shipment": snap, "warning": warn})
		}
		return c.JSON(fiber.Map{"shipment": snap})
	}
}

// AuditTrail renders the shipment history as a report.
func AuditTrail(lc service.Lifecycle, comp service.Compliance) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(comp.GenerateAuditTrail(c.UserContext(), s))
	}
}

// VerifyDocument checks a named document's integrity. The result is
// tri-state: missing, valid, or hash mismatch.
func VerifyDocument(lc service.Lifecycle, comp service.Compliance) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		name := c.Params("name")
		result := comp.VerifyDocument(c.UserContext(), s, name)
		if result == service.VerificationNotFound {
			return writeError(c, fiber.StatusNotFound, "DOCUMENT_NOT_FOUND", "document not found: "+name)
		}
		return c.JSON(fiber.Map{"document": name, "result": result})
	}
}

// LogDispute files a dispute against a shipment.
func LogDispute(lc service.Lifecycle, comp service.Compliance) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req disputeRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		}

		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		msg, err := comp.LogDispute(c.UserContext(), s, req.Description)
		if warn := ledgerWarning(err); warn != "" {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg, "warning": warn})
		}
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
	}
}

// LedgerIntegrity reports whether the shipment history satisfies the
// strictly-increasing-timestamp invariant.
func LedgerIntegrity(lc service.Lifecycle, comp service.Compliance) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lc.FindShipmentByID(c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"id": s.ID, "intact": comp.EnsureLedgerIntegrity(s)})
	}
}
