package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"shiptrack/internal/service"
)

// RegisterRoutes attaches the HTTP routes to the provided Fiber app.
// Handlers stay thin; all business logic lives in the services.
func RegisterRoutes(app *fiber.App, db *sql.DB, lc service.Lifecycle, comp service.Compliance) {
	// API docs
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	// Probes
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Lifecycle (write side)
	app.Post("/shipments", CreateShipment(lc))
	app.Post("/shipments/:id/status", UpdateStatus(lc))
	app.Post("/shipments/:id/documents", UploadDocument(lc))
	app.Post("/shipments/:id/confirm-delivery", ConfirmDelivery(lc))
	app.Post("/shipments/:id/payment", TriggerPayment(lc))
	app.Post("/shipments/:id/customs", CustomsClearance(lc))

	// Compliance (read side + dispute log)
	app.Get("/shipments/:id", GetShipment(lc))
	app.Get("/shipments/:id/status", QueryStatus(lc, comp))
	app.Get("/shipments/:id/audit-trail", AuditTrail(lc, comp))
	app.Get("/shipments/:id/documents/:name/verify", VerifyDocument(lc, comp))
	app.Post("/shipments/:id/disputes", LogDispute(lc, comp))
	app.Get("/shipments/:id/integrity", LedgerIntegrity(lc, comp))
}
