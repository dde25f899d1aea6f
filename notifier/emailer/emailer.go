package emailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"github.com/amangirdhar210/order-processing-system/models"
	"github.com/amangirdhar210/order-processing-system/notifier/sender"
	"github.com/amangirdhar210/order-processing-system/repository"
)

// Emailer turns order lifecycle events into customer emails. Unknown event
// types and events for missing users are logged and skipped; only delivery
// failures propagate so the queue retries them.
type Emailer struct {
	userRepo repository.UserRepository
	sender   sender.EmailSender
	logger   *zap.Logger
}

func New(userRepo repository.UserRepository, emailSender sender.EmailSender, logger *zap.Logger) *Emailer {
	return &Emailer{userRepo: userRepo, sender: emailSender, logger: logger}
}

type templateData struct {
	FirstName string
	LastName  string
	OrderID   string
}

type eventTemplate struct {
	subject string
	body    *template.Template
}

func mustTemplate(name, body string) *template.Template {
	return template.Must(template.New(name).Parse(body))
}

var eventTemplates = map[models.NotificationEventType]eventTemplate{
	models.EventOrderCreated: {
		subject: "Order Confirmation - %s",
		body: mustTemplate("order_created", `
<html>
<body>
	<h2>Order Confirmation</h2>
	<p>Hello {{.FirstName}} {{.LastName}},</p>
	<p>Thank you for your order!</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>We'll notify you when your payment is confirmed.</p>
</body>
</html>`),
	},
	models.EventPaymentConfirmed: {
		subject: "Payment Confirmed - Order %s",
		body: mustTemplate("payment_confirmed", `
<html>
<body>
	<h2>Payment Confirmed</h2>
	<p>Hello {{.FirstName}},</p>
	<p>Your payment has been successfully processed!</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>Your order is now being prepared for fulfillment.</p>
</body>
</html>`),
	},
	models.EventFulfillmentStarted: {
		subject: "Order Fulfillment Started - %s",
		body: mustTemplate("fulfillment_started", `
<html>
<body>
	<h2>Order Fulfillment Started</h2>
	<p>Hello {{.FirstName}},</p>
	<p>Great news! Your order is now being processed.</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>We'll notify you once your order is fulfilled.</p>
</body>
</html>`),
	},
	models.EventFulfilled: {
		subject: "Order Fulfilled - %s",
		body: mustTemplate("fulfilled", `
<html>
<body>
	<h2>Order Fulfilled</h2>
	<p>Hello {{.FirstName}},</p>
	<p>Your order has been successfully fulfilled!</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>Thank you for your business!</p>
</body>
</html>`),
	},
	models.EventPaymentFailed: {
		subject: "Payment Failed - Order %s",
		body: mustTemplate("payment_failed", `
<html>
<body>
	<h2>Payment Failed</h2>
	<p>Hello {{.FirstName}},</p>
	<p>Unfortunately, we couldn't process your payment.</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>Please try again or contact support for assistance.</p>
</body>
</html>`),
	},
	models.EventFulfillmentCancelled: {
		subject: "Order Fulfillment Cancelled - %s",
		body: mustTemplate("fulfillment_cancelled", `
<html>
<body>
	<h2>Order Fulfillment Cancelled</h2>
	<p>Hello {{.FirstName}},</p>
	<p>We regret to inform you that your order fulfillment has been cancelled.</p>
	<p><strong>Order ID:</strong> {{.OrderID}}</p>
	<p>Please contact support for more information.</p>
</body>
</html>`),
	},
}

// ProcessEvent resolves the recipient and sends the email for one event.
func (e *Emailer) ProcessEvent(ctx context.Context, event *models.NotificationEvent) error {
	tmpl, ok := eventTemplates[event.EventType]
	if !ok {
		e.logger.Warn("Unknown event type, skipping",
			zap.String("event_type", string(event.EventType)),
			zap.String("order_id", event.OrderID),
		)
		return nil
	}

	user, err := e.userRepo.GetByID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if user == nil {
		e.logger.Warn("User not found, skipping",
			zap.String("user_id", event.UserID),
			zap.String("order_id", event.OrderID),
		)
		return nil
	}

	var body bytes.Buffer
	data := templateData{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		OrderID:   event.OrderID,
	}
	if err := tmpl.body.Execute(&body, data); err != nil {
		return fmt.Errorf("render email body: %w", err)
	}

	subject := fmt.Sprintf(tmpl.subject, event.OrderID)
	result, err := e.sender.SendEmail(ctx, user.Email, subject, body.String())
	if err != nil {
		return err
	}

	e.logger.Info("Email sent",
		zap.String("to", user.Email),
		zap.String("event_type", string(event.EventType)),
		zap.String("message_id", result.MessageID),
	)
	return nil
}
