package email

const (
	TemplateBookingRequested = "booking_requested"
	TemplateBookingCreated   = "booking_created"
	TemplateBookingConfirmed = "booking_confirmed"
	TemplateBookingRejected  = "booking_rejected"
	TemplateBookingCancelled = "booking_cancelled"
	TemplatePaymentReceived  = "payment_received"
	TemplateBookingCompleted = "booking_completed"
)

// BookingData is the data every booking template renders
type BookingData struct {
	RecipientName string
	RoomTitle     string
	CheckIn       string
	CheckOut      string
	Total         string
	Reason        string
	RefundAmount  string
	BookingURL    string
}

// BaseTemplate is the base layout for all emails
const BaseTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f4; color: #1c1917; }
        .container { max-width: 600px; margin: 0 auto; padding: 40px 20px; }
        .card { background: #ffffff; border-radius: 12px; padding: 32px; border: 1px solid #e7e5e4; }
        .logo { text-align: center; margin-bottom: 24px; font-size: 24px; font-weight: 700; color: #0f766e; }
        h2 { font-size: 22px; margin: 0 0 16px; }
        p { color: #44403c; font-size: 16px; line-height: 1.6; margin: 0 0 16px; }
        .stay { background: #f0fdfa; border-radius: 8px; padding: 16px; margin: 16px 0; }
        .btn { display: inline-block; background: #0f766e; color: #ffffff !important; text-decoration: none; padding: 12px 24px; border-radius: 8px; font-weight: 600; }
        .footer { text-align: center; margin-top: 32px; color: #78716c; font-size: 13px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo">SpaceHub</div>
        <div class="card">
            {{.Content}}
        </div>
        <div class="footer">You are receiving this because you have a booking on SpaceHub.</div>
    </div>
</body>
</html>
`

const stayBlock = `
<div class="stay">
    <p><strong>{{.RoomTitle}}</strong></p>
    <p>{{.CheckIn}} to {{.CheckOut}}</p>
    <p>Total: {{.Total}}</p>
</div>
`

// BookingRequestedTemplate goes to the host when a guest books
const BookingRequestedTemplate = `
<h2>New booking request</h2>
<p>Hi {{.RecipientName}}, a guest has requested your space.</p>
` + stayBlock + `
<p><a href="{{.BookingURL}}" class="btn">Review request</a></p>
`

// BookingCreatedTemplate goes to the guest after booking
const BookingCreatedTemplate = `
<h2>Booking received</h2>
<p>Hi {{.RecipientName}}, your request was sent to the host. We'll let you know when it is confirmed.</p>
` + stayBlock + `
<p><a href="{{.BookingURL}}" class="btn">View booking</a></p>
`

const BookingConfirmedTemplate = `
<h2>Your booking is confirmed</h2>
<p>Hi {{.RecipientName}}, the host confirmed your stay.</p>
` + stayBlock + `
<p><a href="{{.BookingURL}}" class="btn">View booking</a></p>
`

const BookingRejectedTemplate = `
<h2>Booking declined</h2>
<p>Hi {{.RecipientName}}, unfortunately the host could not accept your request.</p>
` + stayBlock + `
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
`

const BookingCancelledTemplate = `
<h2>Booking cancelled</h2>
<p>Hi {{.RecipientName}}, this booking has been cancelled.</p>
` + stayBlock + `
{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
{{if .RefundAmount}}<p>Refund: {{.RefundAmount}}</p>{{end}}
`

const PaymentReceivedTemplate = `
<h2>Payment received</h2>
<p>Hi {{.RecipientName}}, the host recorded your payment. Your booking is confirmed.</p>
` + stayBlock + `
`

const BookingCompletedTemplate = `
<h2>Thanks for staying</h2>
<p>Hi {{.RecipientName}}, your booking is complete. We hope you enjoyed the space.</p>
` + stayBlock + `
`
