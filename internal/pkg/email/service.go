package email

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/rs/zerolog/log"
)

// Transport delivers a rendered message
type Transport interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Service handles email sending with templates
type Service struct {
	transport    Transport
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	ToName       string
	Subject      string
	TemplateName string
	Data         interface{}
}

// NewService creates email service and starts its send worker
func NewService(transport Transport) *Service {
	s := &Service{
		transport: transport,
		templates: make(map[string]*template.Template),
		queue:     make(chan *QueuedEmail, 100),
	}

	s.baseTemplate = template.Must(template.New("base").Parse(BaseTemplate))
	s.loadTemplates()

	s.wg.Add(1)
	go s.worker()

	return s
}

func (s *Service) loadTemplates() {
	templates := map[string]string{
		TemplateBookingRequested: BookingRequestedTemplate,
		TemplateBookingCreated:   BookingCreatedTemplate,
		TemplateBookingConfirmed: BookingConfirmedTemplate,
		TemplateBookingRejected:  BookingRejectedTemplate,
		TemplateBookingCancelled: BookingCancelledTemplate,
		TemplatePaymentReceived:  PaymentReceivedTemplate,
		TemplateBookingCompleted: BookingCompletedTemplate,
	}

	for name, content := range templates {
		tmpl, err := template.New(name).Parse(content)
		if err != nil {
			log.Error().Err(err).Str("template", name).Msg("Failed to parse email template")
			continue
		}
		s.templates[name] = tmpl
	}
}

func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		if err := s.send(context.Background(), email); err != nil {
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("Failed to send email")
		}
	}
}

// Render produces the full HTML body for a template
func (s *Service) Render(templateName string, data interface{}) (string, bool, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", false, nil
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, data); err != nil {
		return "", true, err
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return "", true, err
	}
	return htmlBuf.String(), true, nil
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) error {
	html, ok, err := s.Render(email.TemplateName, email.Data)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Str("template", email.TemplateName).Msg("Template not found")
		return nil
	}

	return s.transport.Send(ctx, &EmailMessage{
		To:          email.To,
		ToName:      email.ToName,
		Subject:     email.Subject,
		HTMLContent: html,
	})
}

// Queue adds an email to the async send queue
func (s *Service) Queue(to, toName, templateName, subject string, data interface{}) {
	select {
	case s.queue <- &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	}:
	default:
		log.Warn().Str("to", to).Msg("Email queue full, dropping email")
	}
}

// SendSync sends an email synchronously (blocking)
func (s *Service) SendSync(ctx context.Context, to, toName, templateName, subject string, data interface{}) error {
	return s.send(ctx, &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	})
}

// Close drains the queue and stops the worker
func (s *Service) Close() {
	close(s.queue)
	s.wg.Wait()
}
