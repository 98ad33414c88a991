package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-smtp"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/whitelist"
	"go.uber.org/zap"
)

const (
	statusWhitelisted = "whitelisted"
	statusUnscanned   = "unscanned"
	analysisTimeout   = 10 * time.Second
)

// PostfixFilter implements a Postfix content filter that tags phishing mail
type PostfixFilter struct {
	session   *core.AnalysisSession
	whitelist *whitelist.Checker
	logger    *zap.Logger
	cfg       config.ServerConfig
	server    *smtp.Server
	listener  net.Listener
	timeout   time.Duration
}

// NewPostfixFilter creates a new Postfix content filter.
// delay is the session's simulated analysis latency; it extends the
// per-message analysis timeout.
func NewPostfixFilter(
	session *core.AnalysisSession,
	whitelistChecker *whitelist.Checker,
	logger *zap.Logger,
	cfg config.ServerConfig,
	delay time.Duration,
) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**PHISHING**] "
	}

	return &PostfixFilter{
		session:   session,
		whitelist: whitelistChecker,
		logger:    logger,
		cfg:       cfg,
		timeout:   delay + analysisTimeout,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}
	f.listener = ln

	f.logger.Info("Postfix filter starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the address the filter is listening on
func (f *PostfixFilter) Addr() net.Addr {
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// Process analyzes email text directly, bypassing SMTP
func (f *PostfixFilter) Process(ctx context.Context, content string, kind core.ContentKind) (*core.ClassificationRecord, error) {
	return f.session.Analyze(ctx, content, kind)
}

// headerLine is a header prepended to a filtered message
type headerLine struct {
	name  string
	value string
}

// verdictHeaders renders the headers describing an analysis outcome
func (f *PostfixFilter) verdictHeaders(record *core.ClassificationRecord) []headerLine {
	return []headerLine{
		{f.cfg.Headers.Phishing, strconv.FormatBool(record.IsPhishing)},
		{f.cfg.Headers.Confidence, strconv.Itoa(record.Confidence)},
		{f.cfg.Headers.Reasons, sanitizeHeaderValue(strings.Join(record.Reasons, "; "))},
	}
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.Postfix.Address, strconv.Itoa(f.cfg.Postfix.Port))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// The message is already accepted at this point
	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data scans the message, tags it and relays it to Postfix
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	rawData, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	senderDomain, ok := whitelist.SenderDomain(s.sender)
	if !ok {
		senderDomain = "unknown"
	}

	var headers []headerLine
	var record *core.ClassificationRecord

	if f.whitelist != nil && f.whitelist.IsWhitelisted(s.sender) {
		f.logger.Info("Skipping phishing check for whitelisted domain",
			zap.String("sender", s.sender),
			zap.String("action", "whitelist_bypass"))
		headers = []headerLine{{f.cfg.Headers.Phishing, statusWhitelisted}}
	} else {
		record, headers, err = s.analyze(msg)
		if err != nil {
			return err
		}
	}

	if record != nil && record.IsPhishing && f.cfg.BlockPhishing {
		f.logger.Info("Rejecting phishing email",
			zap.String("from", s.sender),
			zap.String("sender_domain", senderDomain),
			zap.Int("confidence", record.Confidence),
			zap.Strings("reasons", record.Reasons))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as phishing (confidence: %d%%)", record.Confidence),
		}
	}

	subject := ""
	if record != nil && record.IsPhishing && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" {
		subject = prefixSubject(msg.Header.Get("Subject"), f.cfg.SubjectPrefix)
	}

	filtered := buildFilteredMessage(rawData, msg.Header, headers, subject)

	if f.cfg.Postfix.Enabled {
		if err := f.sendToPostfix(s.sender, s.recipients, filtered); err != nil {
			f.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", s.sender))
			return err
		}
	} else {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	fields := []zap.Field{
		zap.String("from", s.sender),
		zap.String("sender_domain", senderDomain),
	}
	if record != nil {
		fields = append(fields,
			zap.String("id", record.ID),
			zap.Bool("is_phishing", record.IsPhishing),
			zap.Int("confidence", record.Confidence))
	}
	f.logger.Info("Processed email", fields...)

	return nil
}

// analyze runs the message text through the session. A busy session asks
// the client to retry; any other failure lets the mail through untagged.
func (s *smtpSession) analyze(msg *mail.Message) (*core.ClassificationRecord, []headerLine, error) {
	f := s.filter

	text, err := extractTextFromMessage(msg)
	if err != nil {
		f.logger.Error("Failed to extract text content", zap.Error(err))
		return nil, nil, err
	}

	content := text
	if subject := msg.Header.Get("Subject"); subject != "" {
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		content = subject + "\n\n" + text
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	record, err := f.session.Analyze(ctx, content, core.KindEmail)
	switch {
	case err == nil:
		return record, f.verdictHeaders(record), nil
	case errors.Is(err, core.ErrConcurrentSubmit):
		f.logger.Warn("Scanner busy, deferring message", zap.String("sender", s.sender))
		return nil, nil, &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Scanner busy, try again later",
		}
	default:
		f.logger.Error("Failed to analyze email",
			zap.Error(err),
			zap.String("sender", s.sender))
		return nil, []headerLine{
			{f.cfg.Headers.Phishing, statusUnscanned},
			{"X-Phishing-Analysis-Error", sanitizeHeaderValue(err.Error())},
		}, nil
	}
}

// Logout handles SMTP logout (not needed for our filter)
func (s *smtpSession) Logout() error {
	return nil
}

// buildFilteredMessage prepends headers to the original message, replacing
// the Subject when subject is set. The body is copied byte for byte so MIME
// parts and attachments survive.
func buildFilteredMessage(raw []byte, header mail.Header, added []headerLine, subject string) []byte {
	var out bytes.Buffer

	for _, h := range added {
		fmt.Fprintf(&out, "%s: %s\r\n", h.name, h.value)
	}
	if subject != "" {
		fmt.Fprintf(&out, "Subject: %s\r\n", subject)
	}

	for key, values := range header {
		if subject != "" && strings.EqualFold(key, "Subject") {
			continue
		}
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\r\n", key, value)
		}
	}

	out.WriteString("\r\n")

	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		out.Write(raw[i+4:])
	} else if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		out.Write(raw[i+2:])
	}

	return out.Bytes()
}

// prefixSubject prepends prefix unless the decoded subject already carries it
func prefixSubject(original, prefix string) string {
	decoded, err := decodeEncodedHeader(original)
	if err != nil {
		decoded = original
	}
	if strings.HasPrefix(decoded, prefix) {
		return original
	}
	return encodeHeaderValue(prefix + decoded)
}

// encodeHeaderValue RFC 2047 encodes values that are not plain ASCII
func encodeHeaderValue(v string) string {
	for i := 0; i < len(v); i++ {
		if v[i] >= utf8.RuneSelf {
			return mime.QEncoding.Encode("utf-8", v)
		}
	}
	return v
}

// sanitizeHeaderValue keeps a value on a single header line
func sanitizeHeaderValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
