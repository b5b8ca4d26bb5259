package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DevMailer writes messages to a directory instead of sending them, for
// local development without a Postmark account.
type DevMailer struct {
	dir string
}

// NewDev creates a mailer that saves messages as HTML files under dir.
func NewDev(dir string) *DevMailer {
	return &DevMailer{dir: dir}
}

func (m *DevMailer) Send(ctx context.Context, msg Message) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}

	name := fmt.Sprintf("%s_%s.html", time.Now().Format("2006_01_02_150405"), msg.Tag)
	body := fmt.Sprintf("<!-- to: %s subject: %s -->\n%s", msg.To, msg.Subject, msg.BodyHTML)

	if err := os.WriteFile(filepath.Join(m.dir, name), []byte(body), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToSend, err)
	}
	return nil
}
