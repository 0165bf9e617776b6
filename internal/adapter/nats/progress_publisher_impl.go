// Package nats publishes scan progress on a NATS subject per scan.
package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/user/alt-audit-service/internal/progress"
	"github.com/user/alt-audit-service/internal/repository"
)

const DefaultSubject = "altaudit.progress"

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	PublishMsg(msg *nats.Msg) error
	Drain() error
}

// ProgressPublisherImpl sends each event to <subject>.<scan id> so that
// consumers can follow one scan or all of them with <subject>.>.
type ProgressPublisherImpl struct {
	conn    Conn
	subject string
}

var _ repository.ProgressPublisher = (*ProgressPublisherImpl)(nil)

// Connect dials url and returns a publisher owning the connection.
func Connect(url, subject string) (*ProgressPublisherImpl, error) {
	nc, err := nats.Connect(url, nats.Name("alt-audit-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return NewProgressPublisher(nc, subject), nil
}

func NewProgressPublisher(conn Conn, subject string) *ProgressPublisherImpl {
	if subject == "" {
		subject = DefaultSubject
	}
	return &ProgressPublisherImpl{conn: conn, subject: subject}
}

func (p *ProgressPublisherImpl) Publish(ctx context.Context, event progress.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode progress event: %w", err)
	}

	msg := nats.NewMsg(p.subject + "." + event.ScanID)
	msg.Header.Set("Event-Kind", string(event.Kind))
	msg.Data = data
	return p.conn.PublishMsg(msg)
}

// Close drains pending messages and closes the connection.
func (p *ProgressPublisherImpl) Close() error {
	return p.conn.Drain()
}
