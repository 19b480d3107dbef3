package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

type recordingChannel struct {
	key      string
	msg      amqp.Publishing
	deadline bool
	err      error
}

func (c *recordingChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	_, c.deadline = ctx.Deadline()
	c.key = key
	c.msg = msg
	return c.err
}

func TestPublish(t *testing.T) {
	ch := &recordingChannel{}
	p := NewPublisher(ch, "email_queue", 5*time.Second)

	err := p.Publish(context.Background(), domain.MailMessage{
		Type: domain.MailTypeEventReminder,
		To:   "wangwei@example.com",
		Data: domain.EventReminderMailData{Title: "机组安装"},
	})
	require.NoError(t, err)

	assert.Equal(t, "email_queue", ch.key)
	assert.True(t, ch.deadline)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded struct {
		Type string                       `json:"type"`
		To   string                       `json:"to"`
		Data domain.EventReminderMailData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, domain.MailTypeEventReminder, decoded.Type)
	assert.Equal(t, "机组安装", decoded.Data.Title)
}

func TestPublishError(t *testing.T) {
	ch := &recordingChannel{err: amqp.ErrClosed}
	p := NewPublisher(ch, "email_queue", time.Second)

	err := p.Publish(context.Background(), domain.MailMessage{Type: domain.MailTypeResetPassword})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}
