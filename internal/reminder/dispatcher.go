// Package reminder 定时扫描到期的事件提醒，并通过邮件队列通知事件的技术员
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

type Store interface {
	ListDueReminders(ctx context.Context, now time.Time, limit int) ([]*domain.DueReminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type Publisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Dispatcher struct {
	store     Store
	publisher Publisher
	spec      string
	batchSize int
	logger    *slog.Logger
	now       func() time.Time

	cron *cron.Cron

	// delivered 记录尚未标记为已发送的提醒已经投递过的收件人，重试时跳过。
	// 只保存在进程内，进程重启后仍可能重复投递。
	mu        sync.Mutex
	delivered map[string]map[string]bool
}

func NewDispatcher(store Store, publisher Publisher, spec string, batchSize int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		store:     store,
		publisher: publisher,
		spec:      spec,
		batchSize: batchSize,
		logger:    logger,
		now:       time.Now,
		cron:      cron.New(),
		delivered: map[string]map[string]bool{},
	}
}

// Start 按 spec 注册定时任务并启动调度，spec 无效时返回错误
func (d *Dispatcher) Start() error {
	_, err := d.cron.AddFunc(d.spec, func() {
		sent, err := d.Dispatch(context.Background())
		if err != nil {
			d.logger.Error("提醒分发失败", "error", err)
			return
		}
		if sent > 0 {
			d.logger.Info("已分发提醒", "count", sent)
		}
	})
	if err != nil {
		return err
	}

	d.cron.Start()
	return nil
}

// Stop 停止调度，返回的 context 在正在执行的任务结束后关闭
func (d *Dispatcher) Stop() context.Context {
	return d.cron.Stop()
}

// Dispatch 处理一批到期提醒，返回成功标记为已发送的提醒数量。
// 某条提醒的邮件投递失败时不标记，留到下一次重试。
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	now := d.now()

	dues, err := d.store.ListDueReminders(ctx, now, d.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	var errs []error
	for _, due := range dues {
		if err := d.notify(ctx, due); err != nil {
			d.logger.Error("投递提醒邮件失败", "reminder", due.Reminder.ID, "event", due.Event.ID, "error", err)
			errs = append(errs, err)
			continue
		}

		err := d.store.MarkReminderSent(ctx, due.Reminder.ID, now)
		switch {
		case err == nil:
			d.forget(due.Reminder.ID)
			sent++
		case errors.Is(err, domain.ErrNotFound):
			// 已被其他实例处理
			d.forget(due.Reminder.ID)
		default:
			errs = append(errs, err)
		}
	}

	return sent, errors.Join(errs...)
}

func (d *Dispatcher) notify(ctx context.Context, due *domain.DueReminder) error {
	for _, technician := range due.Technicians {
		if !technician.IsActive || technician.Email == "" {
			continue
		}
		if d.wasDelivered(due.Reminder.ID, technician.Email) {
			continue
		}

		msg := domain.MailMessage{
			Type: domain.MailTypeEventReminder,
			To:   technician.Email,
			Data: domain.EventReminderMailData{
				TechnicianName: technician.Name,
				Title:          due.Event.Title,
				EventType:      due.Event.EventType,
				StartTime:      due.Event.StartTime,
				Location:       due.Event.Location,
			},
		}
		if err := d.publisher.Publish(ctx, msg); err != nil {
			return err
		}
		d.markDelivered(due.Reminder.ID, technician.Email)
	}

	return nil
}

func (d *Dispatcher) wasDelivered(reminderID, email string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delivered[reminderID][email]
}

func (d *Dispatcher) markDelivered(reminderID, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.delivered[reminderID] == nil {
		d.delivered[reminderID] = map[string]bool{}
	}
	d.delivered[reminderID][email] = true
}

func (d *Dispatcher) forget(reminderID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.delivered, reminderID)
}
