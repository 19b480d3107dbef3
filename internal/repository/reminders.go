package repository

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

// ListDueReminders 返回到期但尚未发送的邮件提醒，已完成或已取消的事件不再提醒
func (r *Repository) ListDueReminders(ctx context.Context, now time.Time, limit int) ([]*domain.DueReminder, error) {
	query := `
		SELECT
			rm.id,
			rm.event_id,
			rm.reminder_time,
			rm.reminder_type,
			ev.title,
			ev.event_type,
			ev.start_time,
			ev.location,
			ev.technician_ids
		FROM schedule_event_reminders rm
		JOIN schedule_events ev ON ev.id = rm.event_id
		WHERE rm.sent_at IS NULL
			AND rm.reminder_type = $1
			AND rm.reminder_time <= $2
			AND ev.status = ANY($3)
		ORDER BY rm.reminder_time ASC
		LIMIT $4
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	activeStatuses := pq.Array([]string{string(domain.StatusScheduled), string(domain.StatusInProgress)})
	rows, err := r.dbpool.QueryContext(ctx, query, domain.ReminderTypeEmail, now, activeStatuses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dues := []*domain.DueReminder{}
	for rows.Next() {
		due := &domain.DueReminder{}
		dst := []any{
			&due.Reminder.ID,
			&due.Reminder.EventID,
			&due.Reminder.ReminderTime,
			&due.Reminder.ReminderType,
			&due.Event.Title,
			&due.Event.EventType,
			&due.Event.StartTime,
			&due.Event.Location,
			pq.Array(&due.Event.TechnicianIDs),
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		due.Event.ID = due.Reminder.EventID
		dues = append(dues, due)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// 补充每条提醒对应的技术员
	for _, due := range dues {
		if len(due.Event.TechnicianIDs) == 0 {
			due.Technicians = []*domain.Technician{}
			continue
		}
		technicians, err := r.GetTechniciansByIDs(ctx, due.Event.TechnicianIDs)
		if err != nil {
			return nil, err
		}
		due.Technicians = technicians
	}

	return dues, nil
}

func (r *Repository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE schedule_event_reminders
		SET sent_at = $1
		WHERE id = $2 AND sent_at IS NULL
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	return expectAffected(res, "提醒", id)
}
