package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

const eventColumns = `
	id,
	title,
	description,
	start_time,
	end_time,
	all_day,
	event_type,
	status,
	priority,
	color,
	project_id,
	customer_id,
	technician_ids,
	location,
	notes,
	recurring_pattern,
	created_by,
	updated_by,
	created_at,
	updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.ScheduleEvent, error) {
	var (
		ev               domain.ScheduleEvent
		endTime          sql.NullTime
		projectID        sql.NullString
		customerID       sql.NullString
		recurringPattern sql.NullString
	)

	dst := []any{
		&ev.ID,
		&ev.Title,
		&ev.Description,
		&ev.StartTime,
		&endTime,
		&ev.AllDay,
		&ev.EventType,
		&ev.Status,
		&ev.Priority,
		&ev.Color,
		&projectID,
		&customerID,
		pq.Array(&ev.TechnicianIDs),
		&ev.Location,
		&ev.Notes,
		&recurringPattern,
		&ev.CreatedBy,
		&ev.UpdatedBy,
		&ev.CreatedAt,
		&ev.UpdatedAt,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	ev.EndTime = nullTimePtr(endTime)
	ev.ProjectID = nullStringPtr(projectID)
	ev.CustomerID = nullStringPtr(customerID)
	ev.RecurringPattern = nullStringPtr(recurringPattern)
	if ev.TechnicianIDs == nil {
		ev.TechnicianIDs = []string{}
	}
	ev.Reminders = []domain.Reminder{}
	ev.Attachments = []domain.Attachment{}

	return &ev, nil
}

// buildEventFilter 把筛选条件转换成 WHERE 子句，各条件之间取交集
func buildEventFilter(filter domain.ScheduleFilter) (string, []any) {
	conditions := []string{}
	args := []any{}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.EventTypes) > 0 {
		conditions = append(conditions, "event_type = ANY("+next(pq.Array(toStrings(filter.EventTypes)))+")")
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status = ANY("+next(pq.Array(toStrings(filter.Statuses)))+")")
	}
	if len(filter.Priorities) > 0 {
		conditions = append(conditions, "priority = ANY("+next(pq.Array(toStrings(filter.Priorities)))+")")
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = "+next(*filter.ProjectID))
	}
	if filter.CustomerID != nil {
		conditions = append(conditions, "customer_id = "+next(*filter.CustomerID))
	}
	if len(filter.TechnicianIDs) > 0 {
		conditions = append(conditions, "technician_ids && "+next(pq.Array(filter.TechnicianIDs))+"::text[]")
	}
	if filter.DateRange != nil {
		// 与 ScheduleEvent.IntersectsRange 保持一致
		start := next(filter.DateRange.Start)
		end := next(filter.DateRange.End)
		conditions = append(conditions, fmt.Sprintf("start_time < %s AND (start_time >= %s OR end_time > %s)", end, start, start))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := next("%" + escapeLike(search) + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", pattern, pattern))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *Repository) ListEvents(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduleEvent, error) {
	where, args := buildEventFilter(filter)
	query := fmt.Sprintf(`
		SELECT %s
		FROM schedule_events
		%s
		ORDER BY start_time ASC, id ASC
	`, eventColumns, where)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []*domain.ScheduleEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadEventChildren(ctx, events); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *Repository) GetEvent(ctx context.Context, id string) (*domain.ScheduleEvent, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM schedule_events
		WHERE id = $1
	`, eventColumns)

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	ev, err := scanEvent(r.dbpool.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("事件 %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	if err := r.loadEventChildren(ctx, []*domain.ScheduleEvent{ev}); err != nil {
		return nil, err
	}

	return ev, nil
}

// loadEventChildren 一次性加载所有事件的提醒和附件
func (r *Repository) loadEventChildren(ctx context.Context, events []*domain.ScheduleEvent) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]string, len(events))
	byID := make(map[string]*domain.ScheduleEvent, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
		byID[ev.ID] = ev
	}

	query := `
		SELECT id, event_id, reminder_time, reminder_type, sent_at
		FROM schedule_event_reminders
		WHERE event_id = ANY($1)
		ORDER BY reminder_time ASC
	`
	rows, err := r.dbpool.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			reminder domain.Reminder
			sentAt   sql.NullTime
		)
		if err := rows.Scan(&reminder.ID, &reminder.EventID, &reminder.ReminderTime, &reminder.ReminderType, &sentAt); err != nil {
			return err
		}
		reminder.SentAt = nullTimePtr(sentAt)
		if ev, ok := byID[reminder.EventID]; ok {
			ev.Reminders = append(ev.Reminders, reminder)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	query = `
		SELECT id, event_id, name, url
		FROM schedule_event_attachments
		WHERE event_id = ANY($1)
		ORDER BY name ASC
	`
	attachmentRows, err := r.dbpool.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer attachmentRows.Close()

	for attachmentRows.Next() {
		var attachment domain.Attachment
		if err := attachmentRows.Scan(&attachment.ID, &attachment.EventID, &attachment.Name, &attachment.URL); err != nil {
			return err
		}
		if ev, ok := byID[attachment.EventID]; ok {
			ev.Attachments = append(ev.Attachments, attachment)
		}
	}

	return attachmentRows.Err()
}

func (r *Repository) CreateEvent(ctx context.Context, ev *domain.ScheduleEvent) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedule_events (
			id,
			title,
			description,
			start_time,
			end_time,
			all_day,
			event_type,
			status,
			priority,
			color,
			project_id,
			customer_id,
			technician_ids,
			location,
			notes,
			recurring_pattern,
			created_by,
			updated_by,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	params := []any{
		ev.ID,
		ev.Title,
		ev.Description,
		ev.StartTime,
		ev.EndTime,
		ev.AllDay,
		ev.EventType,
		ev.Status,
		ev.Priority,
		ev.Color,
		ev.ProjectID,
		ev.CustomerID,
		pq.Array(ev.TechnicianIDs),
		ev.Location,
		ev.Notes,
		ev.RecurringPattern,
		ev.CreatedBy,
		ev.UpdatedBy,
		ev.CreatedAt,
		ev.UpdatedAt,
	}
	if _, err := tx.ExecContext(ctx, query, params...); err != nil {
		return err
	}

	if err := insertEventChildren(ctx, tx, ev); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateEvent 整体替换事件字段，提醒和附件先删除再重新插入
func (r *Repository) UpdateEvent(ctx context.Context, ev *domain.ScheduleEvent) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE schedule_events
		SET
			title = $1,
			description = $2,
			start_time = $3,
			end_time = $4,
			all_day = $5,
			event_type = $6,
			status = $7,
			priority = $8,
			color = $9,
			project_id = $10,
			customer_id = $11,
			technician_ids = $12,
			location = $13,
			notes = $14,
			recurring_pattern = $15,
			updated_by = $16,
			updated_at = $17
		WHERE id = $18
	`
	params := []any{
		ev.Title,
		ev.Description,
		ev.StartTime,
		ev.EndTime,
		ev.AllDay,
		ev.EventType,
		ev.Status,
		ev.Priority,
		ev.Color,
		ev.ProjectID,
		ev.CustomerID,
		pq.Array(ev.TechnicianIDs),
		ev.Location,
		ev.Notes,
		ev.RecurringPattern,
		ev.UpdatedBy,
		ev.UpdatedAt,
		ev.ID,
	}
	res, err := tx.ExecContext(ctx, query, params...)
	if err != nil {
		return err
	}
	if err := expectAffected(res, "事件", ev.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_event_reminders WHERE event_id = $1`, ev.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_event_attachments WHERE event_id = $1`, ev.ID); err != nil {
		return err
	}

	if err := insertEventChildren(ctx, tx, ev); err != nil {
		return err
	}

	return tx.Commit()
}

func insertEventChildren(ctx context.Context, tx *sql.Tx, ev *domain.ScheduleEvent) error {
	for _, reminder := range ev.Reminders {
		query := `
			INSERT INTO schedule_event_reminders (id, event_id, reminder_time, reminder_type, sent_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		params := []any{reminder.ID, ev.ID, reminder.ReminderTime, reminder.ReminderType, reminder.SentAt}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	for _, attachment := range ev.Attachments {
		query := `
			INSERT INTO schedule_event_attachments (id, event_id, name, url)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, attachment.ID, ev.ID, attachment.Name, attachment.URL); err != nil {
			return err
		}
	}

	return nil
}

// DeleteEvent 在同一个事务中删除事件及其提醒和附件
func (r *Repository) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_event_reminders WHERE event_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_event_attachments WHERE event_id = $1`, id); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM schedule_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectAffected(res, "事件", id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UpdateEventStatus(ctx context.Context, id string, status domain.EventStatus, actor string, at time.Time) error {
	query := `
		UPDATE schedule_events
		SET status = $1, updated_by = $2, updated_at = $3
		WHERE id = $4
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, status, actor, at, id)
	if err != nil {
		return err
	}

	return expectAffected(res, "事件", id)
}

func expectAffected(res sql.Result, kind, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
