package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/teambition/rrule-go"
)

// ValidateScheduleForm 检查表单中 validator 无法表达的约束
func ValidateScheduleForm(form *domain.ScheduleFormData) error {
	if form.EndTime != nil && form.EndTime.Before(form.StartTime) {
		return domain.ErrInvalidTimeRange
	}

	if !form.EventType.Valid() {
		return fmt.Errorf("未知的事件类型 %q", form.EventType)
	}
	if !form.Priority.Valid() {
		return fmt.Errorf("未知的优先级 %q", form.Priority)
	}
	if form.Status != "" && !form.Status.Valid() {
		return fmt.Errorf("未知的事件状态 %q", form.Status)
	}

	for i, reminder := range form.Reminders {
		if !reminder.ReminderType.Valid() {
			return fmt.Errorf("第 %d 个提醒的类型 %q 无效", i+1, reminder.ReminderType)
		}
	}

	// 空白规则等同于不重复
	if form.RecurringPattern != nil && strings.TrimSpace(*form.RecurringPattern) != "" {
		if _, err := NormalizeRecurrence(*form.RecurringPattern); err != nil {
			return err
		}
	}

	return nil
}

// NormalizeRecurrence 去掉可选的 RRULE: 前缀并校验规则，本系统不展开重复事件
func NormalizeRecurrence(pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)
	pattern = strings.TrimPrefix(strings.ToUpper(pattern), "RRULE:")
	if pattern == "" {
		return "", fmt.Errorf("%w: 规则为空", domain.ErrInvalidRecurrence)
	}

	if _, err := rrule.StrToRRule(pattern); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidRecurrence, err)
	}

	return pattern, nil
}

func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return domain.ErrInvalidTimeRange
	}
	return nil
}
