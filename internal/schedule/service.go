// Package schedule 是排班引擎：事件增删改查、日历视图、空闲时段、项目与技术员汇总以及冲突处理。
//
// 引擎本身不保存任何状态，每次调用都从存储中重新读取事件集合。
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
)

type EventStore interface {
	ListEvents(ctx context.Context, filter domain.ScheduleFilter) ([]*domain.ScheduleEvent, error)
	GetEvent(ctx context.Context, id string) (*domain.ScheduleEvent, error)
	CreateEvent(ctx context.Context, ev *domain.ScheduleEvent) error
	UpdateEvent(ctx context.Context, ev *domain.ScheduleEvent) error
	DeleteEvent(ctx context.Context, id string) error
	UpdateEventStatus(ctx context.Context, id string, status domain.EventStatus, actor string, at time.Time) error
}

type ConflictStore interface {
	ListUnresolvedConflicts(ctx context.Context) ([]*domain.ScheduleConflict, error)
	ResolveConflict(ctx context.Context, id string, actor string, at time.Time) error
}

type ProjectDirectory interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListMilestones(ctx context.Context, projectID string) ([]*domain.Milestone, error)
}

type TechnicianDirectory interface {
	GetTechnician(ctx context.Context, id string) (*domain.Technician, error)
}

// Options 中的时间窗口都是相对于当天零点的偏移量
type Options struct {
	DayStart        time.Duration
	DayEnd          time.Duration
	SlotStride      time.Duration
	DefaultDuration time.Duration
	GridStep        time.Duration
	GridDays        int
	Location        *time.Location
	Now             func() time.Time
	Logger          *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		DayStart:        8 * time.Hour,
		DayEnd:          18 * time.Hour,
		SlotStride:      30 * time.Minute,
		DefaultDuration: time.Hour,
		GridStep:        time.Hour,
		GridDays:        7,
		Location:        time.Local,
		Now:             time.Now,
		Logger:          slog.Default(),
	}
}

func OptionsFromConfig(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, fmt.Errorf("无法加载时区 %q: %w", cfg.Schedule.Timezone, err)
	}

	opts := DefaultOptions()
	opts.DayStart = cfg.Schedule.DayStart
	opts.DayEnd = cfg.Schedule.DayEnd
	opts.SlotStride = cfg.Schedule.SlotStride
	opts.DefaultDuration = cfg.Schedule.DefaultDuration
	opts.GridStep = cfg.Schedule.GridStep
	opts.GridDays = cfg.Schedule.GridDays
	opts.Location = loc

	return opts, nil
}

type Service struct {
	events      EventStore
	conflicts   ConflictStore
	projects    ProjectDirectory
	technicians TechnicianDirectory
	opts        Options
}

func New(events EventStore, conflicts ConflictStore, projects ProjectDirectory, technicians TechnicianDirectory, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		events:      events,
		conflicts:   conflicts,
		projects:    projects,
		technicians: technicians,
		opts:        opts,
	}
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// storeFailure 记录存储层错误后原样包装返回，ErrNotFound 属于正常结果不记录
func (s *Service) storeFailure(op string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		s.opts.Logger.Error("存储访问失败", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// atOffset 把 offset 当作挂钟时间，返回 day 当天对应的时刻
func (s *Service) atOffset(day time.Time, offset time.Duration) time.Time {
	day = day.In(s.opts.Location)
	hours := int(offset / time.Hour)
	minutes := int(offset % time.Hour / time.Minute)
	seconds := int(offset % time.Minute / time.Second)
	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, seconds, 0, s.opts.Location)
}

// startOfDay 返回 t 在引擎时区中所在日期的零点
func (s *Service) startOfDay(t time.Time) time.Time {
	t = t.In(s.opts.Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.opts.Location)
}
