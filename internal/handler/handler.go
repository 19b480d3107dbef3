package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/schedule"
	"golang.org/x/time/rate"
)

// MailPublisher 把邮件放入发送队列
type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	scheduler   *schedule.Service
	translator  ut.Translator
	location    *time.Location
	mailer      MailPublisher
	redisClient *redis.Client

	exportLimiter *rate.Limiter

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, svc *schedule.Service, mailer MailPublisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// 导出会扫描大量事件，全局限流
	perMinute := cfg.Export.RatePerMinute
	if perMinute <= 0 {
		perMinute = 1
	}
	burst := cfg.Export.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		scheduler:   svc,
		translator:  trans,
		location:    loc,
		mailer:      mailer,
		redisClient: rdb,

		exportLimiter: limiter,

		Mux: chi.NewRouter(),
	}, nil
}

var dispatchers = []domain.Role{domain.RoleAdmin, domain.RoleDispatcher}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.ListEvents)
			r.With(h.RequiredRole(dispatchers)).Post("/", h.CreateEvent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetEvent)
				r.With(h.RequiredRole(dispatchers)).Put("/", h.UpdateEvent)
				r.With(h.RequiredRole(dispatchers)).Delete("/", h.DeleteEvent)
				r.Patch("/status", h.UpdateEventStatus) // 技术员需要能更新自己事件的进度
			})
		})

		r.Get("/calendar", h.GetCalendarView)
		r.Get("/availability", h.GetAvailableSlots)
		r.Get("/projects/{id}/schedule", h.GetProjectSchedule)
		r.Get("/technicians/{id}/schedule", h.GetTechnicianSchedule)

		r.Route("/conflicts", func(r chi.Router) {
			r.Get("/", h.ListConflicts)
			r.With(h.RequiredRole(dispatchers)).Post("/{id}/resolve", h.ResolveConflict)
		})

		r.With(h.exportRateLimit).Get("/export", h.ExportCalendar)
	})
}
