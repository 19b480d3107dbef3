package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/queue"
	"github.com/wneessen/go-mail"
)

// incomingMail 延迟解析 data，根据 type 再解码成具体的结构
type incomingMail struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

type mailKind struct {
	template string
	subject  string
	data     func() any
}

var mailKinds = map[string]mailKind{
	domain.MailTypeResetPassword: {
		template: "./templates/reset_password_otp_email.html",
		subject:  "现场排程系统 - 重置密码",
		data:     func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailTypeEventReminder: {
		template: "./templates/event_reminder_email.html",
		subject:  "现场排程系统 - 日程提醒",
		data:     func() any { return &domain.EventReminderMailData{} },
	},
}

var eventTypeLabels = map[domain.EventType]string{
	domain.EventTypeInstallation: "安装",
	domain.EventTypeMaintenance:  "保养",
	domain.EventTypeRepair:       "维修",
	domain.EventTypeInspection:   "巡检",
	domain.EventTypeSurvey:       "勘察",
	domain.EventTypeConsultation: "咨询",
}

var templateFuncs = template.FuncMap{
	"datetime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
	"eventType": func(t domain.EventType) string {
		if label, ok := eventTypeLabels[t]; ok {
			return label
		}
		return string(t)
	},
}

func buildMessage(from string, incoming incomingMail) (*mail.Msg, error) {
	kind, ok := mailKinds[incoming.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型 %q", incoming.Type)
	}

	data := kind.data()
	if err := json.Unmarshal(incoming.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据解析失败: %w", err)
	}

	tmpl, err := template.New(filepath.Base(kind.template)).Funcs(templateFuncs).ParseFiles(kind.template)
	if err != nil {
		return nil, fmt.Errorf("无法解析邮件模板: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(incoming.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	m.Subject(kind.subject)

	return m, nil
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := queue.DeclareMailQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false,  // 是否自动确认
		false,  // 是否独占队列
		false,  // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false,  // 是否不等待，等待 RabbitMQ 响应
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					return
				}

				incoming := incomingMail{}
				if err := json.Unmarshal(msg.Body, &incoming); err != nil {
					logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}
				logger.Info("收到邮件任务", slog.String("type", incoming.Type), slog.String("to", incoming.To))

				m, err := buildMessage(cfg.Email.SMTP.Username, incoming)
				if err != nil {
					logger.Error("无法构建邮件", slog.String("type", incoming.Type), slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	logger.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	logger.Info("mail worker 已成功关闭")
}
