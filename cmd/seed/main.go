package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/schedule"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/seed"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const seedActor = "seed"

func main() {
	var op int
	var n int
	var days int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机技术员, 2: 插入随机项目及里程碑, 3: 插入随机日程, 4: 检测并插入冲突记录, 5: 导入真实人员名单)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量，对于日程表示每天的数量")
	flag.IntVar(&days, "days", 14, "随机日程以及冲突检测覆盖今天前后的天数")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository 和排班引擎
	repo := repository.NewRepository(cfg, dbpool)

	opts, err := schedule.OptionsFromConfig(cfg)
	if err != nil {
		logger.Error("无法创建排班引擎配置", "error", err)
		return
	}
	opts.Logger = logger
	svc := schedule.New(repo, repo, repo, repo, opts)

	today := time.Now().In(opts.Location)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, opts.Location)

	// 执行操作
	bg := context.Background()
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的技术员数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				technician := utils.GenerateRandomTechnician(cfg.Seed.EmailDomain)
				if err := repo.CreateTechnician(bg, technician); err != nil {
					slog.Error("无法插入技术员", slog.String("error", err.Error()))
					continue
				}

				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, technician)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(bg, user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入技术员成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的项目数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				project := utils.GenerateRandomProject()
				if err := repo.CreateProject(bg, project); err != nil {
					slog.Error("无法插入项目", slog.String("error", err.Error()))
					continue
				}

				start := today.AddDate(0, 0, -rand.Intn(60))
				for _, milestone := range utils.GenerateRandomMilestones(project.ID, start) {
					if err := repo.CreateMilestone(bg, milestone); err != nil {
						slog.Error("无法插入里程碑", slog.String("error", err.Error()))
					}
				}

				cnt--
			}

			slog.Info("插入项目成功", slog.Int("count", n-cnt))
		}
	case 3:
		if n <= 0 || days <= 0 {
			slog.Error("请输入合法的日程数量和天数")
			return
		}

		technicians, err := repo.GetAllTechnicians(bg)
		if err != nil {
			slog.Error("无法获取所有技术员", slog.String("error", err.Error()))
			return
		}
		projects, err := repo.GetAllProjects(bg)
		if err != nil {
			slog.Error("无法获取所有项目", slog.String("error", err.Error()))
			return
		}
		if len(technicians) == 0 {
			slog.Error("请先插入技术员")
			return
		}

		cnt := 0
		for d := -days; d <= days; d++ {
			day := today.AddDate(0, 0, d)
			for i := 0; i < n; i++ {
				var project *domain.Project
				if len(projects) > 0 && rand.Intn(4) > 0 {
					project = projects[rand.Intn(len(projects))]
				}

				form := utils.GenerateRandomEventForm(day, project, technicians)
				if _, err := svc.SaveEvent(bg, seedActor, "", form); err != nil {
					slog.Error("无法插入日程", slog.String("error", err.Error()))
					continue
				}

				cnt++
			}
		}

		slog.Info("插入日程成功", slog.Int("count", cnt))
	case 4:
		filter := domain.ScheduleFilter{
			DateRange: &domain.DateRange{
				Start: today.AddDate(0, 0, -days),
				End:   today.AddDate(0, 0, days+1),
			},
		}
		events, err := svc.ListEvents(bg, filter)
		if err != nil {
			slog.Error("无法获取日程", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for _, conflict := range seed.FindDoubleBookings(events) {
			if err := repo.CreateConflict(bg, conflict); err != nil {
				slog.Error("无法插入冲突记录", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入冲突记录成功", slog.Int("count", cnt))
	case 5:
		cnt, err := seed.SeedRealData(bg, repo, cfg.Seed.DataFile, cfg.Seed.User.Password)
		if err != nil {
			slog.Error("导入人员名单失败", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入数据完成", slog.Int("count", cnt))
	default:
		slog.Error("指定的操作非法")
	}
}
