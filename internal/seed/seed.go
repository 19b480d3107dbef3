package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var requiredHeaders = []string{"姓名", "用户名", "邮箱", "电话", "技能", "角色"}

type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) error
	CreateTechnician(ctx context.Context, technician *domain.Technician) error
}

// SeedRealData 从 CSV 导入真实的人员名单，已经存在的用户名会被跳过
func SeedRealData(ctx context.Context, r Store, path string, password string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	for _, key := range requiredHeaders {
		if !slices.Contains(headers, key) {
			return 0, fmt.Errorf("没有找到列 %q", key)
		}
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return cnt, fmt.Errorf("读取文件失败: %w", err)
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		username := record["用户名"]
		if username == "" {
			slog.Error("没有找到用户名", "record", record)
			continue
		}

		if _, err := r.GetUserByUsername(ctx, username); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("获取用户失败", "username", username, "error", err)
			continue
		}

		role := domain.Role(record["角色"])
		user := &domain.User{
			Username:     username,
			PasswordHash: string(passwordHash),
			FullName:     record["姓名"],
			Email:        record["邮箱"],
			Role:         role,
		}

		// 只有技术员需要技术员档案
		if role == domain.RoleTechnician {
			technician := &domain.Technician{
				ID:     uuid.NewString(),
				Name:   record["姓名"],
				Email:  record["邮箱"],
				Phone:  record["电话"],
				Skills: splitSkills(record["技能"]),
			}
			if err := r.CreateTechnician(ctx, technician); err != nil {
				slog.Error("插入技术员失败", "username", username, "error", err)
				continue
			}
			user.TechnicianID = &technician.ID
		}

		if err := r.CreateUser(ctx, user); err != nil {
			slog.Error("插入用户失败", "username", username, "error", err)
			continue
		}

		cnt++
	}

	return cnt, nil
}

func splitSkills(s string) []string {
	skills := []string{}
	for _, skill := range strings.Split(s, ";") {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}

// FindDoubleBookings 找出同一技术员名下时间重叠的事件对，已取消的事件不参与比较
func FindDoubleBookings(events []*domain.ScheduleEvent) []*domain.ScheduleConflict {
	byTechnician := map[string][]*domain.ScheduleEvent{}
	technicianIDs := []string{}
	for _, ev := range events {
		if ev.Status == domain.StatusCancelled {
			continue
		}
		for _, id := range ev.TechnicianIDs {
			if _, ok := byTechnician[id]; !ok {
				technicianIDs = append(technicianIDs, id)
			}
			byTechnician[id] = append(byTechnician[id], ev)
		}
	}

	conflicts := []*domain.ScheduleConflict{}
	for _, technicianID := range technicianIDs {
		booked := byTechnician[technicianID]
		for i := 0; i < len(booked); i++ {
			for j := i + 1; j < len(booked); j++ {
				a, b := booked[i], booked[j]
				if !a.Overlaps(b.StartTime, b.End()) {
					continue
				}

				id := technicianID
				conflicts = append(conflicts, &domain.ScheduleConflict{
					ID:           uuid.NewString(),
					EventIDs:     []string{a.ID, b.ID},
					TechnicianID: &id,
					Description:  fmt.Sprintf("「%s」与「%s」时间重叠", a.Title, b.Title),
				})
			}
		}
	}

	return conflicts
}
