package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/field-scheduler/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := rand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var skills = []string{"柴油机组", "燃气机组", "配电柜", "ATS 切换", "并机调试", "电缆敷设", "土建基础", "噪音治理"}

func GenerateRandomTechnician(emailDomainName string) *domain.Technician {
	name := GenerateRandomChineseName()

	picked := map[string]bool{}
	n := rand.Intn(3) + 1
	techSkills := make([]string, 0, n)
	for len(techSkills) < n {
		s := skills[rand.Intn(len(skills))]
		if picked[s] {
			continue
		}
		picked[s] = true
		techSkills = append(techSkills, s)
	}

	return &domain.Technician{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    GenerateUsernameFromChineseName(name) + "@" + emailDomainName,
		Phone:    fmt.Sprintf("1%d%09d", rand.Intn(9)+30, rand.Intn(1000000000)),
		Skills:   techSkills,
		IsActive: rand.Intn(10) > 0,
	}
}

// GenerateRandomUser 生成关联到某个技术员档案的技术员账号
func GenerateRandomUser(password string, technician *domain.Technician) (*domain.User, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     GenerateUsernameFromChineseName(technician.Name),
		PasswordHash: string(passwordHash),
		FullName:     technician.Name,
		Email:        technician.Email,
		Role:         domain.RoleTechnician,
		TechnicianID: &technician.ID,
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = letters[rand.Intn(26)]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

var cities = []string{"广州市天河区", "广州市番禺区", "深圳市南山区", "佛山市顺德区", "东莞市松山湖", "珠海市香洲区"}

func GenerateRandomProject() *domain.Project {
	customerID := "C" + GenerateRandomID(0, 6)
	return &domain.Project{
		ID:                   uuid.NewString(),
		Name:                 cities[rand.Intn(len(cities))] + "备用电源项目" + GenerateRandomID(2, 3),
		CustomerID:           &customerID,
		CompletionPercentage: float64(rand.Intn(101)),
	}
}

var milestoneTitles = []string{"现场勘察", "方案确认", "设备到货", "基础施工", "安装就位", "调试验收"}

// GenerateRandomMilestones 按顺序为项目生成里程碑，截止日期从 start 开始每隔一到两周
func GenerateRandomMilestones(projectID string, start time.Time) []*domain.Milestone {
	milestones := make([]*domain.Milestone, len(milestoneTitles))
	due := start
	for i, title := range milestoneTitles {
		due = due.AddDate(0, 0, rand.Intn(8)+7)
		milestones[i] = &domain.Milestone{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Title:     title,
			DueDate:   due,
			Completed: due.Before(time.Now()),
		}
	}
	return milestones
}

// 使用 Fisher-Yates 洗牌算法来生成一个随机子集
func GenerateRandomSubset[T any](arr []T, maxLen int) []T {
	arrCopy := append([]T{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	if maxLen > len(arrCopy) {
		maxLen = len(arrCopy)
	}
	if maxLen == 0 {
		return arrCopy[:0]
	}
	return arrCopy[:rand.Intn(maxLen)+1]
}

var eventTitles = map[domain.EventType]string{
	domain.EventTypeInstallation: "机组安装",
	domain.EventTypeMaintenance:  "定期保养",
	domain.EventTypeRepair:       "故障维修",
	domain.EventTypeInspection:   "年度巡检",
	domain.EventTypeSurvey:       "现场勘察",
	domain.EventTypeConsultation: "客户咨询",
}

// GenerateRandomEventForm 在 day 当天的营业时间内生成一个事件表单，project 可以为空
func GenerateRandomEventForm(day time.Time, project *domain.Project, technicians []*domain.Technician) *domain.ScheduleFormData {
	eventType := domain.EventTypes[rand.Intn(len(domain.EventTypes))]
	start := time.Date(day.Year(), day.Month(), day.Day(), 8+rand.Intn(8), 30*rand.Intn(2), 0, 0, day.Location())

	form := &domain.ScheduleFormData{
		Title:     eventTitles[eventType] + " " + GenerateRandomID(2, 2),
		StartTime: start,
		EventType: eventType,
		Status:    domain.StatusScheduled,
		Priority:  domain.Priorities[rand.Intn(len(domain.Priorities))],
		Location:  cities[rand.Intn(len(cities))],
	}

	// 少量事件没有确定的结束时间
	if rand.Intn(10) > 0 {
		end := start.Add(time.Duration(rand.Intn(4)+1) * time.Hour)
		form.EndTime = &end
	}

	if start.Before(time.Now()) {
		form.Status = []domain.EventStatus{domain.StatusCompleted, domain.StatusInProgress, domain.StatusCancelled}[rand.Intn(3)]
	}

	if project != nil {
		form.ProjectID = &project.ID
		form.CustomerID = project.CustomerID
	}

	ids := make([]string, 0, len(technicians))
	for _, t := range GenerateRandomSubset(technicians, 3) {
		ids = append(ids, t.ID)
	}
	form.TechnicianIDs = ids

	if rand.Intn(3) == 0 {
		form.Reminders = []domain.ReminderForm{{
			ReminderTime: start.Add(-24 * time.Hour),
			ReminderType: domain.ReminderTypeEmail,
		}}
	}

	return form
}
