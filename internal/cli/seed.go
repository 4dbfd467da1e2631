package cli

import (
	"errors"
	"fmt"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/service"
)

const demoPassword = "habits-demo"

// SeedCmd fills an empty database with demo users and habits.
type SeedCmd struct {
	Users int `help:"Number of demo users." default:"2"`
}

type demoHabit struct {
	action      string
	place       string
	at          string
	leadTime    int
	periodicity int
	pleasurable bool
	public      bool
	reward      string
	// 关联到本批中第 n 个愉悦习惯（从 1 开始），0 表示不关联
	pairWith int
}

var demoHabits = []demoHabit{
	{action: "Take a warm bath", place: "Home", at: "21:30:00", leadTime: 120, periodicity: 1, pleasurable: true},
	{action: "Eat a square of chocolate", place: "Kitchen", at: "15:00:00", leadTime: 30, periodicity: 1, pleasurable: true, public: true},
	{action: "Walk 10000 steps", place: "Park", at: "07:00:00", leadTime: 120, periodicity: 1, public: true, pairWith: 1},
	{action: "Read 10 pages", place: "Sofa", at: "22:00:00", leadTime: 90, periodicity: 1, reward: "Watch an episode"},
	{action: "Clean the desk", place: "Office", at: "18:00:00", leadTime: 60, periodicity: 7, public: true, pairWith: 2},
}

func (c *SeedCmd) Run(ctx *Context) error {
	cfg, err := ctx.setup()
	if err != nil {
		return err
	}
	defer db.Close()

	var count int64
	if err := db.DB.Model(&db.Habit{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count habits: %w", err)
	}
	if count > 0 {
		fmt.Println("Habits already exist, skipping seed")
		return nil
	}

	users := service.NewUserService(db.DB, cfg.UploadDir, cfg.UploadURLPath)
	habits := service.NewHabitService(db.DB)

	for i := 1; i <= c.Users; i++ {
		email := fmt.Sprintf("demo%d@example.com", i)
		user, err := users.Register(service.RegisterInput{Email: email, Password: demoPassword})
		if err != nil {
			if errors.Is(err, service.ErrEmailTaken) {
				fmt.Printf("User %s already exists, skipping\n", email)
				continue
			}
			return fmt.Errorf("create %s: %w", email, err)
		}

		created, err := seedHabits(habits, user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Created %s with %d habits\n", email, created)
	}

	fmt.Printf("Demo password: %s\n", demoPassword)
	return nil
}

func seedHabits(habits *service.HabitService, ownerID uint) (int, error) {
	var pleasurableIDs []uint
	created := 0

	for _, demo := range demoHabits {
		input := service.HabitInput{
			Action:          service.Some(demo.action),
			Place:           service.Some(demo.place),
			Time:            service.Some(demo.at),
			LeadTimeSeconds: service.Some(demo.leadTime),
			PeriodicityDays: service.Some(demo.periodicity),
			IsPleasurable:   service.Some(demo.pleasurable),
			IsPublic:        service.Some(demo.public),
		}
		if demo.reward != "" {
			input.Reward = service.Some(demo.reward)
		}
		if demo.pairWith > 0 && demo.pairWith <= len(pleasurableIDs) {
			input.AssociatedHabitID = service.Some(pleasurableIDs[demo.pairWith-1])
		}

		habit, err := habits.Create(ownerID, input)
		if err != nil {
			return created, fmt.Errorf("seed habit %q: %w", demo.action, err)
		}
		if habit.IsPleasurable {
			pleasurableIDs = append(pleasurableIDs, habit.ID)
		}
		created++
	}
	return created, nil
}
