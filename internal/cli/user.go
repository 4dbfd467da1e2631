package cli

import (
	"fmt"

	"github.com/atomichabits/internal/db"
	"github.com/atomichabits/internal/service"
)

// CreateUserCmd creates an account from the command line.
type CreateUserCmd struct {
	Email     string `help:"Login email." required:""`
	Password  string `help:"Password, at least 8 characters." required:""`
	Superuser bool   `help:"Grant superuser rights."`
}

func (c *CreateUserCmd) Run(ctx *Context) error {
	cfg, err := ctx.setup()
	if err != nil {
		return err
	}
	defer db.Close()

	users := service.NewUserService(db.DB, cfg.UploadDir, cfg.UploadURLPath)
	user, err := users.Register(service.RegisterInput{Email: c.Email, Password: c.Password})
	if err != nil {
		return err
	}

	if c.Superuser {
		if err := db.DB.Model(user).Update("is_superuser", true).Error; err != nil {
			return fmt.Errorf("grant superuser: %w", err)
		}
	}

	fmt.Printf("Created user %d (%s)\n", user.ID, user.Email)
	return nil
}
