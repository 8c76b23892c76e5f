//cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/app"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/auth"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/config"
	appErrors "github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/errors"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/logger"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/service"
)

// Demo accounts share this password.
const demoPassword = "demo-password"

func main() {
	configPath := flag.String("config", ".", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.NewFromConfig(cfg.Logging).With().Str("component", "seeder").Logger()
	if !cfg.EnvFileLoaded {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx := context.Background()
	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer a.Close()

	if err := seed(ctx, a); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	fmt.Println("Database seeding completed successfully!")
}

func seed(ctx context.Context, a *app.App) error {
	if _, err := ensureUser(ctx, a, "manager@example.com", "manager"); err != nil {
		return err
	}
	if _, err := a.Users.PromoteToManager(ctx, "manager@example.com"); err != nil {
		return err
	}
	fmt.Println("Seeded: manager@example.com (manager)")

	u, err := ensureUser(ctx, a, "demo@example.com", "demo")
	if err != nil {
		return err
	}
	p := auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}

	var clientIDs []int
	for i := 1; i <= 3; i++ {
		c, err := a.Clients.Create(ctx, p, service.ClientInput{
			Email:    fmt.Sprintf("subscriber%d@example.com", i),
			FullName: fmt.Sprintf("Subscriber %d", i),
		})
		var conflict *appErrors.ErrConflict
		if errors.As(err, &conflict) {
			fmt.Printf("Skipped: subscriber%d@example.com already exists\n", i)
			return nil
		}
		if err != nil {
			return err
		}
		clientIDs = append(clientIDs, c.ID)
	}
	fmt.Printf("Seeded: %d clients\n", len(clientIDs))

	msg, err := a.Messages.Create(ctx, p, service.MessageInput{
		Subject: "Welcome to our newsletter",
		Body:    "Thanks for subscribing. The first issue is on its way.",
	})
	if err != nil {
		return err
	}

	start := time.Now().Truncate(time.Minute)
	m, err := a.Mailings.Create(ctx, p, service.MailingInput{
		FirstSendTime: start,
		EndTime:       start.Add(24 * time.Hour),
		MessageID:     msg.ID,
		ClientIDs:     clientIDs,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Seeded: mailing %d (window %s to %s)\n", m.ID, m.FirstSendTime.Format(time.RFC3339), m.EndTime.Format(time.RFC3339))
	return nil
}

// ensureUser registers email unless it is already taken and returns the user.
func ensureUser(ctx context.Context, a *app.App, email, username string) (*model.User, error) {
	u, err := a.Users.Register(ctx, service.RegisterInput{Email: email, Username: username, Password: demoPassword})
	var conflict *appErrors.ErrConflict
	if errors.As(err, &conflict) {
		return a.Users.UserRepo.GetByEmail(ctx, email)
	}
	return u, err
}
