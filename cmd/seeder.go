package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/chitfund-portal/internal/access"
	accessPostgres "github.com/frahmantamala/chitfund-portal/internal/access/postgres"
	"github.com/frahmantamala/chitfund-portal/internal/database"
	"github.com/frahmantamala/chitfund-portal/pkg/logger"
)

func intPtr(v int) *int { return &v }

// demoRequests cover every branch of the decision rules.
var demoRequests = []access.SubmitAccessRequestDTO{
	{RequestType: "company", ContactPerson: "Lakshmi Chits", Email: "ops@lakshmichits.example", Phone: "+919800000001", Purpose: "Run monthly schemes", CompanyName: "Lakshmi Chits Pvt Ltd", BusinessType: "chit fund"},
	{RequestType: "foreman", ContactPerson: "Ravi Kumar", Email: "ravi@example.com", Phone: "+919800000002", Purpose: "Conduct auctions", Experience: "6 years", MCQScore: intPtr(85)},
	{RequestType: "foreman", ContactPerson: "Suresh Rao", Email: "suresh@example.com", Phone: "+919800000003", Purpose: "Conduct auctions", Experience: "1 year", MCQScore: intPtr(79)},
	{RequestType: "user", ContactPerson: "Meena Iyer", Email: "meena@example.com", Phone: "+919800000004", Purpose: "Join a group", MCQScore: intPtr(70)},
	{RequestType: "user", ContactPerson: "Arjun Das", Email: "arjun@example.com", Phone: "+919800000005", Purpose: "Join a group"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample access requests",
	Long:  `Submit demo access requests through the decision rules into the configured database.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		if db == nil {
			log.Fatal("seed needs a sqlite or postgres database; the memory store does not outlive this command")
		}
		defer db.Close()

		service := access.NewService(accessPostgres.NewAccessRequestRepository(db.Gorm), nil, logger.LoggerWrapper())
		for _, dto := range demoRequests {
			decision, err := service.Submit(ctx, dto)
			if err != nil {
				log.Fatalf("failed to seed %s request for %s: %v", dto.RequestType, dto.Email, err)
			}
			fmt.Printf("Seeded %-8s %-28s approved=%-5t id=%s\n", dto.RequestType, dto.Email, decision.Approved, decision.RequestID)
		}
	},
}
