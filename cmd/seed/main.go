package main

import (
	"context"
	"log"
	"os"

	"ai-casebrief-be/internal/entity"
	"ai-casebrief-be/internal/repository/unitofwork"
	"ai-casebrief-be/pkg/database"

	"github.com/joho/godotenv"
)

var defaultTags = []entity.Tag{
	{Name: "wedding", Description: "Weddings and receptions"},
	{Name: "corporate", Description: "Corporate meetings, offsites and conferences"},
	{Name: "gala", Description: "Formal dinners and fundraising galas"},
	{Name: "product-launch", Description: "Product launches and press events"},
	{Name: "outdoor", Description: "Open air venues, weather dependent"},
	{Name: "vip", Description: "High profile client or guests"},
	{Name: "catering", Description: "Food and beverage service required"},
	{Name: "av-heavy", Description: "Stage, sound, lighting or streaming requirements"},
	{Name: "rush", Description: "Event date is less than four weeks away"},
	{Name: "repeat-client", Description: "Client has booked before"},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	uow := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx)

	log.Println("Seeding tag catalog...")
	for i := range defaultTags {
		t := defaultTags[i]
		if err := uow.TagRepository().Upsert(ctx, &t); err != nil {
			log.Printf("Error upserting tag '%s': %v", t.Name, err)
			continue
		}
		log.Printf("Upserted tag: %s", t.Name)
	}

	log.Println("Tag seeding completed!")
}
