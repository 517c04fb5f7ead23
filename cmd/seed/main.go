package main // Seeds the package catalog; safe to run repeatedly.

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/ulesfyw/fyw-pay/internal/config"
	"github.com/ulesfyw/fyw-pay/internal/database"
	"github.com/ulesfyw/fyw-pay/internal/model"
	"github.com/ulesfyw/fyw-pay/internal/repository"
)

// Prices are in kobo.
var packages = []model.Package{
	{
		Code:        "T",
		Name:        "Corporate Plus",
		PackageType: model.PackageCorporatePlus,
		PriceKobo:   3000000,
		Benefits: []string{
			"Access to two event days of your choice",
			"Corporate dinner seat",
			"Souvenir pack",
		},
	},
	{
		Code:        "C",
		Name:        "Corporate & Owambe",
		PackageType: model.PackageCorporateOwambe,
		PriceKobo:   4000000,
		Benefits: []string{
			"Access to two event days of your choice",
			"Corporate dinner seat",
			"Owambe access with refreshments",
			"Souvenir pack",
		},
	},
	{
		Code:        "F",
		Name:        "Full Experience",
		PackageType: model.PackageFull,
		PriceKobo:   6000000,
		Benefits: []string{
			"Access to all five event days",
			"Corporate dinner seat",
			"Owambe access with refreshments",
			"Premium souvenir pack",
			"Photoshoot session",
		},
	},
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	repo := repository.NewPackageRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := range packages {
		p := &packages[i]
		if err := repo.Upsert(ctx, p); err != nil {
			log.Fatalf("seed package %s: %v", p.Code, err)
		}
		log.Printf("seeded package %s (%s)", p.Code, p.Name)
	}
	log.Println("package catalog seeded")
}
