package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/configurator-backend/config"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/ikkim/configurator-backend/internal/db"
	"github.com/ikkim/configurator-backend/internal/spreadsheet"
	"github.com/ikkim/configurator-backend/internal/storage"
)

func main() {
	catalogPath := flag.String("catalog", "", "xlsx workbook with Products and Layers sheets to import")
	assumeYes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if *catalogPath == "" {
		seedSample()
		return
	}

	importCatalog(cfg, *catalogPath, *assumeYes)
}

func seedSample() {
	product, err := db.SeedSampleProduct(db.GetDB())
	if errors.Is(err, db.ErrSampleExists) {
		fmt.Println("Sample product already present, nothing to do.")
		return
	}
	if err != nil {
		log.Fatal("Failed to seed sample product:", err)
	}
	fmt.Printf("Seeded %q (id %d) with %d layers.\n", product.Name, product.ID, len(product.Layers))
	fmt.Printf("Upload its base image and layer masks through the admin API before requesting previews.\n")
}

func importCatalog(cfg *config.Config, path string, assumeYes bool) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open workbook:", err)
	}
	defer f.Close()

	fmt.Printf("Reading workbook: %s\n", path)
	entries, err := spreadsheet.ReadCatalog(f)
	if err != nil {
		log.Fatal("Failed to read workbook:", err)
	}

	layers := 0
	for _, e := range entries {
		layers += len(e.Layers)
	}
	fmt.Printf("Products to import: %d (%d layers)\n", len(entries), layers)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	assets, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal("Failed to prepare asset storage:", err)
	}

	catalog := service.NewCatalogService(
		repository.NewProductRepository(db.GetDB()),
		repository.NewLayerRepository(db.GetDB()),
		assets,
		cfg.RFQ.DefaultMinQuantity,
	)

	imported, failed := 0, 0
	for _, e := range entries {
		product, err := catalog.CreateProduct(e.Product)
		if err != nil {
			fmt.Printf("  skip %q: %v\n", e.Product.Name, err)
			failed++
			continue
		}
		if len(e.Layers) > 0 {
			if _, err := catalog.ReplaceLayers(product.ID, e.Layers); err != nil {
				// the product stays, without layers, so staff can fix it in the admin API
				fmt.Printf("  %q created (id %d) but its layers were rejected: %v\n", product.Name, product.ID, err)
				failed++
				continue
			}
		}
		fmt.Printf("  imported %q (id %d, %d layers)\n", product.Name, product.ID, len(e.Layers))
		imported++
	}

	fmt.Println("Import completed.")
	fmt.Printf("Imported: %d, failed: %d\n", imported, failed)
}
