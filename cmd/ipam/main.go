package main

import (
	"log"
	"os"

	v1 "go_ipam/api/v1"
	"go_ipam/internal/cache"
	"go_ipam/internal/config"
	"go_ipam/internal/db"
	"go_ipam/internal/ipam"
	"go_ipam/internal/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	// 4. Run database migrations if requested
	if cfg.Migrate {
		if err := db.Migrate(db.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	// 5. Build the IPAM engine
	svc := ipam.NewService(db.DB, ipam.Options{
		DefaultCIDR:               cfg.IPAM.DefaultCIDR,
		DNS1:                      cfg.IPAM.DNS1,
		DNS2:                      cfg.IPAM.DNS2,
		KeepDeallocatedIPsForDays: cfg.IPAM.KeepDeallocatedIPsForDays,
		IPv6Generator:             cfg.IPAM.IPv6Generator,
	}, nil)

	// 6. Start the deallocation sweeper
	if cfg.Sweeper.Enabled {
		worker := sweeper.NewWorker(&sweeper.Config{
			Purger:      svc,
			Redis:       cache.Client,
			Logger:      logrus.NewEntry(logrus.StandardLogger()),
			IntervalSec: cfg.Sweeper.IntervalSec,
			LockTTLSec:  cfg.Sweeper.LockTTLSec,
		})
		worker.Start()
		defer worker.Stop()
	}

	// 7. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Setup API v1 routes
	v1.SetupRouter(r, svc)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}
