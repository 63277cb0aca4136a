package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode"

	"github.com/it25102753/Oil-Shope-POS-system/internal/config"
	"github.com/it25102753/Oil-Shope-POS-system/internal/httpapi"
	"github.com/it25102753/Oil-Shope-POS-system/internal/report"
	"github.com/it25102753/Oil-Shope-POS-system/internal/service"
	"github.com/it25102753/Oil-Shope-POS-system/internal/session"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store/memory"
	pgstore "github.com/it25102753/Oil-Shope-POS-system/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				log.Fatalf("schema migration failed: %v", err)
			}
			log.Println("schema: migrated")
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		redisSessions := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisSessions.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), keeping sessions in memory", err)
		} else {
			sessions = redisSessions
			closers = append(closers, redisSessions.Close)
			log.Println("sessions: redis")
		}
	} else {
		log.Println("sessions: memory")
	}

	loc := cfg.Location()
	svc := service.New(repo, service.Options{
		Location:          loc,
		EnforceStockFloor: cfg.SaleStockPolicy == config.StockPolicyReject,
	})
	log.Printf("sale stock policy: %s", cfg.SaleStockPolicy)

	if cfg.BootstrapAdminUser != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.BootstrapAdminUser, cfg.BootstrapAdminPassword)
		if err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		if created {
			log.Printf("bootstrap admin %q created", cfg.BootstrapAdminUser)
		}
	}

	auth := httpapi.NewAuthManager(cfg.SessionSecret, cfg.SessionTTL(), repo, sessions)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		CookieSecure:  cfg.CookieSecure,
		Location:      loc,
		Invoices:      report.NewInvoiceRenderer(cfg.ShopName, cfg.CurrencySymbol, loc),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be set and at least 32 characters")
	}
	if cfg.BootstrapAdminUser != "" {
		if err := validatePasswordStrength(cfg.BootstrapAdminPassword); err != nil {
			return fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD is too weak: %w", err)
		}
	}
	return nil
}

// validatePasswordStrength rejects short passwords, well-known defaults,
// single repeated characters and passwords without both letters and digits.
func validatePasswordStrength(password string) error {
	if len(password) < 10 {
		return fmt.Errorf("at least 10 characters required")
	}
	known := map[string]bool{
		"admin12345": true, "password123": true, "1234567890": true,
		"qwertyuiop": true, "administrator": true, "changeme123": true,
	}
	if known[strings.ToLower(password)] {
		return fmt.Errorf("common password not allowed")
	}

	allSame := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("repeated-character password not allowed")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("letters and digits required")
	}

	return nil
}
