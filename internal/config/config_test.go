package config

import (
	"testing"
	"time"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("BOOTSTRAP_ADMIN_PASSWORD", "")

	cfg := Load()
	if cfg.SessionSecret != "" {
		t.Fatalf("expected empty SESSION_SECRET when unset, got %q", cfg.SessionSecret)
	}
	if cfg.BootstrapAdminPassword != "" {
		t.Fatalf("expected empty BOOTSTRAP_ADMIN_PASSWORD when unset, got %q", cfg.BootstrapAdminPassword)
	}
}

func TestLoadStockPolicy(t *testing.T) {
	t.Setenv("SALE_STOCK_POLICY", "REJECT")
	if got := Load().SaleStockPolicy; got != StockPolicyReject {
		t.Fatalf("expected reject policy, got %q", got)
	}

	t.Setenv("SALE_STOCK_POLICY", "whatever")
	if got := Load().SaleStockPolicy; got != StockPolicyAllowNegative {
		t.Fatalf("expected unknown policy to fall back to allow-negative, got %q", got)
	}
}

func TestLoadSessionTTLFallback(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "-5")
	cfg := Load()
	if cfg.SessionTTL() != 480*time.Minute {
		t.Fatalf("expected default ttl, got %s", cfg.SessionTTL())
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := Config{Timezone: "Nowhere/Imaginary"}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC fallback")
	}
}
