package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amirasaad/appointments/infra"
	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
)

func main() {
	argsLen := len(os.Args)
	if argsLen < 2 {
		fmt.Println("Usage: cli <command> [arguments]")
		fmt.Println("Commands: token <subject> [ttl], refdata, migrate")
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "token":
		if argsLen < 3 {
			fmt.Println("Usage: token <subject> [ttl]")
			return
		}
		mintToken(os.Args[2], os.Args[3:])
	case "refdata":
		printRefdata()
	case "migrate":
		migrate()
	default:
		fmt.Println("Unknown command:", cmd)
	}
}

// mintToken signs a bearer token for the given subject using the configured
// JWT secret, for calling the API from scripts and manual testing.
func mintToken(subject string, rest []string) {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		return
	}
	ttl := cfg.Auth.Jwt.Expiry
	if len(rest) > 0 {
		ttl, err = time.ParseDuration(rest[0])
		if err != nil {
			fmt.Println("Invalid ttl:", err)
			return
		}
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte(cfg.Auth.Jwt.Secret))
	if err != nil {
		fmt.Println("Failed to sign token:", err)
		return
	}
	color.Cyan("Bearer token for %s (expires %s):", subject, now.Add(ttl).Format(time.RFC3339))
	fmt.Println(signed)
}

// printRefdata lists the reference records the engine validates against.
func printRefdata() {
	ctx := context.Background()
	registry := refdata.NewRegistryWithDefaults()
	header := color.New(color.FgCyan, color.Bold)

	header.Println("Funds")
	funds, err := registry.Funds(ctx)
	if err != nil {
		fmt.Println("Failed to list funds:", err)
		return
	}
	for _, fund := range funds {
		eligibility := color.GreenString("eligible")
		if !fund.Eligible {
			eligibility = color.RedString("closed")
		}
		fmt.Printf("  %-6s %-28s %s  min %s %s  %s\n",
			fund.Code, fund.Name, fund.Currency, fund.MinAmount, fund.Currency, eligibility)
	}

	header.Println("Policies")
	policies, err := registry.Policies(ctx)
	if err != nil {
		fmt.Println("Failed to list policies:", err)
		return
	}
	for _, pol := range policies {
		fmt.Printf("  %-12s term %s to %s\n",
			pol.No,
			pol.TermStart.Format(refdata.DateLayout),
			pol.TermEnd.Format(refdata.DateLayout))
	}

	header.Println("Banks")
	banks, err := registry.Banks(ctx)
	if err != nil {
		fmt.Println("Failed to list banks:", err)
		return
	}
	for _, bank := range banks {
		fmt.Printf("  %-4s %-28s swift %s\n", bank.Code, bank.Name, bank.Swift)
	}

	header.Println("Currencies")
	currencies, err := registry.Currencies(ctx)
	if err != nil {
		fmt.Println("Failed to list currencies:", err)
		return
	}
	for _, cur := range currencies {
		fmt.Printf("  %s  %d decimals  min remit %s\n", cur.Code, cur.Decimals, cur.MinRemit)
	}
}

// migrate connects to the configured database and brings the schema up to
// date.
func migrate() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Println("Failed to load configuration:", err)
		return
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		fmt.Println("Failed to connect to database:", err)
		return
	}
	if err := infra.Migrate(db); err != nil {
		fmt.Println("Failed to migrate schema:", err)
		return
	}
	color.Green("Schema migrated")
}
