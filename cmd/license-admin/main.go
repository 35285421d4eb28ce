package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"smart-stock-trader/config"
	"smart-stock-trader/internal/database"
	"smart-stock-trader/internal/license"
)

func main() {
	fmt.Println("========================================")
	fmt.Println(" License Administration Tool")
	fmt.Println("========================================")

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.NewDBFromURL(cfg.Database.URL)
	} else {
		db, err = database.NewDB(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		})
	}
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	service := license.NewService(repo)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nOptions:")
		fmt.Println("  1. Issue a license")
		fmt.Println("  2. List licenses")
		fmt.Println("  3. Revoke a license")
		fmt.Println("  4. Check key format")
		fmt.Println("  5. Show plan catalog")
		fmt.Println("  6. Exit")
		fmt.Print("\nSelect option: ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			issueLicense(reader, repo, service)
		case "2":
			listLicenses(repo)
		case "3":
			revokeLicense(reader, repo, service)
		case "4":
			checkKeyFormat(reader)
		case "5":
			showPlans()
		case "6":
			fmt.Println("Goodbye!")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}
	}
}

func selectLicenseType(reader *bufio.Reader) (database.LicenseType, bool) {
	fmt.Println("License types:")
	fmt.Println("  1. Trial      (1 account, 7 days)")
	fmt.Println("  2. Basic      (1 account, 1 year)")
	fmt.Println("  3. Pro        (3 accounts, 1 year)")
	fmt.Println("  4. Enterprise (10 accounts, 1 year)")
	fmt.Print("Select type (1-4): ")

	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(input) {
	case "1":
		return database.LicenseTypeTrial, true
	case "2":
		return database.LicenseTypeBasic, true
	case "3":
		return database.LicenseTypePro, true
	case "4":
		return database.LicenseTypeEnterprise, true
	default:
		fmt.Println("Invalid type")
		return "", false
	}
}

func issueLicense(reader *bufio.Reader, repo *database.Repository, service *license.Service) {
	fmt.Println("\n--- Issue License ---")

	licenseType, ok := selectLicenseType(reader)
	if !ok {
		return
	}

	fmt.Print("Bind to user email (blank for unclaimed): ")
	emailInput, _ := reader.ReadString('\n')
	emailInput = strings.TrimSpace(emailInput)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var userID *string
	if emailInput != "" {
		user, err := repo.GetUserByEmail(ctx, emailInput)
		if err != nil {
			fmt.Printf("Lookup failed: %v\n", err)
			return
		}
		if user == nil {
			fmt.Printf("No user with email %s\n", emailInput)
			return
		}
		userID = &user.ID
	}

	lic, err := service.Issue(ctx, licenseType, userID, nil)
	if err != nil {
		fmt.Printf("Issue failed: %v\n", err)
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  License Type: %s\n", lic.LicenseType)
	fmt.Printf("  License Key:  %s\n", lic.LicenseKey)
	fmt.Printf("  Max Accounts: %d\n", lic.MaxAccounts)
	if lic.ExpiresAt != nil {
		fmt.Printf("  Expires:      %s\n", lic.ExpiresAt.Format("2006-01-02"))
	}
	fmt.Println("========================================")
}

func listLicenses(repo *database.Repository) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	licenses, total, err := repo.ListLicenses(ctx, "", "", 50, 0)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}

	fmt.Printf("\n%d licenses (showing up to 50):\n", total)
	fmt.Println("========================================")
	for _, lic := range licenses {
		expires := "never"
		if lic.ExpiresAt != nil {
			expires = lic.ExpiresAt.Format("2006-01-02")
		}
		owner := "unclaimed"
		if lic.UserID != nil {
			owner = *lic.UserID
		}
		fmt.Printf("  %s  %-10s %-8s expires %s  owner %s\n",
			lic.LicenseKey, lic.LicenseType, lic.Status, expires, owner)
	}
	fmt.Println("========================================")
}

func revokeLicense(reader *bufio.Reader, repo *database.Repository, service *license.Service) {
	fmt.Println("\n--- Revoke License ---")
	fmt.Print("Enter license key: ")

	key, _ := reader.ReadString('\n')
	key = license.NormalizeKey(key)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lic, err := repo.GetLicenseByKey(ctx, key)
	if err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}
	if lic == nil {
		fmt.Println("License not found")
		return
	}

	fmt.Printf("Revoke %s (%s, status %s)? (y/n): ", lic.LicenseKey, lic.LicenseType, lic.Status)
	confirm, _ := reader.ReadString('\n')
	if strings.TrimSpace(strings.ToLower(confirm)) != "y" {
		fmt.Println("Aborted")
		return
	}

	if err := service.Revoke(ctx, lic.ID); err != nil {
		fmt.Printf("Revoke failed: %v\n", err)
		return
	}
	fmt.Println("License revoked")
}

func checkKeyFormat(reader *bufio.Reader) {
	fmt.Println("\n--- Check Key Format ---")
	fmt.Print("Enter license key: ")

	key, _ := reader.ReadString('\n')
	key = license.NormalizeKey(key)

	fmt.Println("\n========================================")
	if license.ValidFormat(key) {
		fmt.Printf("  Key:    %s\n", key)
		fmt.Println("  Format: VALID")
	} else {
		fmt.Printf("  Key:    %s\n", key)
		fmt.Println("  Format: INVALID")
		fmt.Println("  Expected PREFIX-XXXX-XXXX-XXXX-XXXX with prefix TRL, BSC, PRO, ENT or LIC")
	}
	fmt.Println("========================================")
}

func showPlans() {
	fmt.Println("\n========================================")
	fmt.Println(" Plan Catalog")
	fmt.Println("========================================")

	for _, t := range []database.LicenseType{
		database.LicenseTypeTrial,
		database.LicenseTypeBasic,
		database.LicenseTypePro,
		database.LicenseTypeEnterprise,
	} {
		plan, ok := license.PlanFor(t)
		if !ok {
			continue
		}
		price := "free"
		if plan.PriceCents > 0 {
			price = fmt.Sprintf("$%.2f", float64(plan.PriceCents)/100)
		}
		fmt.Printf("\n%s (%s)\n", strings.ToUpper(plan.Name), price)
		fmt.Printf("  Max accounts: %d\n", plan.MaxAccounts)
		fmt.Printf("  Duration:     %d days\n", plan.DurationDays)
	}
	fmt.Println()
}
