package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool

	// Input workbook and its six tab names.
	WorkbookPath         string
	SheetCardTransaction string
	SheetNIBSSSettlement string
	SheetISWSettlement   string
	SheetParallexNIBSS   string
	SheetBankUnity       string
	SheetBankParallex    string

	// Channel merchant identifiers. The Parallex default keeps the ".0"
	// artifact its upstream export produces; the engine normalizes it.
	MerchantIDInterswitchUnity string
	MerchantIDNIBSSUnity       string
	MerchantIDNIBSSParallex    string

	OutputDir string

	// DaysOffset backdates the default run date: settlement feeds lag the
	// transaction log by more than two weeks.
	DaysOffset int

	// Schedule is an optional cron expression for unattended daily runs;
	// empty disables the scheduler.
	Schedule string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "recon"),
		DBPassword:  getEnv("DB_PASSWORD", "recon_secret"),
		DBName:      getEnv("DB_NAME", "recon"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",

		WorkbookPath:         getEnv("WORKBOOK_PATH", "data/reconciliation.xlsx"),
		SheetCardTransaction: getEnv("SHEET_CARD_TRANSACTION", "CardTransaction"),
		SheetNIBSSSettlement: getEnv("SHEET_NIBSS_SETTLEMENT", "NIBSS SETT FROM NIBSS"),
		SheetISWSettlement:   getEnv("SHEET_ISW_SETTLEMENT", "ISW SETT REPORT"),
		SheetParallexNIBSS:   getEnv("SHEET_PARALLEX_NIBSS", "LIBERTYPAY_Pos_Acquired_Detail_"),
		SheetBankUnity:       getEnv("SHEET_BANK_UNITY", "BANK STMT UNITY"),
		SheetBankParallex:    getEnv("SHEET_BANK_PARALLEX", "BANK STMT PARALLEX"),

		MerchantIDInterswitchUnity: getEnv("MERCHANT_ID_INTERSWITCH_UNITY", "2LBP87654321988"),
		MerchantIDNIBSSUnity:       getEnv("MERCHANT_ID_NIBSS_UNITY", "2215LA525653900"),
		MerchantIDNIBSSParallex:    getEnv("MERCHANT_ID_NIBSS_PARALLEX", "210000000000000.0"),

		OutputDir:  getEnv("OUTPUT_DIR", "outputs"),
		DaysOffset: getEnvInt("DAYS_OFFSET", 18),
		Schedule:   getEnv("RECON_SCHEDULE", ""),
	}
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
