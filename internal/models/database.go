package models

import (
	"fmt"

	"github.com/smartvinesa/smartview/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&RefreshToken{},
		&MetricConfig{},
		&DataPoint{},
		&AppSetting{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default settings and metric configs if not exists
func SeedDefaultData() error {
	defaultSettings := []AppSetting{
		{Key: "app_name", Value: "Smartview", Type: "string", Label: "Application Name"},
		{Key: "institution_name", Value: "", Type: "string", Label: "Institution Name"},
		{Key: "app_description", Value: "Institution performance dashboard", Type: "string", Label: "Application Description"},
		{Key: "update_interval", Value: "5", Type: "number", Label: "Auto Update Interval (minutes)"},
		{Key: "slide_duration", Value: "5", Type: "number", Label: "Slide Duration (seconds)"},
		{Key: "notification_email", Value: "", Type: "string", Label: "Notification Email"},
		{Key: "auto_update_enabled", Value: "true", Type: "boolean", Label: "Enable Auto Update"},
		{Key: "email_notifications_enabled", Value: "true", Type: "boolean", Label: "Enable Email Notifications"},
		{Key: "auto_slide_enabled", Value: "true", Type: "boolean", Label: "Enable Auto Slide"},
		{Key: "smtp_host", Value: "", Type: "string", Label: "SMTP Host"},
		{Key: "smtp_port", Value: "587", Type: "number", Label: "SMTP Port"},
		{Key: "smtp_username", Value: "", Type: "string", Label: "SMTP Username"},
		{Key: "smtp_password", Value: "", Type: "string", Label: "SMTP Password"},
		{Key: "smtp_from", Value: "", Type: "string", Label: "SMTP From Address"},
		{Key: "smtp_use_tls", Value: "false", Type: "boolean", Label: "SMTP Use TLS"},
		{Key: "ldap_enabled", Value: "false", Type: "boolean", Label: "Enable LDAP Authentication"},
		{Key: "ldap_host", Value: "", Type: "string", Label: "LDAP Server Host"},
		{Key: "ldap_port", Value: "389", Type: "number", Label: "LDAP Server Port"},
		{Key: "ldap_base_dn", Value: "", Type: "string", Label: "LDAP Base DN"},
		{Key: "ldap_bind_dn", Value: "", Type: "string", Label: "LDAP Bind DN"},
		{Key: "ldap_bind_password", Value: "", Type: "string", Label: "LDAP Bind Password"},
		{Key: "ldap_user_filter", Value: "(uid=%s)", Type: "string", Label: "LDAP User Filter"},
		{Key: "ldap_use_ssl", Value: "false", Type: "boolean", Label: "LDAP Use SSL/TLS"},
		{Key: "log_retention_days", Value: "30", Type: "number", Label: "System Log Retention Days"},
	}

	for _, s := range defaultSettings {
		var count int64
		DB.Model(&AppSetting{}).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: s.Key}).Count(&count)
		if count == 0 {
			if err := DB.Create(&s).Error; err != nil {
				return err
			}
		}
	}

	// Seed an initial metric set so a fresh install renders both pages
	var metricCount int64
	DB.Model(&MetricConfig{}).Count(&metricCount)
	if metricCount == 0 {
		defaults := []MetricConfig{
			{Name: "Case Tracking", Description: "Case tracking information system compliance", MaxValue: 12, Unit: "%", Icon: "scale", PageNumber: 1, DisplayOrder: 1, IsRealtime: true},
			{Name: "Mediation", Description: "Mediation success rate", MaxValue: 8, Unit: "%", Icon: "handshake", PageNumber: 1, DisplayOrder: 2, IsRealtime: true},
			{Name: "E-Court", Description: "Electronic court system implementation", MaxValue: 12, Unit: "%", Icon: "monitor", PageNumber: 1, DisplayOrder: 3, IsRealtime: true},
			{Name: "Case Finance", Description: "Case finance validation score", MaxValue: 4, Unit: "%", Icon: "coins", PageNumber: 1, DisplayOrder: 4, IsRealtime: true},
			{Name: "Service Desk", Description: "One-stop service availability", MaxValue: 2, Unit: "%", Icon: "building", PageNumber: 2, DisplayOrder: 1, IsRealtime: true},
			{Name: "Website", Description: "Public website completeness score", MaxValue: 3, Unit: "%", Icon: "globe", PageNumber: 2, DisplayOrder: 2, IsRealtime: true},
		}
		for _, m := range defaults {
			m.IsActive = true
			if err := DB.Create(&m).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
