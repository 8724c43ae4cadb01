package services

import (
	"errors"
	"strconv"

	"github.com/smartvinesa/smartview/internal/models"
	"github.com/smartvinesa/smartview/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keyEquals matches the settings key column. "key" is a reserved word
// in MySQL, so the predicate goes through the dialect's own identifier
// quoting instead of a hardcoded backtick.
func keyEquals(key string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

// SettingsService manages the typed key/value settings stored in the
// app_settings table. Values are persisted as strings; Resolve coerces
// them per the row's declared type.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

func (s *SettingsService) Get(key string) (string, error) {
	var setting models.AppSetting
	if err := s.db.Where(keyEquals(key)).First(&setting).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingsService) GetWithDefault(key, defaultValue string) string {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value
}

func (s *SettingsService) GetInt(key string, defaultValue int) int {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func (s *SettingsService) GetBool(key string, defaultValue bool) bool {
	value, err := s.Get(key)
	if err != nil {
		return defaultValue
	}
	return value == "true"
}

// List returns all settings ordered by key.
func (s *SettingsService) List() ([]models.AppSetting, error) {
	var settings []models.AppSetting
	if err := s.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// Resolve coerces a setting's stored string value according to its type
// tag. number becomes float64, boolean becomes bool, everything else
// stays a string. A number that fails to parse falls back to the raw
// string so a corrupted row never breaks the whole settings map.
func Resolve(setting *models.AppSetting) interface{} {
	switch setting.Type {
	case "number":
		n, err := strconv.ParseFloat(setting.Value, 64)
		if err != nil {
			return setting.Value
		}
		return n
	case "boolean":
		return setting.Value == "true"
	default:
		return setting.Value
	}
}

// ResolveAll returns every setting coerced to its typed value, keyed by
// setting key. This is the shape the public display consumes.
func (s *SettingsService) ResolveAll() (map[string]interface{}, error) {
	settings, err := s.List()
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]interface{}, len(settings))
	for i := range settings {
		resolved[settings[i].Key] = Resolve(&settings[i])
	}
	return resolved, nil
}

// Update changes the value of an existing setting. Unknown keys are
// rejected: the settings registry is seeded at startup and the API never
// creates new keys.
func (s *SettingsService) Update(key, value string) (*models.AppSetting, error) {
	var setting models.AppSetting
	if err := s.db.Where(keyEquals(key)).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("setting not found: " + key)
		}
		return nil, err
	}

	if err := validateSettingValue(&setting, value); err != nil {
		return nil, err
	}

	if err := s.db.Model(&setting).Update("value", value).Error; err != nil {
		return nil, err
	}
	setting.Value = value
	return &setting, nil
}

// UpdateMany applies a batch of key/value changes atomically. Either all
// values pass validation and get written, or nothing changes.
func (s *SettingsService) UpdateMany(values map[string]string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			var setting models.AppSetting
			if err := tx.Where(keyEquals(key)).First(&setting).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return response.NewNotFound("setting not found: " + key)
				}
				return err
			}
			if err := validateSettingValue(&setting, value); err != nil {
				return err
			}
			if err := tx.Model(&setting).Update("value", value).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// StringifySettingValue converts a typed JSON value to the string form
// settings are stored in. Clients send booleans and numbers as JSON
// values; the server owns the stringification.
func StringifySettingValue(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", response.NewBadRequest("setting values must be strings, numbers, or booleans")
	}
}

func validateSettingValue(setting *models.AppSetting, value string) error {
	switch setting.Type {
	case "number":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return response.NewBadRequest("setting " + setting.Key + " requires a numeric value")
		}
	case "boolean":
		if value != "true" && value != "false" {
			return response.NewBadRequest("setting " + setting.Key + " requires true or false")
		}
	}
	return nil
}

// DisplaySettings are the settings the dashboard display loop cares
// about, with bounds already applied.
type DisplaySettings struct {
	AppName         string `json:"app_name"`
	InstitutionName string `json:"institution_name"`
	AppDescription  string `json:"app_description"`
	UpdateInterval  int    `json:"update_interval"` // minutes
	SlideDuration   int    `json:"slide_duration"`  // seconds
	AutoUpdate      bool   `json:"auto_update_enabled"`
	AutoSlide       bool   `json:"auto_slide_enabled"`
}

// GetDisplaySettings reads the display-related settings and clamps the
// timing values to sane minimums so a zero or negative interval can
// never produce a busy loop.
func (s *SettingsService) GetDisplaySettings() *DisplaySettings {
	ds := &DisplaySettings{
		AppName:         s.GetWithDefault("app_name", "Smartview"),
		InstitutionName: s.GetWithDefault("institution_name", ""),
		AppDescription:  s.GetWithDefault("app_description", ""),
		UpdateInterval:  s.GetInt("update_interval", 5),
		SlideDuration:   s.GetInt("slide_duration", 5),
		AutoUpdate:      s.GetBool("auto_update_enabled", true),
		AutoSlide:       s.GetBool("auto_slide_enabled", true),
	}
	if ds.UpdateInterval < 1 {
		ds.UpdateInterval = 1
	}
	if ds.SlideDuration < 1 {
		ds.SlideDuration = 1
	}
	return ds
}
