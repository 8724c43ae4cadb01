package services

import (
	"crypto/tls"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"
	"gorm.io/gorm"
)

// LDAPService authenticates admins against an LDAP directory. All
// connection parameters come from the ldap_* settings rows, so LDAP can
// be enabled and reconfigured at runtime without a restart.
type LDAPService struct {
	settings *SettingsService
}

func NewLDAPService(db *gorm.DB) *LDAPService {
	return &LDAPService{settings: NewSettingsService(db)}
}

type ldapConnSettings struct {
	Enabled      bool
	Host         string
	Port         int
	BaseDN       string
	BindDN       string
	BindPassword string
	UserFilter   string
	UseSSL       bool
}

func (s *LDAPService) connSettings() *ldapConnSettings {
	port, _ := strconv.Atoi(s.settings.GetWithDefault("ldap_port", "389"))
	if port == 0 {
		port = 389
	}
	return &ldapConnSettings{
		Enabled:      s.settings.GetBool("ldap_enabled", false),
		Host:         s.settings.GetWithDefault("ldap_host", ""),
		Port:         port,
		BaseDN:       s.settings.GetWithDefault("ldap_base_dn", ""),
		BindDN:       s.settings.GetWithDefault("ldap_bind_dn", ""),
		BindPassword: s.settings.GetWithDefault("ldap_bind_password", ""),
		UserFilter:   s.settings.GetWithDefault("ldap_user_filter", "(uid=%s)"),
		UseSSL:       s.settings.GetBool("ldap_use_ssl", false),
	}
}

func (s *LDAPService) IsEnabled() bool {
	return s.settings.GetBool("ldap_enabled", false)
}

type LDAPUser struct {
	DN       string
	Username string
	Email    string
	FullName string
}

// Authenticate verifies credentials against the directory: bind with
// the service account, search for the user, then bind as the user.
func (s *LDAPService) Authenticate(username, password string) (*LDAPUser, error) {
	cfg := s.connSettings()
	if !cfg.Enabled {
		return nil, fmt.Errorf("LDAP is not enabled")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var conn *ldap.Conn
	var err error

	if cfg.UseSSL {
		conn, err = ldap.DialTLS("tcp", addr, &tls.Config{InsecureSkipVerify: true})
	} else {
		conn, err = ldap.Dial("tcp", addr)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			return nil, fmt.Errorf("failed to bind with service account: %w", err)
		}
	}

	searchFilter := fmt.Sprintf(cfg.UserFilter, ldap.EscapeFilter(username))
	searchRequest := ldap.NewSearchRequest(
		cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		searchFilter,
		[]string{"dn", "cn", "mail", "uid", "sAMAccountName"},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("LDAP search failed: %w", err)
	}

	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("user not found in LDAP")
	}
	if len(result.Entries) > 1 {
		return nil, fmt.Errorf("multiple users found in LDAP")
	}

	userDN := result.Entries[0].DN

	if err := conn.Bind(userDN, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	entry := result.Entries[0]
	user := &LDAPUser{
		DN:       userDN,
		Username: entry.GetAttributeValue("uid"),
		Email:    entry.GetAttributeValue("mail"),
		FullName: entry.GetAttributeValue("cn"),
	}

	// Active Directory exposes the login name as sAMAccountName.
	if user.Username == "" {
		user.Username = entry.GetAttributeValue("sAMAccountName")
	}

	return user, nil
}
