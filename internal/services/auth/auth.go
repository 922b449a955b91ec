// Package auth provides the demonstration accounts used while the API is
// unreachable. It is segregated from real authentication: the session store
// consults it only after a connectivity failure.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/findosh/moneymanager/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionExpired     = errors.New("session expired")
)

// DemoTokenTTL is how long an offline demo token stays valid
const DemoTokenTTL = 24 * time.Hour

type demoAccount struct {
	email    string
	password string
	name     string
	phone    string
	role     models.Role
}

var demoAccounts = []demoAccount{
	{email: "user@demo.com", password: "password123", name: "Demo User", phone: "+1234567890", role: models.RoleUser},
	{email: "admin@demo.com", password: "admin123", name: "Admin User", phone: "+1234567891", role: models.RoleAdmin},
}

type entry struct {
	profile      models.Profile
	passwordHash []byte
}

// DemoDirectory authenticates the fixed demonstration accounts and issues
// locally signed tokens for them
type DemoDirectory struct {
	secret  []byte
	entries map[string]entry
	now     func() time.Time
}

// NewDemoDirectory creates the directory. secret signs the issued tokens.
func NewDemoDirectory(secret string) (*DemoDirectory, error) {
	if secret == "" {
		return nil, errors.New("demo secret is required")
	}

	d := &DemoDirectory{
		secret:  []byte(secret),
		entries: make(map[string]entry, len(demoAccounts)),
		now:     time.Now,
	}
	for _, a := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		d.entries[a.email] = entry{
			profile: models.Profile{
				// Stable across runs so cached data keyed by user survives restarts
				ID:     uuid.NewSHA1(uuid.NameSpaceURL, []byte("demo:"+a.email)).String(),
				Name:   a.name,
				Email:  a.email,
				Role:   a.role,
				Phone:  a.phone,
				Status: models.StatusActive,
			},
			passwordHash: hash,
		}
	}
	return d, nil
}

// Knows reports whether email is a demonstration account
func (d *DemoDirectory) Knows(email string) bool {
	_, ok := d.entries[normalize(email)]
	return ok
}

// Accounts lists the demonstration profiles
func (d *DemoDirectory) Accounts() []models.Profile {
	out := make([]models.Profile, 0, len(demoAccounts))
	for _, a := range demoAccounts {
		out = append(out, d.entries[a.email].profile)
	}
	return out
}

// Authenticate verifies a demo password and returns a demo session
func (d *DemoDirectory) Authenticate(email, password string) (models.Session, error) {
	e, ok := d.entries[normalize(email)]
	if !ok {
		return models.Session{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(e.passwordHash, []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}

	token, err := d.createToken(e.profile)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to create token: %w", err)
	}
	return models.Session{Token: token, Profile: e.profile}, nil
}

// ValidateToken verifies a demo token and returns its profile
func (d *DemoDirectory) ValidateToken(tokenString string) (models.Profile, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return d.secret, nil
	}, jwt.WithTimeFunc(d.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return models.Profile{}, ErrSessionExpired
	}
	if err != nil {
		return models.Profile{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Profile{}, ErrInvalidToken
	}
	if demo, _ := claims["demo"].(bool); !demo {
		return models.Profile{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	e, ok := d.entries[email]
	if !ok {
		return models.Profile{}, ErrInvalidToken
	}
	return e.profile, nil
}

func (d *DemoDirectory) createToken(p models.Profile) (string, error) {
	now := d.now()
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"name":  p.Name,
		"role":  string(p.Role),
		"exp":   now.Add(DemoTokenTTL).Unix(),
		"iat":   now.Unix(),
		"jti":   uuid.NewString(),
		"demo":  true,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(d.secret)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
