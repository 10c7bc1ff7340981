package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpiry        = 7 * 24 * time.Hour // 7 days
	jwtSecretKey     = "jwt_secret"
	minPasswordLen   = 4
	minNameLen       = 2
	maxNameLen       = 16
	loginRateWindow  = 60 * time.Second
	maxLoginAttempts = 10
)

var errTooManyAttempts = errors.New("too many login attempts, try again later")

// Auth handles optional pilot accounts
type Auth struct {
	store      RunStore
	jwtSecret  []byte
	bcryptCost int

	// Rate limiting for login attempts (IP -> attempts)
	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// pilotClaims is the token payload
type pilotClaims struct {
	PilotID int64  `json:"pid"`
	Name    string `json:"usr"`
	jwt.RegisteredClaims
}

// NewAuth creates an Auth backed by store. The signing secret is persisted in settings
// so tokens survive restarts.
func NewAuth(store RunStore) *Auth {
	return &Auth{
		store:      store,
		jwtSecret:  loadOrCreateSecret(store),
		bcryptCost: 12,
		rateMap:    make(map[string]*rateEntry),
	}
}

func loadOrCreateSecret(store RunStore) []byte {
	if h, err := store.GetSetting(jwtSecretKey); err == nil {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	} else if !errors.Is(err, ErrNotFound) {
		log.Printf("auth: read secret: %v", err)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if err := store.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
		log.Printf("warning: could not persist JWT secret: %v", err)
	}
	return secret
}

// Register creates an account and returns its id and a token
func (a *Auth) Register(name, password string) (int64, string, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLen || len(name) > maxNameLen {
		return 0, "", fmt.Errorf("name must be %d-%d characters", minNameLen, maxNameLen)
	}
	if len(password) < minPasswordLen {
		return 0, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.bcryptCost)
	if err != nil {
		return 0, "", fmt.Errorf("hash password: %w", err)
	}
	id, err := a.store.CreatePilot(name, string(hash))
	if err != nil {
		return 0, "", err
	}
	token, err := a.generateToken(id, name)
	if err != nil {
		return 0, "", err
	}
	return id, token, nil
}

// Login checks a password and returns the pilot id and a fresh token
func (a *Auth) Login(name, password, ip string) (int64, string, error) {
	if !a.checkRate(ip) {
		return 0, "", errTooManyAttempts
	}
	p, err := a.store.PilotByName(strings.TrimSpace(name))
	if errors.Is(err, ErrNotFound) {
		return 0, "", ErrBadCredentials
	}
	if err != nil {
		return 0, "", err
	}
	if p.PassHash == "" || bcrypt.CompareHashAndPassword([]byte(p.PassHash), []byte(password)) != nil {
		return 0, "", ErrBadCredentials
	}
	token, err := a.generateToken(p.ID, p.Name)
	if err != nil {
		return 0, "", err
	}
	return p.ID, token, nil
}

// ValidateToken returns the pilot id and name carried by a token
func (a *Auth) ValidateToken(tokenStr string) (int64, string, error) {
	claims := &pilotClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", fmt.Errorf("validate token: %w", err)
	}
	if claims.PilotID == 0 || claims.Name == "" {
		return 0, "", fmt.Errorf("validate token: missing pilot claims")
	}
	return claims.PilotID, claims.Name, nil
}

func (a *Auth) generateToken(pilotID int64, name string) (string, error) {
	now := time.Now()
	claims := pilotClaims{
		PilotID: pilotID,
		Name:    name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(loginRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxLoginAttempts
}

// GuestName creates a name like "Guest_a3f2c1"
func GuestName() string {
	return "Guest_" + GenerateID(3)
}
