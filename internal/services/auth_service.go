package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"kirana/internal/models"
	"kirana/internal/store"
	"kirana/pkg/events"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned when registration passwords differ.
	ErrPasswordMismatch = errors.New("passwords don't match")
	// ErrInvalidCredentials is returned when login matches no stored user.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginRequired is returned by operations that need a session.
	ErrLoginRequired = errors.New("login required")
)

// AuthService handles registration, login, and the persisted session. The
// session holds at most one user; it is set on successful login or
// registration and cleared on logout.
type AuthService struct {
	store      store.Store
	publisher  events.Publisher
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid

	mu      sync.RWMutex
	users   []models.User
	current *models.User
}

// NewAuthService loads the persisted user list and session.
func NewAuthService(st store.Store, publisher events.Publisher, jwtSecret string) (*AuthService, error) {
	s := &AuthService{
		store:      st,
		publisher:  publisher,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour, // Token valid for 24 hours
	}
	if err := st.Load(store.KeyUsers, &s.users); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := st.Load(store.KeyCurrentUser, &s.current); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return s, nil
}

// Register appends a new user and logs them in. A password/confirmation
// mismatch fails with ErrPasswordMismatch and stores nothing. Duplicate
// emails are permitted: registration never checks for an existing user, and
// login will match the first stored record that verifies. An empty display
// name defaults to "Guest".
func (s *AuthService) Register(email, password, confirm, name string) (*models.User, string, error) {
	if password != confirm {
		return nil, "", ErrPasswordMismatch
	}
	if name == "" {
		name = "Guest"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Password: string(hashed),
		Name:     name,
	}
	s.users = append(s.users, user)
	if err := s.store.Save(store.KeyUsers, s.users); err != nil {
		return nil, "", fmt.Errorf("failed to save users: %w", err)
	}
	if err := s.setSession(user); err != nil {
		return nil, "", err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", err
	}
	events.Emit(s.publisher, "user.registered", map[string]interface{}{
		"email": user.Email,
		"name":  user.Name,
	})

	user.Password = ""
	return &user, token, nil
}

// Login scans the stored users for the first record whose email matches and
// whose password verifies. A match becomes the session; no match returns
// ErrInvalidCredentials and leaves the session unchanged.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(s.users[i].Password), []byte(password)) != nil {
			continue
		}

		user := s.users[i]
		if err := s.setSession(user); err != nil {
			return nil, "", err
		}
		token, err := s.generateToken(user)
		if err != nil {
			return nil, "", err
		}
		events.Emit(s.publisher, "user.logged_in", map[string]interface{}{
			"email": user.Email,
			"name":  user.Name,
		})

		user.Password = ""
		return &user, token, nil
	}
	return nil, "", ErrInvalidCredentials
}

// Logout clears the persisted session.
func (s *AuthService) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.store.Delete(store.KeyCurrentUser); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	events.Emit(s.publisher, "user.logged_out", nil)
	return nil
}

// Current returns the logged-in user, or nil for an anonymous session.
func (s *AuthService) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}
	user := *s.current
	user.Password = ""
	return &user
}

// ValidateToken parses and validates a JWT token, returning the claims if
// valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// setSession persists user as the current session. Caller holds s.mu.
func (s *AuthService) setSession(user models.User) error {
	s.current = &user
	if err := s.store.Save(store.KeyCurrentUser, user); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *AuthService) generateToken(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"exp":     time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":     time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}
