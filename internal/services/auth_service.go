package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
	"roomfit/internal/validate"
)

var (
	ErrBadCreds      = errors.New("invalid email or password")
	ErrBadEmail      = errors.New("please enter a valid email address")
	ErrWeakPassword  = fmt.Errorf("password must be at least %d characters", validate.MinPassword)
	ErrEmailTaken    = errors.New("an account with this email already exists")
	ErrInvalidToken  = errors.New("invalid or expired session")
	ErrResetLinkUsed = errors.New("reset link is invalid or has already been used")
)

const AccessTTL = time.Hour

// Session-change events delivered to Subscribe callbacks.
const (
	EventSignedIn         = "SIGNED_IN"
	EventSignedOut        = "SIGNED_OUT"
	EventPasswordRecovery = "PASSWORD_RECOVERY"
	EventUserUpdated      = "USER_UPDATED"
	EventTokenRefreshed   = "TOKEN_REFRESHED"
)

type AuthEvent struct {
	Type      string
	UserID    string
	SessionID string
}

type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *domain.User `json:"user"`
}

type AuthService struct {
	Users    gateway.Users
	Mailer   Mailer
	secret   []byte
	resetURL string

	mu     sync.Mutex
	subs   map[int]func(AuthEvent)
	nextID int
}

func NewAuthService(users gateway.Users, secret, resetURL string, m Mailer) *AuthService {
	if m == nil {
		m = LogMailer{}
	}
	return &AuthService{
		Users:    users,
		Mailer:   m,
		secret:   []byte(secret),
		resetURL: resetURL,
		subs:     map[int]func(AuthEvent){},
	}
}

// Subscribe registers fn for session changes and returns its unsubscribe func.
func (s *AuthService) Subscribe(fn func(AuthEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *AuthService) emit(ev AuthEvent) {
	s.mu.Lock()
	fns := make([]func(AuthEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email, ok := validate.Email(email)
	if !ok {
		return nil, ErrBadEmail
	}
	if !validate.Password(password) {
		return nil, ErrWeakPassword
	}
	email = strings.ToLower(email)

	if _, err := s.Users.UserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gateway.ErrNotFound) {
		return nil, err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{ID: uuid.NewString(), Email: email, Hash: string(h)}
	if err := s.Users.CreateUser(ctx, u, strings.TrimSpace(fullName)); err != nil {
		return nil, err
	}
	return s.open(ctx, &u)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, gateway.ErrNotConfigured) {
		return nil, err
	}
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return s.open(ctx, u)
}

func (s *AuthService) open(ctx context.Context, u *domain.User) (*Session, error) {
	sid := uuid.NewString()
	if err := s.Users.CreateSession(ctx, sid, u.ID, false); err != nil {
		return nil, err
	}
	sess, err := s.session(u, sid)
	if err != nil {
		return nil, err
	}
	s.emit(AuthEvent{Type: EventSignedIn, UserID: u.ID, SessionID: sid})
	return sess, nil
}

func (s *AuthService) session(u *domain.User, sid string) (*Session, error) {
	tok, exp, err := s.mint(u.ID, sid)
	if err != nil {
		return nil, err
	}
	return &Session{AccessToken: tok, RefreshToken: sid, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) mint(userID, sid string) (string, time.Time, error) {
	exp := time.Now().Add(AccessTTL)
	claims := jwt.MapClaims{
		"user_id": userID,
		"sid":     sid,
		"exp":     exp.Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return tok, exp, err
}

func (s *AuthService) parse(tokenString string, opts ...jwt.ParserOption) (userID, sid string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	userID, _ = claims["user_id"].(string)
	sid, _ = claims["sid"].(string)
	if userID == "" || sid == "" {
		return "", "", ErrInvalidToken
	}
	return userID, sid, nil
}

// GetSession resolves an access token to its user while the session row lives.
func (s *AuthService) GetSession(ctx context.Context, accessToken string) (*domain.User, string, error) {
	userID, sid, err := s.parse(accessToken)
	if err != nil {
		return nil, "", err
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, gateway.ErrNotConfigured) {
		return nil, "", err
	}
	if err != nil || u.ID != userID {
		return nil, "", ErrInvalidToken
	}
	return u, sid, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	u, err := s.Users.SessionUser(ctx, refreshToken)
	if errors.Is(err, gateway.ErrNotConfigured) {
		return nil, err
	}
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := s.session(u, refreshToken)
	if err != nil {
		return nil, err
	}
	s.emit(AuthEvent{Type: EventTokenRefreshed, UserID: u.ID, SessionID: refreshToken})
	return sess, nil
}

// SignOut accepts an expired but well-signed token so stale clients can still log out.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	userID, sid, err := s.parse(accessToken, jwt.WithoutClaimsValidation())
	if err != nil {
		return err
	}
	if err := s.Users.DeleteSession(ctx, sid); err != nil {
		return err
	}
	s.emit(AuthEvent{Type: EventSignedOut, UserID: userID, SessionID: sid})
	return nil
}

// RequestPasswordReset mails a one-shot recovery link. Unknown addresses
// succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email, ok := validate.Email(email)
	if !ok {
		return ErrBadEmail
	}
	u, err := s.Users.UserByEmail(ctx, email)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	sid := uuid.NewString()
	if err := s.Users.CreateSession(ctx, sid, u.ID, true); err != nil {
		return err
	}
	tok, _, err := s.mint(u.ID, sid)
	if err != nil {
		return err
	}
	link, err := s.resetLink(tok, sid)
	if err != nil {
		return err
	}
	return s.Mailer.SendResetLink(ctx, u.Email, link)
}

func (s *AuthService) resetLink(access, refresh string) (string, error) {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return "", fmt.Errorf("reset redirect url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", access)
	q.Set("refresh_token", refresh)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConsumeResetLink turns a recovery token pair into a live session. Each
// link works once.
func (s *AuthService) ConsumeResetLink(ctx context.Context, access, refresh string) (*Session, error) {
	userID, sid, err := s.parse(access)
	if err != nil {
		return nil, ErrResetLinkUsed
	}
	if sid != refresh {
		return nil, ErrResetLinkUsed
	}
	ok, err := s.Users.ConsumeRecoverySession(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrResetLinkUsed
	}
	u, err := s.Users.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(u, sid)
	if err != nil {
		return nil, err
	}
	s.emit(AuthEvent{Type: EventPasswordRecovery, UserID: u.ID, SessionID: sid})
	return sess, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID, password string) error {
	if !validate.Password(password) {
		return ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.Users.SetPasswordHash(ctx, userID, string(h)); err != nil {
		return err
	}
	s.emit(AuthEvent{Type: EventUserUpdated, UserID: userID})
	return nil
}
