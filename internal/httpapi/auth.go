package httpapi

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"belanjaku/backend/internal/cache"
	"belanjaku/backend/internal/domain"
	"belanjaku/backend/internal/sms"
	"belanjaku/backend/internal/store"
)

const (
	otpCodeKeyPrefix  = "otp:code:"
	otpCountKeyPrefix = "otp:count:"
	otpRequestLimit   = 3
	otpCountWindow    = 10 * time.Minute
)

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	otpTTL   time.Duration
	repo     store.Repository
	codes    cache.Store
	sender   sms.Sender
}

type shopClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, otpTTL time.Duration, repo store.Repository, codes cache.Store, sender sms.Sender) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	if otpTTL <= 0 {
		otpTTL = 5 * time.Minute
	}
	// Noop would discard codes and break verification, so the default is a
	// real in-process store.
	if codes == nil {
		codes = cache.NewMemoryStore()
	}
	if sender == nil {
		sender = sms.LogSender{}
	}

	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		otpTTL:   otpTTL,
		repo:     repo,
		codes:    codes,
		sender:   sender,
	}
}

// Login authenticates staff accounts (admin, worker) by username and password.
// Customers authenticate through the OTP flow.
func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	user, err := a.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, errors.New("invalid credentials")
		}
		return domain.LoginResponse{}, err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !user.Active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	return a.issueToken(user.ID, user.Role)
}

// RequestOTP generates a one-time code for the phone number and hands it to
// the SMS sender. At most otpRequestLimit codes per phone per window.
func (a *AuthManager) RequestOTP(ctx context.Context, req domain.OTPRequest) error {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}

	count, err := a.codes.Incr(ctx, otpCountKeyPrefix+phone, otpCountWindow)
	if err != nil {
		return err
	}
	if count > otpRequestLimit {
		return fmt.Errorf("%w: too many codes requested", store.ErrConflict)
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	if err := a.codes.Set(ctx, otpCodeKeyPrefix+phone, []byte(code), a.otpTTL); err != nil {
		return err
	}

	return a.sender.Send(ctx, phone, "Kode masuk Belanjaku: "+code)
}

// VerifyOTP exchanges a valid code for an access token, creating the customer
// account on first login. Codes are single-use.
func (a *AuthManager) VerifyOTP(ctx context.Context, req domain.OTPVerifyRequest) (domain.LoginResponse, error) {
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return domain.LoginResponse{}, errors.New("invalid code")
	}

	stored, ok, err := a.codes.Get(ctx, otpCodeKeyPrefix+phone)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if !ok || subtle.ConstantTimeCompare(stored, []byte(code)) != 1 {
		return domain.LoginResponse{}, errors.New("invalid or expired code")
	}
	_ = a.codes.Delete(ctx, otpCodeKeyPrefix+phone)

	user, err := a.repo.GetUserByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		user, err = a.repo.CreateUser(ctx, domain.User{
			ID:        uuid.NewString(),
			Phone:     phone,
			Role:      domain.RoleCustomer,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		})
	}
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if !user.Active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	return a.issueToken(user.ID, user.Role)
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &shopClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{UserID: sub, Role: claims.Role}, nil
}

func (a *AuthManager) issueToken(userID string, role string) (domain.LoginResponse, error) {
	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	claims := shopClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "belanjaku",
		},
		Role: role,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") || len(phone) < 9 || len(phone) > 16 {
		return "", fmt.Errorf("%w: phone must be in international format", store.ErrValidation)
	}
	for _, r := range phone[1:] {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: phone must be in international format", store.ErrValidation)
		}
	}
	return phone, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
