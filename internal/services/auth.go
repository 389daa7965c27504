package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"internet-banking/internal/models"
	"internet-banking/internal/repository"
	"internet-banking/internal/utils"
	"internet-banking/internal/worker"
)

type AuthConfig struct {
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	IFSCCode   string
}

type AuthService struct {
	store      repository.Store
	audit      *AuditService
	cfg        AuthConfig
	workerPool *worker.WorkerPool
	now        func() time.Time
}

func NewAuthService(store repository.Store, audit *AuditService, cfg AuthConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	utils.LogSuccess("AuthService", "auth service initialized (TTL: %v)", cfg.JWTExpiry)
	return &AuthService{store: store, audit: audit, cfg: cfg, now: time.Now}
}

// SetWorkerPool moves login auditing off the request path.
func (s *AuthService) SetWorkerPool(pool *worker.WorkerPool) {
	s.workerPool = pool
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		utils.LogError("AuthService", "failed to hash password", err)
		return "", err
	}
	return string(hashed), nil
}

func (s *AuthService) CheckPasswordHash(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type Claims struct {
	AccountID string      `json:"userId"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) GenerateToken(account *models.Account) (string, error) {
	now := s.now()
	claims := &Claims{
		AccountID: account.ID,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		utils.LogError("AuthService", "failed to sign token", err)
		return "", err
	}

	utils.LogDebug("AuthService", "token issued for %s", account.ID)
	return signed, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		utils.LogWarning("AuthService", "invalid token: %v", err)
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == "" {
		utils.LogWarning("AuthService", "token failed validation")
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// createAccount opens a zero-balance account with a fresh account number.
func (s *AuthService) createAccount(ctx context.Context, tx repository.Tx, name, email, passwordHash string, role models.Role) (*models.Account, error) {
	if _, err := tx.Accounts().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	number, err := repository.GenerateAccountNumber(ctx, tx.Accounts())
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Email:         email,
		PasswordHash:  passwordHash,
		AccountNumber: number,
		IFSCCode:      s.cfg.IFSCCode,
		Balance:       decimal.Zero,
		Role:          role,
	}
	if err := tx.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest, ip string) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	utils.LogInfo("AuthService", "registering %s", email)

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		created, err := s.createAccount(ctx, tx, req.Name, email, hash, models.RoleUser)
		if err != nil {
			return err
		}
		if _, err := s.audit.Record(ctx, tx.Audit(), created.ID, ip, models.AuditUserRegistered, map[string]any{
			"email":         created.Email,
			"accountNumber": created.AccountNumber,
		}); err != nil {
			return err
		}
		account = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			utils.LogWarning("AuthService", "email %s already registered", email)
		} else {
			utils.LogError("AuthService", "registration failed", err)
		}
		return nil, err
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}

	utils.LogSuccess("AuthService", "account %s registered", account.AccountNumber)
	return &models.AuthResponse{Message: "Registration successful", User: account, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, ip string) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	utils.LogInfo("AuthService", "login attempt for %s", email)

	account, err := s.store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			utils.LogWarning("AuthService", "unknown email %s", email)
			return nil, ErrInvalidCredentials
		}
		utils.LogError("AuthService", "failed to load account", err)
		return nil, err
	}

	if err := s.CheckPasswordHash(req.Password, account.PasswordHash); err != nil {
		utils.LogWarning("AuthService", "wrong password for %s", email)
		return nil, ErrInvalidCredentials
	}
	if account.IsFrozen {
		utils.LogWarning("AuthService", "frozen account %s tried to log in", email)
		return nil, ErrAccountFrozen
	}

	token, err := s.GenerateToken(account)
	if err != nil {
		return nil, err
	}

	s.recordLogin(account, ip)

	utils.LogSuccess("AuthService", "%s logged in", email)
	return &models.AuthResponse{Message: "Login successful", User: account, Token: token}, nil
}

// recordLogin writes the login audit entry. A failure here never fails the
// login itself.
func (s *AuthService) recordLogin(account *models.Account, ip string) {
	write := func(ctx context.Context) error {
		_, err := s.audit.Record(ctx, s.store.Audit(), account.ID, ip, models.AuditUserLogin, map[string]any{
			"email": account.Email,
		})
		return err
	}

	if s.workerPool != nil {
		err := s.workerPool.Submit(worker.Job{
			ID:   fmt.Sprintf("audit-login-%s", account.ID),
			Task: write,
			OnDone: func(err error) {
				if err != nil {
					utils.LogError("AuthService", "login audit failed", err)
				}
			},
		})
		if err == nil {
			return
		}
	}

	if err := write(context.Background()); err != nil {
		utils.LogError("AuthService", "login audit failed", err)
	}
}

// Authenticate resolves a bearer token to the live account it names.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.Account, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			utils.LogWarning("AuthService", "token for missing account %s", claims.AccountID)
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if account.IsFrozen {
		return nil, ErrAccountFrozen
	}
	return account, nil
}

// EnsureAdmin creates the bootstrap administrator unless an account with that
// email already exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	email = normalizeEmail(email)

	existing, err := s.store.Accounts().GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			utils.LogWarning("AuthService", "bootstrap admin email %s belongs to a regular account", email)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var admin *models.Account
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		admin, err = s.createAccount(ctx, tx, name, email, hash, models.RoleAdmin)
		return err
	})
	if err != nil {
		utils.LogError("AuthService", "failed to create admin account", err)
		return nil, err
	}

	utils.LogSuccess("AuthService", "admin account %s created", email)
	return admin, nil
}
