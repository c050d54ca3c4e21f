package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeTemp  = "temp"
	TokenTypeFinal = "final"
)

// JWTService emite y valida tokens JWT.
type JWTService struct {
	secret      []byte
	issuer      string
	tempTTL     time.Duration
	verifiedTTL time.Duration
	loginTTL    time.Duration
	now         func() time.Time
}

// TokenTTLs agrupa las duraciones de cada tipo de token.
type TokenTTLs struct {
	Temp     time.Duration
	Verified time.Duration
	Login    time.Duration
}

type Claims struct {
	UserID      string `json:"uid"`
	Email       string `json:"email"`
	TokenType   string `json:"typ"`
	Requires2FA bool   `json:"requires_2fa,omitempty"`
	Temp        bool   `json:"temp,omitempty"`
	Verified    bool   `json:"verified,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret, issuer string, ttls TokenTTLs) *JWTService {
	if ttls.Temp <= 0 {
		ttls.Temp = 15 * time.Minute
	}
	if ttls.Verified <= 0 {
		ttls.Verified = 24 * time.Hour
	}
	if ttls.Login <= 0 {
		ttls.Login = time.Hour
	}
	if issuer == "" {
		issuer = "nutritrack"
	}
	return &JWTService{
		secret:      []byte(secret),
		issuer:      issuer,
		tempTTL:     ttls.Temp,
		verifiedTTL: ttls.Verified,
		loginTTL:    ttls.Login,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// IssueToken firma claims con el ttl dado. Completa iss, sub, iat, exp y jti.
func (s *JWTService) IssueToken(claims Claims, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrJWTInvalid
	}
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken valida firma, expiracion, issuer y sujeto. No mira el tipo.
func (s *JWTService) VerifyToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrJWTInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

// IssueTemporary emite el token que solo autoriza verificar o reenviar el codigo.
func (s *JWTService) IssueTemporary(userID, email string) (string, error) {
	return s.IssueToken(Claims{
		UserID:      userID,
		Email:       email,
		TokenType:   TokenTypeTemp,
		Requires2FA: true,
		Temp:        true,
	}, s.tempTTL)
}

// IssueVerified emite el token final tras verificar el email.
func (s *JWTService) IssueVerified(userID, email string) (string, error) {
	return s.IssueToken(Claims{
		UserID:    userID,
		Email:     email,
		TokenType: TokenTypeFinal,
		Verified:  true,
	}, s.verifiedTTL)
}

// IssueLogin emite el token final de una sesion iniciada con password.
func (s *JWTService) IssueLogin(userID, email string) (string, error) {
	return s.IssueToken(Claims{
		UserID:    userID,
		Email:     email,
		TokenType: TokenTypeFinal,
	}, s.loginTTL)
}

func (s *JWTService) ParseTemporary(tokenString string) (Claims, error) {
	return s.parseTyped(tokenString, TokenTypeTemp)
}

func (s *JWTService) ParseFinal(tokenString string) (Claims, error) {
	return s.parseTyped(tokenString, TokenTypeFinal)
}

func (s *JWTService) parseTyped(tokenString, tokenType string) (Claims, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenType {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) parseToken(tokenString string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrJWTExpired
		}
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

func (s *JWTService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
