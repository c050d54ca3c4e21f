package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type authFixture struct {
	svc      *AuthService
	repo     *memRepo
	store    *MemoryVerificationStore
	notifier *mockNotifier
	jwt      *JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newMemRepo()
	store, _ := newTestStore()
	notifier := newMockNotifier()
	jwtSvc := newTestJWT()
	svc := NewAuthService(zap.NewNop(), repo, store, jwtSvc, notifier, nil, nil)
	svc.now = func() time.Time { return testNow }
	return &authFixture{svc: svc, repo: repo, store: store, notifier: notifier, jwt: jwtSvc}
}

func anaInput() RegisterInput {
	return RegisterInput{
		Name:          "Ana",
		LastName:      "Lopez",
		Email:         "Ana@Example.com",
		Password:      "s3cret",
		Weight:        60,
		Height:        165,
		Gender:        "female",
		Birthdate:     "1990-01-01",
		ActivityLevel: "moderado",
		Objective:     "perder_peso",
	}
}

func TestAuthServiceRegister_AnaScenario(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.Register(context.Background(), anaInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Email != "ana@example.com" || res.TempToken == "" {
		t.Fatalf("unexpected result: %+v", res)
	}

	claims, err := f.jwt.ParseTemporary(res.TempToken)
	if err != nil {
		t.Fatalf("temp token should parse: %v", err)
	}
	if claims.Email != "ana@example.com" || !claims.Requires2FA {
		t.Fatalf("unexpected temp claims: %+v", claims)
	}

	target, err := f.repo.Latest(context.Background(), claims.UserID)
	if err != nil {
		t.Fatalf("expected initial target: %v", err)
	}
	if target.ProteinGrams != 121 || target.FatGrams != 45 || target.CarbsGrams != 181 {
		t.Fatalf("unexpected macros: %+v", target)
	}
	if target.Date.String() != "2025-06-01" {
		t.Fatalf("unexpected target date %s", target.Date)
	}

	account, _ := f.repo.GetByEmail(context.Background(), "ana@example.com")
	if account.PasswordHash == "" || account.PasswordHash == "s3cret" {
		t.Fatalf("password must be stored hashed")
	}
	if account.Username != "ana@example.com" {
		t.Fatalf("username should equal email, got %q", account.Username)
	}
	if f.notifier.lastCode("ana@example.com") == "" {
		t.Fatalf("expected a verification code to be dispatched")
	}
}

func TestAuthServiceRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)
	in := anaInput()
	in.Name = " "
	in.Weight = 0
	in.Birthdate = "01/01/1990"
	in.Email = "not-an-email"

	_, err := f.svc.Register(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]bool{"name": true, "weight": true, "birthdate": true, "email": true}
	if len(verr.Fields) != len(want) {
		t.Fatalf("unexpected fields: %v", verr.Fields)
	}
	for _, field := range verr.Fields {
		if !want[field] {
			t.Fatalf("unexpected field %q", field)
		}
	}
	if f.notifier.calls != 0 {
		t.Fatalf("no code should be sent for invalid input")
	}
}

func TestAuthServiceRegister_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Register(context.Background(), anaInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := f.svc.Register(context.Background(), anaInput()); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAuthServiceRegister_PersistenceFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.createErr = errors.New("db down")

	if _, err := f.svc.Register(context.Background(), anaInput()); err == nil {
		t.Fatalf("expected error")
	}
	if f.store.pending() != 0 || f.notifier.calls != 0 {
		t.Fatalf("no code should be issued when persistence fails")
	}
}

func TestAuthServiceRegister_DeliveryFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture(t)
	f.notifier.fail = errors.New("smtp down")

	res, err := f.svc.Register(context.Background(), anaInput())
	if err != nil {
		t.Fatalf("delivery failure must not fail registration: %v", err)
	}
	if !res.Notification.Failed() {
		t.Fatalf("expected failed notification result, got %+v", res.Notification)
	}
}

func TestAuthServiceVerify_Success(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")

	res, err := f.svc.Verify(context.Background(), "ana@example.com", code, reg.TempToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.User.Name != "Ana" || res.User.VerifiedAt == nil {
		t.Fatalf("unexpected user: %+v", res.User)
	}
	claims, err := f.jwt.ParseFinal(res.Token)
	if err != nil {
		t.Fatalf("final token should parse: %v", err)
	}
	if claims.UserID != res.User.ID || !claims.Verified {
		t.Fatalf("unexpected final claims: %+v", claims)
	}
	if len(f.repo.verified) != 1 {
		t.Fatalf("expected account to be marked verified")
	}
}

func TestAuthServiceVerify_IncorrectCode(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")

	_, err := f.svc.Verify(context.Background(), "ana@example.com", wrongCode(code), reg.TempToken)
	var verr *VerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
	if verr.Reason != ReasonIncorrect || verr.RemainingAttempts != 4 {
		t.Fatalf("unexpected verification error: %+v", verr)
	}
}

func TestAuthServiceVerify_ExpiredTempToken(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")

	f.jwt.now = func() time.Time { return time.Now().UTC().Add(16 * time.Minute) }
	_, err := f.svc.Verify(context.Background(), "ana@example.com", code, reg.TempToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if f.store.pending() != 1 {
		t.Fatalf("code must not be consumed when the token is rejected")
	}
}

func TestAuthServiceVerify_TokenForOtherEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")
	other, _ := f.jwt.IssueTemporary("p2", "eve@example.com")

	if _, err := f.svc.Verify(context.Background(), "ana@example.com", code, other); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthServiceVerify_FinalTokenRejected(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")
	final, _ := f.jwt.IssueLogin("p1", "ana@example.com")

	if _, err := f.svc.Verify(context.Background(), "ana@example.com", code, final); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for a final token, got %v", err)
	}
}

func TestAuthServiceVerify_ConcurrentSingleSuccess(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	code := f.notifier.lastCode("ana@example.com")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Verify(context.Background(), "ana@example.com", code, reg.TempToken)
			mu.Lock()
			defer mu.Unlock()
			var verr *VerificationError
			switch {
			case err == nil:
				successes++
			case errors.As(err, &verr) && verr.Reason == ReasonNotFound:
				notFound++
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || notFound != 1 {
		t.Fatalf("expected one success and one not_found, got %d and %d", successes, notFound)
	}
}

func TestAuthServiceResend_ResetsCode(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	first := f.notifier.lastCode("ana@example.com")
	for i := 0; i < 5; i++ {
		f.svc.Verify(context.Background(), "ana@example.com", wrongCode(first), reg.TempToken)
	}

	emailAddr, err := f.svc.Resend(context.Background(), "ana@example.com", reg.TempToken)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if emailAddr != "ana@example.com" {
		t.Fatalf("unexpected email %q", emailAddr)
	}

	code := f.notifier.lastCode("ana@example.com")
	if _, err := f.svc.Verify(context.Background(), "ana@example.com", code, reg.TempToken); err != nil {
		t.Fatalf("verify after resend: %v", err)
	}
}

func TestAuthServiceResend_SilentOnDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	reg, _ := f.svc.Register(context.Background(), anaInput())
	f.notifier.fail = errors.New("smtp down")

	if _, err := f.svc.Resend(context.Background(), "ana@example.com", reg.TempToken); err != nil {
		t.Fatalf("resend must not surface delivery failures: %v", err)
	}
}

func TestAuthServiceResend_RateLimited(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.limiter = NewOTPRateLimiter(time.Minute, 1)
	reg, _ := f.svc.Register(context.Background(), anaInput())

	if _, err := f.svc.Resend(context.Background(), "ana@example.com", reg.TempToken); err != nil {
		t.Fatalf("first resend: %v", err)
	}
	if _, err := f.svc.Resend(context.Background(), "ana@example.com", reg.TempToken); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAuthServiceResend_InvalidToken(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Resend(context.Background(), "ana@example.com", "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthServiceLogin(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Register(context.Background(), anaInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := f.svc.Login(context.Background(), " ANA@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.jwt.ParseFinal(res.Token)
	if err != nil {
		t.Fatalf("login token should be final: %v", err)
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) != time.Hour {
		t.Fatalf("expected 1h token")
	}
	if res.User.Email != "ana@example.com" || res.User.ID != claims.UserID {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	if _, err := f.svc.Login(context.Background(), "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "nobody@example.com", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	var verr *ValidationError
	if _, err := f.svc.Login(context.Background(), "", ""); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
