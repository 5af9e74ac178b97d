package auth_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/auth"
	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/store/memory"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()

	svc, err := auth.NewService("test-secret", time.Hour, "advisor", memory.New(), nil)
	if err != nil {
		t.Fatalf("unexpected error creating auth service: %v", err)
	}
	return svc
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	registerResult, err := svc.Register(ctx, auth.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if registerResult.Token == "" {
		t.Fatalf("expected token on registration")
	}
	if registerResult.User.Username != "alice" {
		t.Fatalf("expected username alice, got %s", registerResult.User.Username)
	}
	if registerResult.User.PasswordHash != "" {
		t.Fatalf("expected sanitized user")
	}

	claims, err := svc.VerifyToken(ctx, registerResult.Token)
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if claims.Subject != registerResult.User.ID {
		t.Fatalf("expected token subject %s, got %s", registerResult.User.ID, claims.Subject)
	}
	if claims.Email != "alice@example.com" || claims.ID == "" {
		t.Fatalf("expected email and jti claims, got %+v", claims)
	}

	if _, err := svc.Register(ctx, auth.RegisterInput{
		Username: "ALICE",
		Email:    "other@example.com",
		Password: "another!",
	}); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}
	if _, err := svc.Register(ctx, auth.RegisterInput{
		Username: "bob",
		Email:    "Alice@Example.com",
		Password: "another!",
	}); !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	loginResult, err := svc.Login(ctx, auth.LoginInput{Identifier: "alice@example.com", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}
	if loginResult.User.ID != registerResult.User.ID {
		t.Fatalf("expected login by email to find alice")
	}

	if _, err := svc.Login(ctx, auth.LoginInput{Identifier: "alice", Password: "wrong"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials error, got %v", err)
	}
	if _, err := svc.Login(ctx, auth.LoginInput{Identifier: "nobody", Password: "s3cret!"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input auth.RegisterInput
		want  error
	}{
		{"missing username", auth.RegisterInput{Password: "s3cret!"}, auth.ErrUsernameRequired},
		{"short password", auth.RegisterInput{Username: "carol", Password: "123"}, auth.ErrPasswordTooWeak},
		{"bad email", auth.RegisterInput{Username: "carol", Email: "not-an-email", Password: "s3cret!"}, auth.ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, auth.RegisterInput{Username: "dave", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if err := svc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("logout returned error: %v", err)
	}
	if _, err := svc.VerifyToken(ctx, result.Token); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("expected revoked token, got %v", err)
	}
}

func TestVerifyExternalToken(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	sign := func(aud string, secret string) string {
		claims := auth.Claims{
			Email: "supa@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "5f0c7c1e-0000-4000-8000-000000000001",
				Audience:  jwt.ClaimStrings{aud},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}

	claims, err := svc.VerifyToken(ctx, sign(auth.Audience, "test-secret"))
	if err != nil {
		t.Fatalf("expected supabase-style token to verify: %v", err)
	}
	if claims.Email != "supa@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.VerifyToken(ctx, sign("anon", "test-secret")); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected wrong audience to fail, got %v", err)
	}
	if _, err := svc.VerifyToken(ctx, sign(auth.Audience, "other-secret")); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected wrong secret to fail, got %v", err)
	}
	if _, err := svc.VerifyToken(ctx, "garbage"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected malformed token to fail, got %v", err)
	}
}

func TestResetPasswordAndProfile(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	erin, err := svc.Register(ctx, auth.RegisterInput{Username: "erin", Email: "erin@example.com", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if _, err := svc.Register(ctx, auth.RegisterInput{Username: "frank", Email: "frank@example.com", Password: "s3cret!"}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if err := svc.ResetPassword(ctx, auth.ResetPasswordInput{UserID: erin.User.ID, CurrentPassword: "wrong!", NewPassword: "n3wpass"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if err := svc.ResetPassword(ctx, auth.ResetPasswordInput{UserID: erin.User.ID, CurrentPassword: "s3cret!", NewPassword: "n3wpass"}); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Login(ctx, auth.LoginInput{Identifier: "erin", Password: "n3wpass"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	fullName := "Erin Example"
	updated, err := svc.UpdateProfile(ctx, erin.User.ID, auth.ProfileInput{FullName: &fullName})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != fullName || updated.Email != "erin@example.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	taken := "frank@example.com"
	if _, err := svc.UpdateProfile(ctx, erin.User.ID, auth.ProfileInput{Email: &taken}); !errors.Is(err, auth.ErrEmailExists) {
		t.Fatalf("expected email conflict, got %v", err)
	}

	if _, err := svc.Me(ctx, "missing"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestMemoryRevocations(t *testing.T) {
	revocations := auth.NewMemoryRevocations(time.Hour)
	ctx := context.Background()

	if err := revocations.Revoke(ctx, "expired", 0); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "expired"); revoked {
		t.Fatalf("already-expired token should not be stored")
	}

	if err := revocations.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("expected jti-1 revoked")
	}

	if err := revocations.Revoke(ctx, "short-lived", 20*time.Millisecond); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if revoked, _ := revocations.IsRevoked(ctx, "short-lived"); revoked {
		t.Fatalf("revocation should end with the token's remaining lifetime")
	}
}

func TestLogoutSurvivesManyLaterLogouts(t *testing.T) {
	revocations := auth.NewMemoryRevocations(time.Hour)
	svc, err := auth.NewService("test-secret", time.Hour, "advisor", memory.New(), revocations)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Register(ctx, auth.RegisterInput{Username: "gina", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Logout(ctx, first.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}

	for i := 0; i < 10000; i++ {
		if err := revocations.Revoke(ctx, fmt.Sprintf("jti-%d", i), time.Hour); err != nil {
			t.Fatalf("revoke: %v", err)
		}
	}

	if _, err := svc.VerifyToken(ctx, first.Token); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("expected first token to stay revoked, got %v", err)
	}
	if revoked, _ := revocations.IsRevoked(ctx, "jti-0"); !revoked {
		t.Fatalf("oldest bulk revocation was forgotten")
	}
}
