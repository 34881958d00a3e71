package app

import (
	"context"
	"errors"
	"testing"

	"vietbuild/pkg/domain"
	"vietbuild/services/portal/internal/authclient"
)

func validForm() RegisterInput {
	return RegisterInput{
		FullName:        "Nguyen Van A",
		Phone:           "0901234567",
		Username:        "nguyena",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Plan:            domain.PlanPro,
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		field  string
		msg    string
	}{
		{"full name", func(in *RegisterInput) { in.FullName = "  " }, "fullName", "Vui lòng nhập họ tên"},
		{"empty phone", func(in *RegisterInput) { in.Phone = "" }, "phone", "Vui lòng nhập số điện thoại hợp lệ"},
		{"short phone", func(in *RegisterInput) { in.Phone = "090123" }, "phone", "Vui lòng nhập số điện thoại hợp lệ"},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }, "username", "Tên đăng nhập phải có ít nhất 3 ký tự"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "12345", "12345" }, "password", "Mật khẩu phải có ít nhất 6 ký tự"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "secret2" }, "confirmPassword", "Mật khẩu xác nhận không khớp"},
		{"first problem wins", func(in *RegisterInput) { in.FullName = ""; in.Username = "a" }, "fullName", "Vui lòng nhập họ tên"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			a := newTestApp(t, func(cfg *Config) {
				cfg.Registrar = &fakeAuth{registerFn: func(context.Context, string, string, string) (domain.Identity, error) {
					called = true
					return domain.Identity{}, nil
				}}
			})
			in := validForm()
			tt.mutate(&in)
			_, err := a.Register(context.Background(), in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field || verr.Message != tt.msg {
				t.Fatalf("got %s %q, want %s %q", verr.Field, verr.Message, tt.field, tt.msg)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("validation errors should match ErrInvalidInput")
			}
			if called {
				t.Fatalf("validation failure must not reach the auth service")
			}
		})
	}
}

func TestRegisterLogsIn(t *testing.T) {
	a := newTestApp(t, nil)
	sess, err := a.Register(context.Background(), validForm())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if sess.Role != domain.RoleUser || sess.Plan != domain.PlanPro || sess.Phone != "0901234567" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if current, ok := a.Session(); !ok || current != sess {
		t.Fatalf("registration should leave the new session active")
	}
}

func TestRegisterRemoteFailures(t *testing.T) {
	tests := []struct {
		name       string
		registerFn func(context.Context, string, string, string) (domain.Identity, error)
		loginFails bool
		want       string
	}{
		{
			name: "service rejection shown verbatim",
			registerFn: func(context.Context, string, string, string) (domain.Identity, error) {
				return domain.Identity{}, &authclient.APIError{Status: 400, Message: "Số điện thoại đã được đăng ký"}
			},
			want: "Số điện thoại đã được đăng ký",
		},
		{
			name: "transport failure",
			registerFn: func(context.Context, string, string, string) (domain.Identity, error) {
				return domain.Identity{}, errors.New("dial tcp: connection refused")
			},
			want: "Đăng ký thất bại. Vui lòng thử lại.",
		},
		{
			name: "auto login fails",
			registerFn: func(_ context.Context, username, phone, _ string) (domain.Identity, error) {
				return domain.Identity{Username: username, Phone: phone}, nil
			},
			loginFails: true,
			want:       "Đăng ký thành công nhưng không thể đăng nhập. Vui lòng thử đăng nhập lại.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, func(cfg *Config) {
				cfg.Registrar = &fakeAuth{registerFn: tt.registerFn}
			})
			if tt.loginFails {
				a.sessions = newRejectingSessions(t)
			}
			_, err := a.Register(context.Background(), validForm())
			var rerr *RegistrationError
			if !errors.As(err, &rerr) || rerr.Message != tt.want {
				t.Fatalf("got %v, want %q", err, tt.want)
			}
			if !errors.Is(err, ErrRegistration) {
				t.Fatalf("registration errors should match ErrRegistration")
			}
		})
	}
}

func TestLoginLandingPath(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	sess, err := a.Login(ctx, "admin", "admin", domain.PlanNormal)
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if sess.Plan != domain.PlanPro || LandingPath(sess) != "/admin" {
		t.Fatalf("unexpected admin session %+v", sess)
	}
	sess, err = a.Login(ctx, "0901234567", "secret1", "")
	if err != nil {
		t.Fatalf("user login: %v", err)
	}
	if sess.Plan != domain.PlanNormal || LandingPath(sess) != "/dashboard" {
		t.Fatalf("unexpected user session %+v", sess)
	}

	a.sessions = newRejectingSessions(t)
	if _, err := a.Login(ctx, "0901234567", "bad", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
