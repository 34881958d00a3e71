package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"vietbuild/pkg/domain"
	"vietbuild/services/portal/internal/authclient"
)

const (
	msgRegisterFailed        = "Đăng ký thất bại. Vui lòng thử lại."
	msgRegisteredNotLoggedIn = "Đăng ký thành công nhưng không thể đăng nhập. Vui lòng thử đăng nhập lại."
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	FullName        string      `json:"fullName"`
	Phone           string      `json:"phone"`
	Username        string      `json:"username"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Plan            domain.Plan `json:"plan"`
}

// Validate checks the form in display order and returns the first problem.
func (in RegisterInput) Validate() error {
	switch {
	case strings.TrimSpace(in.FullName) == "":
		return &ValidationError{Field: "fullName", Message: "Vui lòng nhập họ tên"}
	case strings.TrimSpace(in.Phone) == "" || utf8.RuneCountInString(in.Phone) < 10:
		return &ValidationError{Field: "phone", Message: "Vui lòng nhập số điện thoại hợp lệ"}
	case utf8.RuneCountInString(in.Username) < 3:
		return &ValidationError{Field: "username", Message: "Tên đăng nhập phải có ít nhất 3 ký tự"}
	case utf8.RuneCountInString(in.Password) < 6:
		return &ValidationError{Field: "password", Message: "Mật khẩu phải có ít nhất 6 ký tự"}
	case in.Password != in.ConfirmPassword:
		return &ValidationError{Field: "confirmPassword", Message: "Mật khẩu xác nhận không khớp"}
	}
	return nil
}

// Register creates the account remotely and then logs in with the new phone
// and password under the chosen plan.
func (a *App) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	if err := in.Validate(); err != nil {
		return domain.Session{}, err
	}
	if a.registrar == nil {
		return domain.Session{}, &RegistrationError{Message: msgRegisterFailed, Err: errors.New("no registrar configured")}
	}
	if _, err := a.registrar.Register(ctx, in.Username, in.Phone, in.Password); err != nil {
		var apiErr *authclient.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return domain.Session{}, &RegistrationError{Message: apiErr.Message, Err: err}
		}
		slog.Error("register request failed", "username", in.Username, "err", err)
		return domain.Session{}, &RegistrationError{Message: msgRegisterFailed, Err: err}
	}
	sess, err := a.Login(ctx, in.Phone, in.Password, in.Plan)
	if err != nil {
		return domain.Session{}, &RegistrationError{Message: msgRegisteredNotLoggedIn, Err: err}
	}
	return sess, nil
}
