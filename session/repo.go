package session

import (
	"context"

	"github.com/yomnaalset/elibrary-go-client/transport"
	"github.com/yomnaalset/elibrary-go-client/users"
)

// Transport is the backend boundary the manager depends on. Implementations
// fold every failure, including timeouts, into the Result value and never
// return a Go error across this interface. transport.Client is the
// production implementation; transportfakes holds the test fake.
type Transport interface {
	Login(ctx context.Context, email, password string) transport.Result
	Register(ctx context.Context, reg transport.Registration) transport.Result
	Refresh(ctx context.Context, refreshToken string) transport.Result
	GetProfile(ctx context.Context, accessToken string) transport.Result
	UpdateProfile(ctx context.Context, accessToken string, profile users.Profile) transport.Result
	Logout(ctx context.Context, refreshToken string) transport.Result
	ForgotPassword(ctx context.Context, email string) transport.Result
}
