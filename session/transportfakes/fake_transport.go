package transportfakes

import (
	"context"
	"sync"

	"github.com/yomnaalset/elibrary-go-client/session"
	"github.com/yomnaalset/elibrary-go-client/transport"
	"github.com/yomnaalset/elibrary-go-client/users"
)

var _ session.Transport = (*FakeTransport)(nil)

// FakeTransport is a configurable in-memory session.Transport. Each
// operation returns its configured Result; a Func override, when set, takes
// precedence. Call counts are tracked for assertions.
type FakeTransport struct {
	lock sync.Mutex

	LoginResult          transport.Result
	RegisterResult       transport.Result
	RefreshResult        transport.Result
	GetProfileResult     transport.Result
	UpdateProfileResult  transport.Result
	LogoutResult         transport.Result
	ForgotPasswordResult transport.Result

	RefreshFunc    func(ctx context.Context, refreshToken string) transport.Result
	GetProfileFunc func(ctx context.Context, accessToken string) transport.Result

	loginCalls      int
	registerCalls   int
	refreshCalls    int
	getProfileCalls int
	logoutCalls     int
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (f *FakeTransport) Login(ctx context.Context, email, password string) transport.Result {
	f.lock.Lock()
	f.loginCalls++
	result := f.LoginResult
	f.lock.Unlock()
	return result
}

func (f *FakeTransport) Register(ctx context.Context, reg transport.Registration) transport.Result {
	f.lock.Lock()
	f.registerCalls++
	result := f.RegisterResult
	f.lock.Unlock()
	return result
}

func (f *FakeTransport) Refresh(ctx context.Context, refreshToken string) transport.Result {
	f.lock.Lock()
	f.refreshCalls++
	fn := f.RefreshFunc
	result := f.RefreshResult
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, refreshToken)
	}
	return result
}

func (f *FakeTransport) GetProfile(ctx context.Context, accessToken string) transport.Result {
	f.lock.Lock()
	f.getProfileCalls++
	fn := f.GetProfileFunc
	result := f.GetProfileResult
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, accessToken)
	}
	return result
}

func (f *FakeTransport) UpdateProfile(ctx context.Context, accessToken string, profile users.Profile) transport.Result {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.UpdateProfileResult
}

func (f *FakeTransport) Logout(ctx context.Context, refreshToken string) transport.Result {
	f.lock.Lock()
	f.logoutCalls++
	result := f.LogoutResult
	f.lock.Unlock()
	return result
}

func (f *FakeTransport) ForgotPassword(ctx context.Context, email string) transport.Result {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.ForgotPasswordResult
}

func (f *FakeTransport) LoginCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalls
}

func (f *FakeTransport) RegisterCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.registerCalls
}

func (f *FakeTransport) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}

func (f *FakeTransport) GetProfileCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.getProfileCalls
}

func (f *FakeTransport) LogoutCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.logoutCalls
}
