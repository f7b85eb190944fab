package users_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yomnaalset/elibrary-go-client/users"
)

func TestValidatePasswordStrength(t *testing.T) {
	testCases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Password123", wantErr: false},
		{name: "too short", password: "Pw1", wantErr: true},
		{name: "no uppercase", password: "password123", wantErr: true},
		{name: "no lowercase", password: "PASSWORD123", wantErr: true},
		{name: "no digit", password: "PasswordOnly", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tc.password)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRolePredicates(t *testing.T) {
	customer := users.Profile{Role: users.RoleCustomer}
	require.True(t, customer.IsCustomer())
	require.False(t, customer.IsLibraryAdmin())
	require.False(t, customer.IsDeliveryAdmin())

	admin := users.Profile{Role: users.RoleLibraryAdmin}
	require.True(t, admin.IsLibraryAdmin())

	courier := users.Profile{Role: users.RoleDeliveryAdmin}
	require.True(t, courier.IsDeliveryAdmin())
}

func TestValidRole(t *testing.T) {
	require.True(t, users.ValidRole(users.RoleCustomer))
	require.True(t, users.ValidRole(users.RoleLibraryAdmin))
	require.True(t, users.ValidRole(users.RoleDeliveryAdmin))
	require.False(t, users.ValidRole("super_admin"))
	require.False(t, users.ValidRole(""))
}

func TestFullName(t *testing.T) {
	p := users.Profile{FirstName: "John", LastName: "Doe"}
	require.Equal(t, "John Doe", p.FullName())

	onlyFirst := users.Profile{FirstName: "John"}
	require.Equal(t, "John", onlyFirst.FullName())

	empty := users.Profile{}
	require.Equal(t, "", empty.FullName())
}
