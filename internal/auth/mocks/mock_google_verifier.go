package mocks

import (
	"booktracker/internal/auth"
	"github.com/stretchr/testify/mock"
)

type MockGoogleVerifier struct {
	mock.Mock
}

func (m *MockGoogleVerifier) Verify(idToken string) (*auth.GoogleIdentity, error) {
	args := m.Called(idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.GoogleIdentity), args.Error(1)
}
