// Package mocks provides test doubles for the yelp client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	yelp "github.com/sells-group/lead-cli/pkg/yelp"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, req
func (_m *MockClient) Search(ctx context.Context, req yelp.SearchRequest) (*yelp.SearchResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *yelp.SearchResponse
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*yelp.SearchResponse)
	}
	return r0, ret.Error(1)
}

// Business provides a mock function with given fields: ctx, id
func (_m *MockClient) Business(ctx context.Context, id string) (*yelp.Business, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Business")
	}

	var r0 *yelp.Business
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*yelp.Business)
	}
	return r0, ret.Error(1)
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
