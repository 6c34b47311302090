package domain

import (
	"context"
	"errors"
)

// Directory is the record-of-truth API for customers, their group membership,
// and the qualification-date attribute. The service holds no durable local
// copy of any of this state.
type Directory interface {
	FetchCustomer(ctx context.Context, id int64) (Customer, error)
	SetCustomerGroup(ctx context.Context, customerID, groupID int64) error

	FetchQualificationAttribute(ctx context.Context, customerID int64) (*AttributeValue, error)
	UpsertQualificationAttribute(ctx context.Context, customerID int64, date string) error
	DeleteQualificationAttribute(ctx context.Context, recordID int64) error
	FetchAllQualificationAttributes(ctx context.Context) ([]AttributeValue, error)
}

// OrderSource resolves order headers and line items for inbound events.
type OrderSource interface {
	FetchOrder(ctx context.Context, id int64) (Order, error)
	FetchOrderLineItems(ctx context.Context, orderID int64) ([]LineItem, error)
}

var (
	ErrNotFound      = errors.New("not_found")
	ErrRemoteFailure = errors.New("remote_failure")
	ErrInvalidConfig = errors.New("invalid_config")
)
