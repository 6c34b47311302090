package qualification

import (
	"context"
	"sync"

	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
)

// fakeDirectory backs both Directory and OrderSource with in-memory state and
// records every write for assertions.
type fakeDirectory struct {
	mu sync.Mutex

	customers  map[int64]directorydomain.Customer
	attributes map[int64]directorydomain.AttributeValue // keyed by customer id
	orders     map[int64]directorydomain.Order
	lineItems  map[int64][]directorydomain.LineItem

	nextRecordID int64

	groupWrites      []groupWrite
	attributeUpserts []attributeUpsert
	attributeDeletes []int64

	failSetGroup  error
	failUpsert    error
	failFetchAttr error
}

type groupWrite struct {
	customerID int64
	groupID    int64
}

type attributeUpsert struct {
	customerID int64
	date       string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		customers:    make(map[int64]directorydomain.Customer),
		attributes:   make(map[int64]directorydomain.AttributeValue),
		orders:       make(map[int64]directorydomain.Order),
		lineItems:    make(map[int64][]directorydomain.LineItem),
		nextRecordID: 1000,
	}
}

func (f *fakeDirectory) FetchCustomer(_ context.Context, id int64) (directorydomain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	customer, ok := f.customers[id]
	if !ok {
		return directorydomain.Customer{}, directorydomain.ErrNotFound
	}
	return customer, nil
}

func (f *fakeDirectory) SetCustomerGroup(_ context.Context, customerID, groupID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetGroup != nil {
		return f.failSetGroup
	}
	customer := f.customers[customerID]
	customer.ID = customerID
	customer.GroupID = groupID
	f.customers[customerID] = customer
	f.groupWrites = append(f.groupWrites, groupWrite{customerID, groupID})
	return nil
}

func (f *fakeDirectory) FetchQualificationAttribute(_ context.Context, customerID int64) (*directorydomain.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetchAttr != nil {
		return nil, f.failFetchAttr
	}
	record, ok := f.attributes[customerID]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (f *fakeDirectory) UpsertQualificationAttribute(_ context.Context, customerID int64, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		return f.failUpsert
	}
	record, ok := f.attributes[customerID]
	if !ok {
		f.nextRecordID++
		record = directorydomain.AttributeValue{RecordID: f.nextRecordID, CustomerID: customerID}
	}
	record.Value = date
	f.attributes[customerID] = record
	f.attributeUpserts = append(f.attributeUpserts, attributeUpsert{customerID, date})
	return nil
}

func (f *fakeDirectory) DeleteQualificationAttribute(_ context.Context, recordID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for customerID, record := range f.attributes {
		if record.RecordID == recordID {
			delete(f.attributes, customerID)
			f.attributeDeletes = append(f.attributeDeletes, recordID)
			return nil
		}
	}
	return directorydomain.ErrNotFound
}

func (f *fakeDirectory) FetchAllQualificationAttributes(_ context.Context) ([]directorydomain.AttributeValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []directorydomain.AttributeValue
	for _, record := range f.attributes {
		all = append(all, record)
	}
	return all, nil
}

func (f *fakeDirectory) FetchOrder(_ context.Context, id int64) (directorydomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[id]
	if !ok {
		return directorydomain.Order{}, directorydomain.ErrNotFound
	}
	return order, nil
}

func (f *fakeDirectory) FetchOrderLineItems(_ context.Context, orderID int64) ([]directorydomain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lineItems[orderID], nil
}
