package domain

// Customer is the directory's view of a shopper. Group membership is the only
// attribute qualification logic consumes; a GroupID of 0 means no group.
type Customer struct {
	ID      int64 `json:"id"`
	GroupID int64 `json:"customer_group_id"`
}

// Order carries the header fields needed to evaluate an event. CustomerID 0
// denotes a guest checkout.
type Order struct {
	ID         int64 `json:"id"`
	CustomerID int64 `json:"customer_id"`
}

type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// AttributeValue is one customer's qualification-date record. Value is an ISO
// calendar date (YYYY-MM-DD); the record id is required for deletion.
type AttributeValue struct {
	RecordID    int64  `json:"id"`
	CustomerID  int64  `json:"customer_id"`
	AttributeID int64  `json:"attribute_id"`
	Value       string `json:"attribute_value"`
}

func TotalQuantity(items []LineItem) int {
	total := 0
	for _, item := range items {
		if item.Quantity > 0 {
			total += item.Quantity
		}
	}
	return total
}
