package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/loyara/internal/config"
	"github.com/smallbiznis/loyara/internal/directory/domain"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 12 * time.Second
	attributePageLimit    = 250
)

// Client talks to the store management API (customers v3, orders v2). Every
// call carries the client timeout; a hung remote cannot stall a handler
// indefinitely.
type Client struct {
	baseURL     string
	storeHash   string
	token       string
	attributeID int64
	log         *zap.Logger
	client      *http.Client
}

func NewClient(cfg config.Config, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.StoreHash) == "" || strings.TrimSpace(cfg.StoreAPIToken) == "" {
		return nil, domain.ErrInvalidConfig
	}
	if cfg.AttributeID == 0 {
		return nil, domain.ErrInvalidConfig
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.StoreAPIBase, "/"),
		storeHash:   cfg.StoreHash,
		token:       cfg.StoreAPIToken,
		attributeID: cfg.AttributeID,
		log:         log.Named("directory"),
		client:      &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

type v3Envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Pagination struct {
			TotalPages  int `json:"total_pages"`
			CurrentPage int `json:"current_page"`
		} `json:"pagination"`
	} `json:"meta"`
}

func (c *Client) FetchCustomer(ctx context.Context, id int64) (domain.Customer, error) {
	query := url.Values{}
	query.Set("id:in", strconv.FormatInt(id, 10))

	env, err := c.doV3(ctx, http.MethodGet, "/v3/customers", query, nil)
	if err != nil {
		return domain.Customer{}, err
	}

	var customers []domain.Customer
	if err := json.Unmarshal(env.Data, &customers); err != nil {
		return domain.Customer{}, fmt.Errorf("decode customers: %w", err)
	}
	if len(customers) == 0 {
		return domain.Customer{}, domain.ErrNotFound
	}
	return customers[0], nil
}

func (c *Client) SetCustomerGroup(ctx context.Context, customerID, groupID int64) error {
	body := []map[string]int64{{
		"id":                customerID,
		"customer_group_id": groupID,
	}}
	_, err := c.doV3(ctx, http.MethodPut, "/v3/customers", nil, body)
	return err
}

func (c *Client) FetchQualificationAttribute(ctx context.Context, customerID int64) (*domain.AttributeValue, error) {
	query := url.Values{}
	query.Set("attribute_id:in", strconv.FormatInt(c.attributeID, 10))
	query.Set("customer_id:in", strconv.FormatInt(customerID, 10))

	env, err := c.doV3(ctx, http.MethodGet, "/v3/customers/attribute-values", query, nil)
	if err != nil {
		return nil, err
	}

	var values []domain.AttributeValue
	if err := json.Unmarshal(env.Data, &values); err != nil {
		return nil, fmt.Errorf("decode attribute values: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &values[0], nil
}

func (c *Client) UpsertQualificationAttribute(ctx context.Context, customerID int64, date string) error {
	body := []map[string]any{{
		"customer_id":  customerID,
		"attribute_id": c.attributeID,
		"value":        date,
	}}
	_, err := c.doV3(ctx, http.MethodPut, "/v3/customers/attribute-values", nil, body)
	return err
}

func (c *Client) DeleteQualificationAttribute(ctx context.Context, recordID int64) error {
	query := url.Values{}
	query.Set("id:in", strconv.FormatInt(recordID, 10))
	_, err := c.doV3(ctx, http.MethodDelete, "/v3/customers/attribute-values", query, nil)
	return err
}

// FetchAllQualificationAttributes pages through every attribute value for the
// qualification attribute definition. Used by the expiry sweep.
func (c *Client) FetchAllQualificationAttributes(ctx context.Context) ([]domain.AttributeValue, error) {
	var all []domain.AttributeValue
	page := 1

	for {
		query := url.Values{}
		query.Set("attribute_id:in", strconv.FormatInt(c.attributeID, 10))
		query.Set("page", strconv.Itoa(page))
		query.Set("limit", strconv.Itoa(attributePageLimit))

		env, err := c.doV3(ctx, http.MethodGet, "/v3/customers/attribute-values", query, nil)
		if err != nil {
			return nil, err
		}

		var values []domain.AttributeValue
		if err := json.Unmarshal(env.Data, &values); err != nil {
			return nil, fmt.Errorf("decode attribute values: %w", err)
		}
		all = append(all, values...)

		if env.Meta.Pagination.TotalPages == 0 || page >= env.Meta.Pagination.TotalPages {
			return all, nil
		}
		page++
	}
}

func (c *Client) FetchOrder(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	if err := c.doV2(ctx, "/v2/orders/"+strconv.FormatInt(id, 10), &order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (c *Client) FetchOrderLineItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if err := c.doV2(ctx, "/v2/orders/"+strconv.FormatInt(orderID, 10)+"/products", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) doV3(ctx context.Context, method, path string, query url.Values, body any) (*v3Envelope, error) {
	raw, status, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return &v3Envelope{}, nil
	}

	var env v3Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

func (c *Client) doV2(ctx context.Context, path string, out any) error {
	raw, status, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	endpoint := c.baseURL + "/stores/" + c.storeHash + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.log.Warn("store api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, resp.StatusCode, fmt.Errorf("%w: %s %s returned %d", domain.ErrRemoteFailure, method, path, resp.StatusCode)
	}

	return raw, resp.StatusCode, nil
}
