package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/loyara/internal/clock"
	"github.com/smallbiznis/loyara/internal/config"
	directorydomain "github.com/smallbiznis/loyara/internal/directory/domain"
	"github.com/smallbiznis/loyara/internal/qualification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sweepDirectory struct {
	records []directorydomain.AttributeValue

	groupWrites map[int64]int64
	deleted     map[int64]bool

	failGroupFor int64
}

func newSweepDirectory(records ...directorydomain.AttributeValue) *sweepDirectory {
	return &sweepDirectory{
		records:     records,
		groupWrites: make(map[int64]int64),
		deleted:     make(map[int64]bool),
	}
}

func (d *sweepDirectory) FetchCustomer(context.Context, int64) (directorydomain.Customer, error) {
	return directorydomain.Customer{}, directorydomain.ErrNotFound
}

func (d *sweepDirectory) SetCustomerGroup(_ context.Context, customerID, groupID int64) error {
	if d.failGroupFor != 0 && customerID == d.failGroupFor {
		return errors.New("boom")
	}
	d.groupWrites[customerID] = groupID
	return nil
}

func (d *sweepDirectory) FetchQualificationAttribute(context.Context, int64) (*directorydomain.AttributeValue, error) {
	return nil, nil
}

func (d *sweepDirectory) UpsertQualificationAttribute(context.Context, int64, string) error {
	return nil
}

func (d *sweepDirectory) DeleteQualificationAttribute(_ context.Context, recordID int64) error {
	d.deleted[recordID] = true
	return nil
}

func (d *sweepDirectory) FetchAllQualificationAttributes(context.Context) ([]directorydomain.AttributeValue, error) {
	return d.records, nil
}

func newTestSweeper(t *testing.T, dir *sweepDirectory) *Sweeper {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	s, err := New(Params{
		Log:        log,
		Clock:      clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		Directory:  dir,
		Reconciler: qualification.NewReconciler(dir, log, 7),
		Policy:     config.NewStaticPolicyHolder(config.Policy{MinQuantity: 5, DiscountDays: 90, DiscountPercent: 10}),
		GenID:      node,
	})
	require.NoError(t, err)
	return s
}

func TestSweepDemotesOnlyExpiredRecords(t *testing.T) {
	dir := newSweepDirectory(
		directorydomain.AttributeValue{RecordID: 1, CustomerID: 10, Value: "2025-11-01"}, // expired
		directorydomain.AttributeValue{RecordID: 2, CustomerID: 11, Value: "2026-02-20"}, // active
		directorydomain.AttributeValue{RecordID: 3, CustomerID: 12, Value: ""},           // no value, skipped
		directorydomain.AttributeValue{RecordID: 4, CustomerID: 13, Value: "2025-12-09"}, // 91 days, expired
		directorydomain.AttributeValue{RecordID: 5, CustomerID: 14, Value: "2025-12-10"}, // exactly 90 days, kept
	)
	s := newTestSweeper(t, dir)

	stats, err := s.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Scanned)
	assert.Equal(t, 2, stats.Demoted)
	assert.Equal(t, int64(0), dir.groupWrites[10])
	assert.True(t, dir.deleted[1])
	assert.True(t, dir.deleted[4])
	assert.False(t, dir.deleted[2])
	assert.False(t, dir.deleted[5])
}

func TestSweepTreatsGarbageDateAsExpired(t *testing.T) {
	dir := newSweepDirectory(
		directorydomain.AttributeValue{RecordID: 9, CustomerID: 20, Value: "not-a-date"},
	)
	s := newTestSweeper(t, dir)

	stats, err := s.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Demoted)
	assert.True(t, dir.deleted[9])
}

func TestSweepContinuesPastIndividualFailures(t *testing.T) {
	dir := newSweepDirectory(
		directorydomain.AttributeValue{RecordID: 1, CustomerID: 10, Value: "2025-11-01"},
		directorydomain.AttributeValue{RecordID: 2, CustomerID: 11, Value: "2025-11-01"},
	)
	dir.failGroupFor = 10
	s := newTestSweeper(t, dir)

	stats, err := s.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Demoted)
	assert.False(t, dir.deleted[1])
	assert.True(t, dir.deleted[2])
}
