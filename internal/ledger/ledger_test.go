package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fairtrade/internal/db"
	"github.com/erazemk/fairtrade/internal/model"
)

const oneUnit int64 = 1_000_000_000_000_000_000

var origin = model.Provenance{
	FarmName:        "John Doe",
	FarmInformation: "Yarra Valley",
	Latitude:        "-38.23977",
	Longitude:       "144.34149",
	Notes:           "Best beans for Espresso",
}

type participants struct {
	admin       string
	farmer      string
	distributor string
	retailer    string
	consumer    string
	guest       string
}

func setupLedger(t *testing.T) (*Ledger, participants) {
	t.Helper()
	ctx := context.Background()
	l := New(db.NewTestDB(t))

	admin, err := l.Bootstrap(ctx, "owner", "hash")
	require.NoError(t, err)

	register := func(name string) string {
		acct, err := l.Register(ctx, admin.ID, name, "hash")
		require.NoError(t, err)
		return acct.ID
	}

	p := participants{
		admin:       admin.ID,
		farmer:      register("farmer"),
		distributor: register("distributor"),
		retailer:    register("retailer"),
		consumer:    register("consumer"),
		guest:       register("guest"),
	}

	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleFarmer, p.farmer))
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleDistributor, p.distributor))
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleRetailer, p.retailer))
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleConsumer, p.consumer))

	require.NoError(t, l.Fund(ctx, p.admin, p.distributor, 5*oneUnit))
	require.NoError(t, l.Fund(ctx, p.admin, p.consumer, 5*oneUnit))

	return l, p
}

// driveTo takes a fresh UPC through the lifecycle up to and including target.
func driveTo(t *testing.T, l *Ledger, p participants, upc int64, target model.Status) {
	t.Helper()
	ctx := context.Background()

	steps := []func() (*model.Item, error){
		func() (*model.Item, error) { return l.HarvestItem(ctx, p.farmer, upc, origin) },
		func() (*model.Item, error) { return l.ProcessItem(ctx, p.farmer, upc) },
		func() (*model.Item, error) { return l.PackItem(ctx, p.farmer, upc) },
		func() (*model.Item, error) { return l.SetForSaleItem(ctx, p.farmer, upc, oneUnit) },
		func() (*model.Item, error) { return l.BuyItem(ctx, p.distributor, upc, oneUnit) },
		func() (*model.Item, error) { return l.ShipItem(ctx, p.distributor, upc) },
		func() (*model.Item, error) { return l.ReceiveItem(ctx, p.retailer, upc) },
		func() (*model.Item, error) { return l.PurchaseItem(ctx, p.consumer, upc, oneUnit) },
	}
	for i := 0; i <= int(target); i++ {
		item, err := steps[i]()
		require.NoError(t, err, "step to %s", model.Status(i))
		require.Equal(t, model.Status(i), item.Status)
	}
}

func latest(t *testing.T, l *Ledger) int64 {
	t.Helper()
	idx, err := l.LatestIndex(context.Background())
	require.NoError(t, err)
	return idx
}

func TestHarvestItem(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	item, err := l.HarvestItem(ctx, p.farmer, 1, origin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHarvested, item.Status)

	one, err := l.FetchItemBufferOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &model.ItemSummary{
		SKU:                   1,
		UPC:                   1,
		OwnerID:               p.farmer,
		OriginFarmerID:        p.farmer,
		OriginFarmName:        "John Doe",
		OriginFarmInformation: "Yarra Valley",
		OriginFarmLatitude:    "-38.23977",
		OriginFarmLongitude:   "144.34149",
	}, one)

	two, err := l.FetchItemBufferTwo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), two.ProductID)
	assert.Equal(t, "Best beans for Espresso", two.ProductNotes)
	assert.Zero(t, two.ProductPrice)
	assert.Empty(t, two.DistributorID)

	history, err := l.ItemHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Harvested", history[0].Name)
	assert.Equal(t, p.farmer, history[0].Emitter)

	var payload model.Provenance
	require.NoError(t, json.Unmarshal(history[0].Payload, &payload))
	assert.Equal(t, origin, payload)
}

func TestItemTimestamps(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	harvested := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return harvested }

	item, err := l.HarvestItem(ctx, p.farmer, 1, origin)
	require.NoError(t, err)
	assert.True(t, item.CreatedAt.Equal(harvested))
	assert.True(t, item.UpdatedAt.Equal(harvested))

	processed := harvested.Add(time.Hour)
	l.now = func() time.Time { return processed }

	item, err = l.ProcessItem(ctx, p.farmer, 1)
	require.NoError(t, err)
	assert.True(t, item.CreatedAt.Equal(harvested))
	assert.True(t, item.UpdatedAt.Equal(processed))

	stored, err := l.Item(ctx, 1)
	require.NoError(t, err)
	assert.True(t, stored.CreatedAt.Equal(harvested), "stored created_at %s", stored.CreatedAt)
	assert.True(t, stored.UpdatedAt.Equal(processed), "stored updated_at %s", stored.UpdatedAt)
}

func TestSKUIsSequential(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	for i, upc := range []int64{40, 7, 1000} {
		item, err := l.HarvestItem(ctx, p.farmer, upc, origin)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), item.SKU)
		assert.Equal(t, item.SKU+upc, item.ProductID())
	}
}

func TestHarvestDuplicateUPC(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusProcessed)
	before := latest(t, l)

	_, err := l.HarvestItem(ctx, p.farmer, 1, model.Provenance{FarmName: "Impostor"})
	require.ErrorIs(t, err, ErrDuplicateItem)

	item, err := l.Item(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", item.OriginFarmName)
	assert.Equal(t, model.StatusProcessed, item.Status)
	assert.Equal(t, before, latest(t, l), "rejected harvest must not emit")
}

func TestFullLifecycle(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusPurchased)

	history, err := l.ItemHistory(ctx, 1)
	require.NoError(t, err)
	var names []string
	for _, e := range history {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Harvested", "Processed", "Packed", "ForSale", "Sold", "Shipped", "Received", "Purchased"}, names)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].Index, history[i-1].Index)
	}

	one, err := l.FetchItemBufferOne(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, p.consumer, one.OwnerID)
	assert.Equal(t, p.farmer, one.OriginFarmerID)

	two, err := l.FetchItemBufferTwo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPurchased, two.Status)
	assert.Equal(t, int64(2), two.ProductID)
	assert.Equal(t, oneUnit, two.ProductPrice)
	assert.Equal(t, p.distributor, two.DistributorID)
	assert.Equal(t, p.retailer, two.RetailerID)
	assert.Equal(t, p.consumer, two.ConsumerID)

	// The farmer was paid by the distributor, the retailer by the consumer.
	balances := map[string]int64{
		p.farmer:      oneUnit,
		p.distributor: 4 * oneUnit,
		p.retailer:    oneUnit,
		p.consumer:    4 * oneUnit,
	}
	for acct, want := range balances {
		got, err := l.Balance(ctx, acct)
		require.NoError(t, err)
		assert.Equal(t, want, got, "balance of %s", acct)
	}
}

func TestBuyItemPaysFarmer(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusForSale)
	farmerBefore, _ := l.Balance(ctx, p.farmer)

	_, err := l.BuyItem(ctx, p.distributor, 1, oneUnit)
	require.NoError(t, err)

	two, err := l.FetchItemBufferTwo(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSold, two.Status)
	assert.Equal(t, p.distributor, two.DistributorID)

	one, _ := l.FetchItemBufferOne(ctx, 1)
	assert.Equal(t, p.distributor, one.OwnerID)

	farmerAfter, _ := l.Balance(ctx, p.farmer)
	assert.Equal(t, oneUnit, farmerAfter-farmerBefore)
}

func TestProcessItemByNonFarmer(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusHarvested)
	before := latest(t, l)

	for _, caller := range []string{p.guest, p.distributor, p.admin} {
		_, err := l.ProcessItem(ctx, caller, 1)
		require.ErrorIs(t, err, ErrUnauthorized)
	}

	item, _ := l.Item(ctx, 1)
	assert.Equal(t, model.StatusHarvested, item.Status)
	assert.Equal(t, before, latest(t, l))
}

func TestRoleChecks(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		status model.Status
		call   func() error
	}{
		{"harvest by guest", 0, func() error {
			_, err := l.HarvestItem(ctx, p.guest, 99, origin)
			return err
		}},
		{"pack by retailer", model.StatusProcessed, func() error {
			_, err := l.PackItem(ctx, p.retailer, 1)
			return err
		}},
		{"sell by distributor", model.StatusPacked, func() error {
			_, err := l.SetForSaleItem(ctx, p.distributor, 1, oneUnit)
			return err
		}},
		{"buy by consumer", model.StatusForSale, func() error {
			_, err := l.BuyItem(ctx, p.consumer, 1, oneUnit)
			return err
		}},
		{"ship by farmer", model.StatusSold, func() error {
			_, err := l.ShipItem(ctx, p.farmer, 1)
			return err
		}},
		{"receive by consumer", model.StatusShipped, func() error {
			_, err := l.ReceiveItem(ctx, p.consumer, 1)
			return err
		}},
		{"purchase by distributor", model.StatusReceived, func() error {
			_, err := l.PurchaseItem(ctx, p.distributor, 1, oneUnit)
			return err
		}},
	}

	driveTo(t, l, p, 1, model.StatusHarvested)
	current := model.StatusHarvested
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Bring the item to the state the call expects.
			for current < tt.status {
				current++
				advanceOne(t, l, p, 1, current)
			}
			before := latest(t, l)

			err := tt.call()
			require.ErrorIs(t, err, ErrUnauthorized)
			assert.Equal(t, before, latest(t, l))

			item, _ := l.Item(ctx, 1)
			assert.Equal(t, current, item.Status)
		})
	}
}

// advanceOne performs the single authorized step into target.
func advanceOne(t *testing.T, l *Ledger, p participants, upc int64, target model.Status) {
	t.Helper()
	ctx := context.Background()
	var err error
	switch target {
	case model.StatusProcessed:
		_, err = l.ProcessItem(ctx, p.farmer, upc)
	case model.StatusPacked:
		_, err = l.PackItem(ctx, p.farmer, upc)
	case model.StatusForSale:
		_, err = l.SetForSaleItem(ctx, p.farmer, upc, oneUnit)
	case model.StatusSold:
		_, err = l.BuyItem(ctx, p.distributor, upc, oneUnit)
	case model.StatusShipped:
		_, err = l.ShipItem(ctx, p.distributor, upc)
	case model.StatusReceived:
		_, err = l.ReceiveItem(ctx, p.retailer, upc)
	case model.StatusPurchased:
		_, err = l.PurchaseItem(ctx, p.consumer, upc, oneUnit)
	default:
		t.Fatalf("no single step into %s", target)
	}
	require.NoError(t, err)
}

func TestInvalidState(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	ops := map[model.Status]func() error{
		model.StatusProcessed: func() error { _, err := l.ProcessItem(ctx, p.farmer, 1); return err },
		model.StatusPacked:    func() error { _, err := l.PackItem(ctx, p.farmer, 1); return err },
		model.StatusForSale:   func() error { _, err := l.SetForSaleItem(ctx, p.farmer, 1, oneUnit); return err },
		model.StatusSold:      func() error { _, err := l.BuyItem(ctx, p.distributor, 1, oneUnit); return err },
		model.StatusShipped:   func() error { _, err := l.ShipItem(ctx, p.distributor, 1); return err },
		model.StatusReceived:  func() error { _, err := l.ReceiveItem(ctx, p.retailer, 1); return err },
		model.StatusPurchased: func() error { _, err := l.PurchaseItem(ctx, p.consumer, 1, oneUnit); return err },
	}

	driveTo(t, l, p, 1, model.StatusHarvested)
	for current := model.StatusHarvested; ; current++ {
		for target, op := range ops {
			if target == current+1 {
				continue
			}
			before := latest(t, l)
			err := op()
			require.Error(t, err, "%s from %s", target, current)
			// Custody rules may refuse first, but never let the step through.
			if !errors.Is(err, ErrUnauthorized) {
				require.ErrorIs(t, err, ErrInvalidState, "%s from %s", target, current)
			}
			assert.Equal(t, before, latest(t, l))
		}

		item, err := l.Item(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, current, item.Status)
		if current.Final() {
			break
		}
		advanceOne(t, l, p, 1, current+1)
	}
}

func TestMissingItem(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	_, err := l.ProcessItem(ctx, p.farmer, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.FetchItemBufferOne(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.FetchItemBufferTwo(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = l.ItemHistory(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetForSaleInvalidPrice(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusPacked)
	before := latest(t, l)

	for _, price := range []int64{0, -1} {
		_, err := l.SetForSaleItem(ctx, p.farmer, 1, price)
		require.ErrorIs(t, err, ErrInvalidPrice)
	}

	item, _ := l.Item(ctx, 1)
	assert.Equal(t, model.StatusPacked, item.Status)
	assert.Zero(t, item.ProductPrice)
	assert.Equal(t, before, latest(t, l))
}

func TestPaymentMustMatchPrice(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusForSale)
	before := latest(t, l)

	for _, payment := range []int64{0, oneUnit - 1, oneUnit + 1, 2 * oneUnit} {
		_, err := l.BuyItem(ctx, p.distributor, 1, payment)
		require.ErrorIs(t, err, ErrInsufficientPayment, "payment %d", payment)
	}

	farmer, _ := l.Balance(ctx, p.farmer)
	distributor, _ := l.Balance(ctx, p.distributor)
	assert.Zero(t, farmer)
	assert.Equal(t, 5*oneUnit, distributor)

	item, _ := l.Item(ctx, 1)
	assert.Equal(t, model.StatusForSale, item.Status)
	assert.Equal(t, p.farmer, item.OwnerID)
	assert.Empty(t, item.DistributorID)
	assert.Equal(t, before, latest(t, l))

	// Same rule at the consumer end.
	driveTo(t, l, p, 2, model.StatusReceived)
	_, err := l.PurchaseItem(ctx, p.consumer, 2, oneUnit/2)
	require.ErrorIs(t, err, ErrInsufficientPayment)
}

func TestInsufficientFunds(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	broke, err := l.Register(ctx, p.admin, "broke", "hash")
	require.NoError(t, err)
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleDistributor, broke.ID))

	driveTo(t, l, p, 1, model.StatusForSale)

	_, err = l.BuyItem(ctx, broke.ID, 1, oneUnit)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	item, _ := l.Item(ctx, 1)
	assert.Equal(t, model.StatusForSale, item.Status)
}

func TestNoSelfDealing(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	// A farmer who is also a distributor cannot buy their own listing.
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleDistributor, p.farmer))
	driveTo(t, l, p, 1, model.StatusForSale)

	_, err := l.BuyItem(ctx, p.farmer, 1, oneUnit)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Likewise a retailer who is also a consumer.
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleConsumer, p.retailer))
	require.NoError(t, l.Fund(ctx, p.admin, p.retailer, oneUnit))
	driveTo(t, l, p, 2, model.StatusReceived)

	_, err = l.PurchaseItem(ctx, p.retailer, 2, oneUnit)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestOwnerOnlySteps(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	otherFarmer, err := l.Register(ctx, p.admin, "other-farmer", "hash")
	require.NoError(t, err)
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleFarmer, otherFarmer.ID))

	driveTo(t, l, p, 1, model.StatusHarvested)
	_, err = l.ProcessItem(ctx, otherFarmer.ID, 1)
	require.ErrorIs(t, err, ErrUnauthorized)

	otherDistributor, err := l.Register(ctx, p.admin, "other-distributor", "hash")
	require.NoError(t, err)
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleDistributor, otherDistributor.ID))

	driveTo(t, l, p, 2, model.StatusSold)
	_, err = l.ShipItem(ctx, otherDistributor.ID, 2)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestGrantRole(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	err := l.GrantRole(ctx, p.farmer, model.RoleFarmer, p.guest)
	require.ErrorIs(t, err, ErrUnauthorized)
	has, err := l.HasRole(ctx, model.RoleFarmer, p.guest)
	require.NoError(t, err)
	assert.False(t, has)

	before := latest(t, l)
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleRetailer, p.guest))
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleRetailer, p.guest), "granting twice is a no-op")
	assert.Equal(t, before+1, latest(t, l), "only the first grant emits")

	has, err = l.HasRole(ctx, model.RoleRetailer, p.guest)
	require.NoError(t, err)
	assert.True(t, has)

	// Roles are many-to-many.
	require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleConsumer, p.guest))
	roles, err := l.RolesOf(ctx, p.guest)
	require.NoError(t, err)
	assert.Equal(t, []model.Role{model.RoleRetailer, model.RoleConsumer}, roles)

	err = l.GrantRole(ctx, p.admin, model.Role(0), p.guest)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = l.GrantRole(ctx, p.admin, model.RoleFarmer, "0xnobody")
	assert.ErrorIs(t, err, ErrNotFound)

	events, err := l.Events(ctx, before+1, before+1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventRoleGranted, events[0].Name)
	assert.Nil(t, events[0].UPC)
	assert.JSONEq(t, `{"role":"retailer","account":"`+p.guest+`"}`, string(events[0].Payload))
}

func TestRevokeRole(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusHarvested)

	require.ErrorIs(t, l.RevokeRole(ctx, p.guest, model.RoleFarmer, p.farmer), ErrUnauthorized)
	require.NoError(t, l.RevokeRole(ctx, p.admin, model.RoleFarmer, p.farmer))

	before := latest(t, l)
	require.NoError(t, l.RevokeRole(ctx, p.admin, model.RoleFarmer, p.farmer), "revoking twice is a no-op")
	assert.Equal(t, before, latest(t, l))

	_, err := l.ProcessItem(ctx, p.farmer, 1)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Other holders are untouched.
	has, _ := l.HasRole(ctx, model.RoleDistributor, p.distributor)
	assert.True(t, has)
}

func TestFund(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	require.ErrorIs(t, l.Fund(ctx, p.farmer, p.farmer, oneUnit), ErrUnauthorized)
	require.ErrorIs(t, l.Fund(ctx, p.admin, p.farmer, 0), ErrInvalidAmount)
	require.ErrorIs(t, l.Fund(ctx, p.admin, "0xnobody", oneUnit), ErrNotFound)

	require.NoError(t, l.Fund(ctx, p.admin, p.farmer, 3))
	bal, err := l.Balance(ctx, p.farmer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), bal)

	_, err = l.Balance(ctx, "0xnobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFundOverflow(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Fund(ctx, p.admin, p.farmer, math.MaxInt64))
	before := latest(t, l)

	require.ErrorIs(t, l.Fund(ctx, p.admin, p.farmer, 1), ErrInvalidAmount)
	require.ErrorIs(t, l.Fund(ctx, p.admin, p.farmer, math.MaxInt64), ErrInvalidAmount)

	bal, err := l.Balance(ctx, p.farmer)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), bal)
	assert.Equal(t, before, latest(t, l))

	acct, err := l.Account(ctx, p.farmer)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), acct.Balance)

	all, err := l.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestPaymentOverflowsPayee(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusForSale)
	require.NoError(t, l.Fund(ctx, p.admin, p.farmer, math.MaxInt64))
	before := latest(t, l)

	_, err := l.BuyItem(ctx, p.distributor, 1, oneUnit)
	require.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, before, latest(t, l))

	item, err := l.Item(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusForSale, item.Status)
	assert.Equal(t, p.farmer, item.OwnerID)
	assert.Empty(t, item.DistributorID)

	farmer, err := l.Balance(ctx, p.farmer)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), farmer)

	distributor, err := l.Balance(ctx, p.distributor)
	require.NoError(t, err)
	assert.Equal(t, 5*oneUnit, distributor)
}

func TestAccounts(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	_, err := l.Bootstrap(ctx, "second-owner", "hash")
	require.ErrorIs(t, err, ErrAdminExists)

	_, err = l.Register(ctx, p.farmer, "sneaky", "hash")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = l.Register(ctx, p.admin, "farmer", "hash")
	require.ErrorIs(t, err, ErrInvalidArgument)

	acct, err := l.Account(ctx, p.farmer)
	require.NoError(t, err)
	assert.Regexp(t, `^0x[0-9a-f]{40}$`, acct.ID)
	assert.False(t, acct.Admin)

	all, err := l.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestEventsRange(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	setup := latest(t, l)
	driveTo(t, l, p, 1, model.StatusPacked)

	all, err := l.Events(ctx, 0, model.LatestIndex)
	require.NoError(t, err)
	require.Len(t, all, int(setup)+3)
	for i, e := range all {
		assert.Equal(t, int64(i+1), e.Index)
		assert.NotEmpty(t, e.ID)
	}

	tail, err := l.Events(ctx, setup+2, model.LatestIndex)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "Processed", tail[0].Name)
	assert.Equal(t, "Packed", tail[1].Name)

	window, err := l.Events(ctx, setup+1, setup+1)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "Harvested", window[0].Name)

	_, err = l.Events(ctx, 5, 2)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = l.Events(ctx, -1, model.LatestIndex)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConcurrentBuyers(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	buyers := []string{p.distributor}
	for _, name := range []string{"rival-1", "rival-2", "rival-3"} {
		acct, err := l.Register(ctx, p.admin, name, "hash")
		require.NoError(t, err)
		require.NoError(t, l.GrantRole(ctx, p.admin, model.RoleDistributor, acct.ID))
		require.NoError(t, l.Fund(ctx, p.admin, acct.ID, oneUnit))
		buyers = append(buyers, acct.ID)
	}

	driveTo(t, l, p, 1, model.StatusForSale)

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer string) {
			defer wg.Done()
			_, errs[i] = l.BuyItem(ctx, buyer, 1, oneUnit)
		}(i, buyer)
	}
	wg.Wait()

	var winner string
	for i, err := range errs {
		if err == nil {
			require.Empty(t, winner, "more than one buyer succeeded")
			winner = buyers[i]
			continue
		}
		require.ErrorIs(t, err, ErrInvalidState)
	}
	require.NotEmpty(t, winner)

	item, _ := l.Item(ctx, 1)
	assert.Equal(t, winner, item.OwnerID)
	assert.Equal(t, winner, item.DistributorID)

	history, _ := l.ItemHistory(ctx, 1)
	sold := 0
	for _, e := range history {
		if e.Name == "Sold" {
			sold++
		}
	}
	assert.Equal(t, 1, sold)

	farmer, _ := l.Balance(ctx, p.farmer)
	assert.Equal(t, oneUnit, farmer, "exactly one payment reached the farmer")
}

func TestReadsDuringWrites(t *testing.T) {
	l, p := setupLedger(t)
	ctx := context.Background()

	driveTo(t, l, p, 1, model.StatusHarvested)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := model.StatusHarvested
		for {
			select {
			case <-done:
				return
			default:
			}
			two, err := l.FetchItemBufferTwo(ctx, 1)
			if !assert.NoError(t, err) {
				return
			}
			assert.GreaterOrEqual(t, uint8(two.Status), uint8(last), "status went backwards")
			if two.Status >= model.StatusSold {
				assert.Equal(t, p.distributor, two.DistributorID, "custody without status")
			}
			last = two.Status
		}
	}()

	for s := model.StatusProcessed; s <= model.StatusPurchased; s++ {
		advanceOne(t, l, p, 1, s)
	}
	close(done)
	wg.Wait()
}

func TestCancelledContext(t *testing.T) {
	l, p := setupLedger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.HarvestItem(ctx, p.farmer, 1, origin)
	require.ErrorIs(t, err, context.Canceled)

	_, err = l.Item(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "Unauthorized"},
		{ErrAdminExists, "Unauthorized"},
		{errors.Join(errors.New("context"), ErrInvalidState), "InvalidState"},
		{ErrDuplicateItem, "DuplicateItem"},
		{ErrNotFound, "NotFound"},
		{ErrInvalidPrice, "InvalidPrice"},
		{ErrInsufficientPayment, "InsufficientPayment"},
		{ErrInsufficientFunds, "InsufficientFunds"},
		{ErrInvalidAmount, "InvalidAmount"},
		{ErrInvalidArgument, "InvalidArgument"},
		{errors.New("disk on fire"), "Internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "Kind(%v)", tt.err)
	}
}
