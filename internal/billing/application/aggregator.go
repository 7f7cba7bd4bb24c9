package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	billing "kitchen-billing/internal/billing/domain"
	"kitchen-billing/internal/observability/metrics"
	ordering "kitchen-billing/internal/ordering/domain"
)

// Aggregator computes the priced monthly rows from orders and charges.
type Aggregator struct {
	persons PersonReader
	orders  OrderReader
	charges ChargeReader
	prices  PriceProvider
	policy  billing.ChargeOnlyPolicy
	locale  language.Tag
	logger  *log.Logger
}

// AggregatorOption configures the Aggregator.
type AggregatorOption func(*Aggregator)

// WithChargeOnlyPolicy sets how persons with charges but no orders are treated.
func WithChargeOnlyPolicy(policy billing.ChargeOnlyPolicy) AggregatorOption {
	return func(a *Aggregator) {
		if policy != "" {
			a.policy = policy
		}
	}
}

// WithLocale sets the collation locale used to sort rows by name.
func WithLocale(tag language.Tag) AggregatorOption {
	return func(a *Aggregator) {
		if tag != language.Und {
			a.locale = tag
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator constructs an Aggregator.
func NewAggregator(persons PersonReader, orders OrderReader, charges ChargeReader, prices PriceProvider, opts ...AggregatorOption) (*Aggregator, error) {
	if persons == nil {
		return nil, errors.New("billing aggregator: nil person reader")
	}
	if orders == nil {
		return nil, errors.New("billing aggregator: nil order reader")
	}
	if charges == nil {
		return nil, errors.New("billing aggregator: nil charge reader")
	}
	if prices == nil {
		return nil, errors.New("billing aggregator: nil price provider")
	}
	a := &Aggregator{
		persons: persons,
		orders:  orders,
		charges: charges,
		prices:  prices,
		policy:  billing.ChargeOnlyOmit,
		locale:  language.German,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if _, err := billing.ParseChargeOnlyPolicy(string(a.policy)); err != nil {
		return nil, err
	}
	return a, nil
}

// ComputeMonthly returns one row per person with at least one order in the
// month, sorted by name. Orders for unknown persons abort the computation
// with an *billing.IntegrityError.
func (a *Aggregator) ComputeMonthly(ctx context.Context, year, month int) ([]billing.BillingRow, error) {
	start := time.Now()
	rows, err := a.compute(ctx, year, month)
	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, billing.ErrInvalidPeriod):
		result = metrics.ResultInvalid
	default:
		result = metrics.ResultError
		a.logger.Printf("billing compute failed: year=%d month=%d err=%v", year, month, err)
	}
	metrics.ObserveBillingCompute(result, time.Since(start))
	return rows, err
}

type personGroup struct {
	personID   int64
	quantity   int
	deliveries int
	firstDate  time.Time
	fromCharge bool
}

func (a *Aggregator) compute(ctx context.Context, year, month int) ([]billing.BillingRow, error) {
	period, err := billing.NewPeriod(year, month)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prices, err := a.prices.PricesFor(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("billing: load prices: %w", err)
	}
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	var (
		orders  []ordering.MealOrder
		charges []ordering.AdditionalCharge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = a.orders.ListBetween(gctx, period.Start(), period.End())
		if err != nil {
			return fmt.Errorf("billing: list orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		charges, err = a.charges.ListForMonth(gctx, period.Start())
		if err != nil {
			return fmt.Errorf("billing: list charges: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	chargeSums := make(map[int64]decimal.Decimal)
	var chargePersons []int64
	for _, charge := range charges {
		if !ordering.MonthKey(charge.Month).Equal(period.Start()) {
			continue
		}
		sum, seen := chargeSums[charge.PersonID]
		if !seen {
			chargePersons = append(chargePersons, charge.PersonID)
		}
		chargeSums[charge.PersonID] = sum.Add(charge.Amount())
	}

	index := make(map[int64]int)
	var groups []personGroup
	for _, order := range orders {
		if !period.Contains(order.Date) {
			continue
		}
		i, ok := index[order.PersonID]
		if !ok {
			i = len(groups)
			index[order.PersonID] = i
			groups = append(groups, personGroup{personID: order.PersonID, firstDate: order.Date})
		}
		groups[i].quantity += order.Quantity
		if order.Delivery {
			groups[i].deliveries++
		}
	}
	if a.policy == billing.ChargeOnlyInclude {
		for _, personID := range chargePersons {
			if _, ok := index[personID]; ok {
				continue
			}
			index[personID] = len(groups)
			groups = append(groups, personGroup{personID: personID, fromCharge: true})
		}
	}

	rows := make([]billing.BillingRow, 0, len(groups))
	if len(groups) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	}

	ids := make([]int64, 0, len(groups))
	for _, group := range groups {
		ids = append(ids, group.personID)
	}
	persons, err := a.persons.GetMany(ctx, ids)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("billing: load persons: %w", err)
	}

	for _, group := range groups {
		person, ok := persons[group.personID]
		if !ok {
			if group.fromCharge {
				return nil, &billing.IntegrityError{PersonID: group.personID, Source: "additional charge"}
			}
			return nil, &billing.IntegrityError{PersonID: group.personID, Source: "order", Date: group.firstDate}
		}
		rows = append(rows, billing.NewBillingRow(person, prices, group.quantity, group.deliveries, chargeSums[group.personID]))
	}

	collator := collate.New(a.locale, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := collator.CompareString(rows[i].Name, rows[j].Name); c != 0 {
			return c < 0
		}
		return rows[i].PersonID < rows[j].PersonID
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
