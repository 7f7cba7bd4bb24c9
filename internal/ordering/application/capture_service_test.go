package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kitchen-billing/internal/billing/infrastructure/memory"
	masterdata "kitchen-billing/internal/masterdata/domain"
	ordering "kitchen-billing/internal/ordering/domain"
)

func seedPerson(t *testing.T, store *memory.Store, person masterdata.Person) masterdata.Person {
	t.Helper()
	if err := store.Persons().Create(context.Background(), &person); err != nil {
		t.Fatalf("seed person: %v", err)
	}
	return person
}

func TestCaptureService_SheetPrefillsDefaults(t *testing.T) {
	store := memory.NewStore()
	anna := seedPerson(t, store, masterdata.Person{Name: "Anna", Category: masterdata.CategoryPensioner, DefaultDelivery: true})
	bernd := seedPerson(t, store, masterdata.Person{Name: "Bernd", Category: masterdata.CategoryPensioner, DefaultMealQuantity: 2})
	kiga := seedPerson(t, store, masterdata.Person{Name: "Kiga", Category: masterdata.CategoryChildGroup, DefaultMealQuantity: 15, DefaultDelivery: true})

	svc, err := NewCaptureService(store.Persons(), store.Orders(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sheet, err := svc.Sheet(context.Background(), time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("sheet: %v", err)
	}
	if len(sheet) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(sheet))
	}
	byID := map[int64]SheetEntry{}
	for _, entry := range sheet {
		byID[entry.PersonID] = entry
	}
	if e := byID[anna.ID]; e.Quantity != 1 || !e.Delivery || e.Saved {
		t.Fatalf("unexpected anna prefill: %+v", e)
	}
	if e := byID[bernd.ID]; e.Quantity != 2 || e.Delivery {
		t.Fatalf("unexpected bernd prefill: %+v", e)
	}
	if e := byID[kiga.ID]; e.Quantity != 0 || !e.Delivery {
		t.Fatalf("unexpected child group prefill: %+v", e)
	}
}

func TestCaptureService_SaveThenSheetShowsSaved(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	anna := seedPerson(t, store, masterdata.Person{Name: "Anna", Category: masterdata.CategoryPensioner, DefaultDelivery: true})
	svc, err := NewCaptureService(store.Persons(), store.Orders(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	date := time.Date(2026, 1, 12, 11, 0, 0, 0, time.UTC)
	if err := svc.Save(ctx, date, []CaptureEntry{{PersonID: anna.ID, Quantity: 0, Delivery: false}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	sheet, err := svc.Sheet(ctx, date)
	if err != nil {
		t.Fatalf("sheet: %v", err)
	}
	if len(sheet) != 1 || !sheet[0].Saved || sheet[0].Quantity != 0 || sheet[0].Delivery {
		t.Fatalf("expected saved zero entry, got %+v", sheet)
	}
}

func TestCaptureService_SaveRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	anna := seedPerson(t, store, masterdata.Person{Name: "Anna", Category: masterdata.CategoryPensioner})
	svc, err := NewCaptureService(store.Persons(), store.Orders(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	date := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	if err := svc.Save(ctx, date, []CaptureEntry{{PersonID: anna.ID, Quantity: -1}}); !errors.Is(err, ordering.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
	if err := svc.Save(ctx, date, []CaptureEntry{{PersonID: anna.ID + 100, Quantity: 1}}); !errors.Is(err, ordering.ErrUnknownPerson) {
		t.Fatalf("expected ErrUnknownPerson, got %v", err)
	}
	if err := svc.Save(ctx, time.Time{}, []CaptureEntry{{PersonID: anna.ID, Quantity: 1}}); !errors.Is(err, ordering.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	orders, _ := store.Orders().ListForDate(ctx, date)
	if len(orders) != 0 {
		t.Fatalf("expected nothing stored, got %+v", orders)
	}
}

func TestNewCaptureServiceRequiresDependencies(t *testing.T) {
	store := memory.NewStore()
	if _, err := NewCaptureService(nil, store.Orders(), nil); err == nil {
		t.Fatalf("expected error for nil persons")
	}
	if _, err := NewCaptureService(store.Persons(), nil, nil); err == nil {
		t.Fatalf("expected error for nil orders")
	}
}

func TestChargeService_CreateNormalizesMonth(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	anna := seedPerson(t, store, masterdata.Person{Name: "Anna", Category: masterdata.CategoryPensioner})
	svc, err := NewChargeService(store.Persons(), store.Charges())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(ctx, ordering.AdditionalCharge{
		PersonID:    anna.ID,
		Month:       time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC),
		Description: "Etagenträger",
		UnitPrice:   decimal.RequireFromString("15.00"),
		Quantity:    1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || created.Month.Day() != 1 {
		t.Fatalf("unexpected charge: %+v", created)
	}

	list, err := svc.ListForMonth(ctx, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	if _, err := svc.Create(ctx, ordering.AdditionalCharge{PersonID: 999, Month: created.Month, Description: "x", Quantity: 1}); !errors.Is(err, ordering.ErrUnknownPerson) {
		t.Fatalf("expected ErrUnknownPerson, got %v", err)
	}
	if _, err := svc.Get(ctx, 12345); !errors.Is(err, ordering.ErrChargeNotFound) {
		t.Fatalf("expected ErrChargeNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestChargeService_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	anna := seedPerson(t, store, masterdata.Person{Name: "Anna", Category: masterdata.CategoryPensioner})
	svc, err := NewChargeService(store.Persons(), store.Charges())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Update(ctx, ordering.AdditionalCharge{
		ID:          77,
		PersonID:    anna.ID,
		Month:       time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Description: "Thermobox",
		UnitPrice:   decimal.NewFromInt(4),
		Quantity:    1,
	})
	if !errors.Is(err, ordering.ErrChargeNotFound) {
		t.Fatalf("expected ErrChargeNotFound, got %v", err)
	}
}
