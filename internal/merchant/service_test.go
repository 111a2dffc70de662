package merchant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/paisaback/paisaback/internal/geo"
)

var origin = geo.Point{Lat: 12.9716, Lng: 77.5946}

// offsetPoint shifts a point north by roughly the given number of meters.
func offsetPoint(p geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: p.Lat + meters/111_320, Lng: p.Lng}
}

func seedMerchant(t *testing.T, repo Repository, name, contact, district string, loc geo.Point) Merchant {
	t.Helper()
	m := Merchant{
		ID:            uuid.NewString(),
		BusinessName:  name,
		ContactPerson: contact,
		Mobile:        "98765" + uuid.NewString()[:5],
		District:      district,
		State:         "Karnataka",
		Location:      loc,
		Status:        StatusActive,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("seed merchant: %v", err)
	}
	return m
}

func TestNearbySortedAscending(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	seedMerchant(t, repo, "Chai Point", "Ravi", "Indiranagar", offsetPoint(origin, 1800))
	seedMerchant(t, repo, "Dosa Corner", "Lakshmi", "Jayanagar", offsetPoint(origin, 300))
	seedMerchant(t, repo, "Book Nook", "Arjun", "Koramangala", offsetPoint(origin, 900))

	got, err := svc.Nearby(context.Background(), NearbyQuery{Origin: origin, RadiusMeters: 2000})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 merchants, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Fatalf("results not sorted ascending: %v then %v", got[i-1].DistanceKm, got[i].DistanceKm)
		}
	}
	if got[0].BusinessName != "Dosa Corner" {
		t.Fatalf("closest merchant = %q", got[0].BusinessName)
	}
}

func TestNearbyRadiusMonotonicity(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	for _, meters := range []float64{200, 700, 1500, 4000, 8000, 20000, 60000} {
		seedMerchant(t, repo, "Shop", "Owner", "District", offsetPoint(origin, meters))
	}

	ctx := context.Background()
	var prev map[string]bool
	for _, radius := range geo.RadiusBands {
		got, err := svc.Nearby(ctx, NearbyQuery{Origin: origin, RadiusMeters: radius})
		if err != nil {
			t.Fatalf("nearby radius %d: %v", radius, err)
		}
		ids := make(map[string]bool, len(got))
		for _, nm := range got {
			ids[nm.ID] = true
		}
		for id := range prev {
			if !ids[id] {
				t.Fatalf("radius %d lost merchant %s present at smaller radius", radius, id)
			}
		}
		prev = ids
	}
}

func TestNearbyRadiusRefilter(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	seedMerchant(t, repo, "Near", "A", "D", offsetPoint(origin, 400))
	seedMerchant(t, repo, "Far", "B", "D", offsetPoint(origin, 5200))

	got, err := svc.Nearby(context.Background(), NearbyQuery{Origin: origin, RadiusMeters: 500})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 1 || got[0].BusinessName != "Near" {
		t.Fatalf("expected only the near merchant, got %+v", got)
	}
	if got[0].DistanceKm*1000 > 500 {
		t.Fatalf("merchant beyond radius returned: %.3f km", got[0].DistanceKm)
	}
}

func TestNearbySearchFilter(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	seedMerchant(t, repo, "Chai Point", "Ravi Kumar", "Indiranagar", offsetPoint(origin, 100))
	seedMerchant(t, repo, "Dosa Corner", "Lakshmi", "Jayanagar", offsetPoint(origin, 200))

	ctx := context.Background()

	byName, err := svc.Nearby(ctx, NearbyQuery{Origin: origin, RadiusMeters: 1000, Search: "chai"})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(byName) != 1 || byName[0].BusinessName != "Chai Point" {
		t.Fatalf("search by name: %+v", byName)
	}

	byDistrict, err := svc.Nearby(ctx, NearbyQuery{Origin: origin, RadiusMeters: 1000, Search: "JAYA"})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(byDistrict) != 1 || byDistrict[0].BusinessName != "Dosa Corner" {
		t.Fatalf("search by district: %+v", byDistrict)
	}

	none, err := svc.Nearby(ctx, NearbyQuery{Origin: origin, RadiusMeters: 1000, Search: "pizza"})
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no matches, got %+v", none)
	}
}

func TestNearbyIdempotentQueries(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	seedMerchant(t, repo, "Chai Point", "Ravi", "Indiranagar", offsetPoint(origin, 100))
	seedMerchant(t, repo, "Dosa Corner", "Lakshmi", "Jayanagar", offsetPoint(origin, 200))

	ctx := context.Background()
	q := NearbyQuery{Origin: origin, RadiusMeters: 1000}

	first, err := svc.Nearby(ctx, q)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	second, err := svc.Nearby(ctx, q)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("result order differs at %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestNearbyRejectsBadInput(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Nearby(ctx, NearbyQuery{Origin: geo.Point{Lat: 91, Lng: 0}, RadiusMeters: 500}); err != geo.ErrInvalidPoint {
		t.Fatalf("expected ErrInvalidPoint, got %v", err)
	}
	if _, err := svc.Nearby(ctx, NearbyQuery{Origin: origin, RadiusMeters: 750}); err != geo.ErrInvalidRadius {
		t.Fatalf("expected ErrInvalidRadius, got %v", err)
	}
}

func TestNearbyExcludesSuspended(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	m := seedMerchant(t, repo, "Closed Shop", "X", "D", offsetPoint(origin, 100))
	m.Status = StatusSuspended
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	got, err := svc.Nearby(context.Background(), NearbyQuery{Origin: origin, RadiusMeters: 500})
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("suspended merchant surfaced: %+v", got)
	}
}
