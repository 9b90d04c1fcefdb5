package ipam

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go_ipam/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection keeps the in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.IpBlock{},
		&model.IpAddress{},
		&model.Policy{},
		&model.IpRange{},
		&model.IpOctet{},
		&model.IpNat{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()
	return newTestServiceWithOptions(t, Options{
		DefaultCIDR: "10.10.10.0/24",
		DNS1:        "ns1.example.com",
		DNS2:        "ns2.example.com",
	})
}

func newTestServiceWithOptions(t *testing.T, opts Options) (*Service, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(newTestDB(t), opts, clock), clock
}

func mustCreateBlock(t *testing.T, s *Service, p BlockParams) *model.IpBlock {
	t.Helper()
	if p.Type == "" {
		p.Type = string(model.BlockTypePrivate)
	}
	block, err := s.CreateBlock(p)
	if err != nil {
		t.Fatalf("CreateBlock(%+v) error: %v", p, err)
	}
	return block
}

func mustAllocate(t *testing.T, s *Service, block *model.IpBlock, p AllocateParams) *model.IpAddress {
	t.Helper()
	ip, err := s.AllocateIP(block, p)
	if err != nil {
		t.Fatalf("AllocateIP error: %v", err)
	}
	return ip
}

func fieldErrors(t *testing.T, err error, field string) []string {
	t.Helper()
	verr, ok := err.(*InvalidModelError)
	if !ok {
		t.Fatalf("expected *InvalidModelError, got %T: %v", err, err)
	}
	return verr.Errors[field]
}

func assertFieldError(t *testing.T, err error, field, message string) {
	t.Helper()
	messages := fieldErrors(t, err, field)
	for _, m := range messages {
		if m == message {
			return
		}
	}
	t.Errorf("field %q errors = %v; want to include %q", field, messages, message)
}

// staticListGenerator yields a fixed list of addresses, for tests.
type staticListGenerator struct {
	ips []string
	pos int
}

func (g *staticListGenerator) NextIP() (string, bool) {
	if g.pos >= len(g.ips) {
		return "", false
	}
	ip := g.ips[g.pos]
	g.pos++
	return ip, true
}

func registerStaticGenerator(name string, ips []string) {
	RegisterIPv6Generator(name, func(cidr string, params map[string]string) (IPv6Generator, error) {
		return &staticListGenerator{ips: ips}, nil
	})
}
