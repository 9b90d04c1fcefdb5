package ipam

import (
	"testing"

	"go_ipam/internal/model"
)

func natFixture(t *testing.T, s *Service) (*model.IpAddress, []*model.IpAddress) {
	t.Helper()
	globalBlock := mustCreateBlock(t, s, BlockParams{CIDR: "77.1.1.0/24", Type: "public"})
	localBlock := mustCreateBlock(t, s, BlockParams{CIDR: "10.1.1.0/24"})
	globalIP := mustAllocate(t, s, globalBlock, AllocateParams{})
	locals := []*model.IpAddress{
		mustAllocate(t, s, localBlock, AllocateParams{}),
		mustAllocate(t, s, localBlock, AllocateParams{}),
		mustAllocate(t, s, localBlock, AllocateParams{}),
	}
	return globalIP, locals
}

func TestAddInsideLocals(t *testing.T) {
	s, _ := newTestService(t)
	globalIP, locals := natFixture(t, s)

	if err := s.AddInsideLocals(globalIP, locals); err != nil {
		t.Fatalf("AddInsideLocals error: %v", err)
	}

	rows, err := s.InsideLocals(globalIP, 0, "")
	if err != nil {
		t.Fatalf("InsideLocals error: %v", err)
	}
	if len(rows) != len(locals) {
		t.Fatalf("inside locals = %d; want %d", len(rows), len(locals))
	}

	// Each local sees the global from the other direction.
	globals, err := s.InsideGlobals(locals[0], 0, "")
	if err != nil {
		t.Fatalf("InsideGlobals error: %v", err)
	}
	if len(globals) != 1 || globals[0].ID != globalIP.ID {
		t.Errorf("inside globals = %+v; want just the global address", globals)
	}
}

func TestAddInsideLocalsIsIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	globalIP, locals := natFixture(t, s)

	if err := s.AddInsideLocals(globalIP, locals); err != nil {
		t.Fatalf("AddInsideLocals error: %v", err)
	}
	if err := s.AddInsideLocals(globalIP, locals[:1]); err != nil {
		t.Fatalf("repeated AddInsideLocals error: %v", err)
	}

	var count int64
	if err := s.db.Model(&model.IpNat{}).Count(&count).Error; err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != int64(len(locals)) {
		t.Errorf("nat edges = %d; want %d", count, len(locals))
	}
}

func TestAddInsideGlobals(t *testing.T) {
	s, _ := newTestService(t)
	globalBlock := mustCreateBlock(t, s, BlockParams{CIDR: "77.1.1.0/24", Type: "public"})
	localBlock := mustCreateBlock(t, s, BlockParams{CIDR: "10.1.1.0/24"})
	localIP := mustAllocate(t, s, localBlock, AllocateParams{})
	globals := []*model.IpAddress{
		mustAllocate(t, s, globalBlock, AllocateParams{}),
		mustAllocate(t, s, globalBlock, AllocateParams{}),
	}

	if err := s.AddInsideGlobals(localIP, globals); err != nil {
		t.Fatalf("AddInsideGlobals error: %v", err)
	}
	rows, err := s.InsideGlobals(localIP, 0, "")
	if err != nil {
		t.Fatalf("InsideGlobals error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("inside globals = %d; want 2", len(rows))
	}
}

func TestInsideLocalsPagination(t *testing.T) {
	s, _ := newTestService(t)
	globalIP, locals := natFixture(t, s)
	if err := s.AddInsideLocals(globalIP, locals); err != nil {
		t.Fatalf("AddInsideLocals error: %v", err)
	}

	page, err := s.InsideLocals(globalIP, 2, "")
	if err != nil {
		t.Fatalf("InsideLocals error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("first page = %d rows; want 2", len(page))
	}

	rest, err := s.InsideLocals(globalIP, 2, page[1].ID)
	if err != nil {
		t.Fatalf("InsideLocals error: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("second page = %d rows; want 1", len(rest))
	}
	if rest[0].ID == page[0].ID || rest[0].ID == page[1].ID {
		t.Error("marker pagination should not repeat rows")
	}
}

func TestRemoveInsideLocalsByAddress(t *testing.T) {
	s, _ := newTestService(t)
	globalIP, locals := natFixture(t, s)
	if err := s.AddInsideLocals(globalIP, locals); err != nil {
		t.Fatalf("AddInsideLocals error: %v", err)
	}

	if err := s.RemoveInsideLocals(globalIP, locals[0].Address); err != nil {
		t.Fatalf("RemoveInsideLocals error: %v", err)
	}
	rows, _ := s.InsideLocals(globalIP, 0, "")
	if len(rows) != 2 {
		t.Fatalf("inside locals = %d; want 2 after targeted removal", len(rows))
	}
	for _, row := range rows {
		if row.ID == locals[0].ID {
			t.Error("removed local should be gone")
		}
	}

	if err := s.RemoveInsideLocals(globalIP, ""); err != nil {
		t.Fatalf("RemoveInsideLocals error: %v", err)
	}
	rows, _ = s.InsideLocals(globalIP, 0, "")
	if len(rows) != 0 {
		t.Errorf("inside locals = %d; want 0 after removing all", len(rows))
	}
}

func TestRemoveInsideGlobals(t *testing.T) {
	s, _ := newTestService(t)
	globalBlock := mustCreateBlock(t, s, BlockParams{CIDR: "77.1.1.0/24", Type: "public"})
	localBlock := mustCreateBlock(t, s, BlockParams{CIDR: "10.1.1.0/24"})
	localIP := mustAllocate(t, s, localBlock, AllocateParams{})
	global1 := mustAllocate(t, s, globalBlock, AllocateParams{})
	global2 := mustAllocate(t, s, globalBlock, AllocateParams{})
	if err := s.AddInsideGlobals(localIP, []*model.IpAddress{global1, global2}); err != nil {
		t.Fatalf("AddInsideGlobals error: %v", err)
	}

	if err := s.RemoveInsideGlobals(localIP, global1.Address); err != nil {
		t.Fatalf("RemoveInsideGlobals error: %v", err)
	}
	rows, _ := s.InsideGlobals(localIP, 0, "")
	if len(rows) != 1 || rows[0].ID != global2.ID {
		t.Errorf("inside globals = %+v; want only the second global", rows)
	}
}
