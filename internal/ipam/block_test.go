package ipam

import (
	"errors"
	"testing"
)

func TestCreateBlockStoresCanonicalCIDR(t *testing.T) {
	s, _ := newTestService(t)

	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.1/31"})

	if block.CIDR != "10.0.0.0/31" {
		t.Errorf("cidr = %q; want 10.0.0.0/31", block.CIDR)
	}
}

func TestCreateBlockRejectsInvalidCIDR(t *testing.T) {
	s, _ := newTestService(t)

	tests := []string{"10.1.1.1////", "10.1.0.0/33", ""}
	for _, cidr := range tests {
		_, err := s.CreateBlock(BlockParams{CIDR: cidr, Type: "private"})
		if err == nil {
			t.Fatalf("CreateBlock(%q) expected error, got nil", cidr)
		}
		assertFieldError(t, err, "cidr", "cidr is invalid")
	}
}

func TestCreateBlockValidatesType(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/29"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "type", "type should be one among private, public")
}

func TestCreateBlockValidatesTypeWithinNetwork(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29", Type: "private", NetworkID: "1"})

	_, err := s.CreateBlock(BlockParams{CIDR: "20.0.0.0/29", Type: "public", NetworkID: "1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "type", "type should be same within a network")
}

func TestCreateBlockPublicOverlapIsNetworkIndependent(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/8", Type: "public", NetworkID: "145"})

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/30", Type: "public", NetworkID: "11"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "cidr", "cidr overlaps with public block 10.0.0.0/8")
}

func TestCreateBlockTopLevelOverlapWithinNetwork(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29", NetworkID: "1"})
	mustCreateBlock(t, s, BlockParams{CIDR: "20.0.0.0/29", NetworkID: "1"})

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/31", Type: "private", NetworkID: "1"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "cidr", "cidr overlaps with block 10.0.0.0/29 in same network")
}

func TestCreateBlockOverlapAllowedAcrossNetworks(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29", NetworkID: "1"})

	if _, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/29", Type: "private", NetworkID: "2"}); err != nil {
		t.Errorf("overlap across networks should be allowed, got %v", err)
	}
}

func TestCreateBlockOverlapAllowedWithoutNetwork(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})

	if _, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/29", Type: "private"}); err != nil {
		t.Errorf("overlap without network should be allowed, got %v", err)
	}
}

func TestCreateBlockValidatesParentExistence(t *testing.T) {
	s, _ := newTestService(t)
	public := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28", Type: "public"})

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/29", Type: "private", ParentID: public.ID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "parent_id",
		"IpBlock with type = 'private', id = '"+public.ID+"' doesn't exist")
}

func TestCreateBlockValidatesCIDRWithinParent(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28"})

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.20/29", Type: "private", ParentID: parent.ID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "cidr", "cidr should be within parent block's cidr")
}

func TestCreateBlockSkipsSubnetChecksForInvalidCIDR(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28"})

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.20////29", Type: "private", ParentID: parent.ID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	messages := fieldErrors(t, err, "cidr")
	if len(messages) != 1 || messages[0] != "cidr is invalid" {
		t.Errorf("cidr errors = %v; want exactly [cidr is invalid]", messages)
	}
}

func TestCreateBlockValidatesNetworkMatchesParent(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28", NetworkID: "1"})

	_, err := s.CreateBlock(BlockParams{
		CIDR: "10.0.0.0/29", Type: "private", NetworkID: "2", ParentID: parent.ID,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "network_id", "network_id should be same as that of parent")
}

func TestCreateBlockValidatesTenantMatchesParent(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28", TenantID: "1"})

	_, err := s.CreateBlock(BlockParams{
		CIDR: "10.0.0.0/29", Type: "private", TenantID: "2", ParentID: parent.ID,
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "tenant_id", "tenant_id should be same as that of parent")
}

func TestSubnetOfParentWithoutTenantCanHaveTenant(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28"})

	subnet, err := s.CreateBlock(BlockParams{
		CIDR: "10.0.0.0/29", Type: "private", TenantID: "2", ParentID: parent.ID,
	})
	if err != nil {
		t.Fatalf("expected subnet to be valid, got %v", err)
	}
	if subnet.TenantID != "2" {
		t.Errorf("tenant_id = %q; want 2", subnet.TenantID)
	}
}

func TestSubnetFailsWhenParentHasAllocatedIPs(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})
	mustAllocate(t, s, parent, AllocateParams{})

	_, err := s.SubnetBlock(parent, "10.0.0.0/30", SubnetParams{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "parent_id", "parent is not subnettable since it has allocated ips")
}

func TestSubnetCIDRCannotOverlapSiblings(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})
	if _, err := s.SubnetBlock(parent, "10.0.0.0/30", SubnetParams{}); err != nil {
		t.Fatalf("subnet error: %v", err)
	}
	if _, err := s.SubnetBlock(parent, "10.0.0.4/30", SubnetParams{}); err != nil {
		t.Fatalf("subnet error: %v", err)
	}

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/31", Type: "private", ParentID: parent.ID})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "cidr", "cidr overlaps with sibling 10.0.0.0/30")
}

func TestSubnetInheritsParentFields(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28", NetworkID: "2", TenantID: "7"})

	subnet, err := s.SubnetBlock(parent, "10.0.0.0/29", SubnetParams{})
	if err != nil {
		t.Fatalf("SubnetBlock error: %v", err)
	}
	if subnet.NetworkID != "2" || subnet.TenantID != "7" || subnet.Type != parent.Type {
		t.Errorf("subnet did not inherit parent fields: %+v", subnet)
	}
	if subnet.ParentID != parent.ID {
		t.Errorf("parent_id = %q; want %q", subnet.ParentID, parent.ID)
	}
}

func TestSubnetOverrides(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28"})

	subnet, err := s.SubnetBlock(parent, "10.0.0.0/29", SubnetParams{NetworkID: "1", TenantID: "3"})
	if err != nil {
		t.Fatalf("SubnetBlock error: %v", err)
	}
	if subnet.NetworkID != "1" || subnet.TenantID != "3" {
		t.Errorf("subnet overrides not applied: %+v", subnet)
	}
}

func TestCreateBlockValidatesPolicyExistence(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateBlock(BlockParams{CIDR: "10.0.0.0/29", Type: "public", PolicyID: "non-existent-id"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assertFieldError(t, err, "policy_id", "Policy with id = 'non-existent-id' doesn't exist")
}

func TestCreateBlockDefaultsGatewayAndDNS(t *testing.T) {
	s, _ := newTestService(t)

	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/24"})

	if block.Gateway != "10.0.0.1" {
		t.Errorf("gateway = %q; want 10.0.0.1", block.Gateway)
	}
	if block.DNS1 != "ns1.example.com" || block.DNS2 != "ns2.example.com" {
		t.Errorf("dns = %q/%q; want configured defaults", block.DNS1, block.DNS2)
	}

	explicit := mustCreateBlock(t, s, BlockParams{CIDR: "20.0.0.0/24", Gateway: "20.0.0.10"})
	if explicit.Gateway != "20.0.0.10" {
		t.Errorf("gateway = %q; want 20.0.0.10", explicit.Gateway)
	}
}

func TestBlockDetails(t *testing.T) {
	s, _ := newTestService(t)
	v4 := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/24"})
	v6 := mustCreateBlock(t, s, BlockParams{CIDR: "fe::/64"})

	if v4.Broadcast() != "10.0.0.255" {
		t.Errorf("v4 broadcast = %q; want 10.0.0.255", v4.Broadcast())
	}
	if v4.Netmask() != "255.255.255.0" {
		t.Errorf("v4 netmask = %q; want 255.255.255.0", v4.Netmask())
	}
	if v6.Broadcast() != "fe::ffff:ffff:ffff:ffff" {
		t.Errorf("v6 broadcast = %q", v6.Broadcast())
	}
	if v6.Netmask() != "ffff:ffff:ffff:ffff::" {
		t.Errorf("v6 netmask = %q", v6.Netmask())
	}
	if !v6.IsIPv6() || v4.IsIPv6() {
		t.Error("IsIPv6 misreported")
	}
}

func TestFindBlock(t *testing.T) {
	s, _ := newTestService(t)
	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/8"})

	found, err := s.FindBlock(block.ID)
	if err != nil {
		t.Fatalf("FindBlock error: %v", err)
	}
	if found.CIDR != block.CIDR {
		t.Errorf("cidr = %q; want %q", found.CIDR, block.CIDR)
	}

	_, err = s.FindBlock("no-such-id")
	var notFound *ModelNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected ModelNotFoundError, got %v", err)
	}
}

func TestUpdateBlock(t *testing.T) {
	s, _ := newTestService(t)
	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29", Type: "public", NetworkID: "321"})

	networkID := "123"
	if err := s.UpdateBlock(block, UpdateBlockParams{NetworkID: &networkID}); err != nil {
		t.Fatalf("UpdateBlock error: %v", err)
	}

	found, err := s.FindBlock(block.ID)
	if err != nil {
		t.Fatalf("FindBlock error: %v", err)
	}
	if found.NetworkID != "123" {
		t.Errorf("network_id = %q; want 123", found.NetworkID)
	}
}

func TestSiblings(t *testing.T) {
	s, _ := newTestService(t)
	parent := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/28"})
	subnet1, _ := s.SubnetBlock(parent, "10.0.0.0/29", SubnetParams{})
	subnet2, _ := s.SubnetBlock(parent, "10.0.0.8/30", SubnetParams{})
	subnet3, _ := s.SubnetBlock(parent, "10.0.0.12/30", SubnetParams{})
	subnet11, _ := s.SubnetBlock(subnet1, "10.0.0.0/30", SubnetParams{})

	siblings, err := s.Siblings(subnet2)
	if err != nil {
		t.Fatalf("Siblings error: %v", err)
	}
	gotIDs := map[string]bool{}
	for _, sib := range siblings {
		gotIDs[sib.ID] = true
	}
	if len(siblings) != 2 || !gotIDs[subnet1.ID] || !gotIDs[subnet3.ID] {
		t.Errorf("siblings of subnet2 = %v; want subnet1, subnet3", gotIDs)
	}

	leafSiblings, err := s.Siblings(subnet11)
	if err != nil {
		t.Fatalf("Siblings error: %v", err)
	}
	if len(leafSiblings) != 0 {
		t.Errorf("siblings of only child = %d; want 0", len(leafSiblings))
	}

	rootSiblings, err := s.Siblings(parent)
	if err != nil {
		t.Fatalf("Siblings error: %v", err)
	}
	if len(rootSiblings) != 0 {
		t.Errorf("siblings of root = %d; want 0", len(rootSiblings))
	}
}

func TestNetworkedTopLevelBlocks(t *testing.T) {
	s, _ := newTestService(t)

	// block1 sits outside the network; its subnet joins network 1 and
	// therefore heads a subtree within it.
	block1 := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})
	subnet1, err := s.SubnetBlock(block1, "10.0.0.0/30", SubnetParams{NetworkID: "1"})
	if err != nil {
		t.Fatalf("SubnetBlock error: %v", err)
	}
	block2 := mustCreateBlock(t, s, BlockParams{CIDR: "20.0.0.0/29", NetworkID: "1"})
	block3 := mustCreateBlock(t, s, BlockParams{CIDR: "30.0.0.0/29", NetworkID: "1"})

	topLevel, err := s.NetworkedTopLevelBlocks(block3)
	if err != nil {
		t.Fatalf("NetworkedTopLevelBlocks error: %v", err)
	}
	gotIDs := map[string]bool{}
	for _, b := range topLevel {
		gotIDs[b.ID] = true
	}
	if len(topLevel) != 2 || !gotIDs[subnet1.ID] || !gotIDs[block2.ID] {
		t.Errorf("networked top level = %v; want subnet1, block2", gotIDs)
	}
}

func TestNetworkedTopLevelBlocksExcludesNestedSubnets(t *testing.T) {
	s, _ := newTestService(t)

	block1 := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29", NetworkID: "1"})
	if _, err := s.SubnetBlock(block1, "10.0.0.0/30", SubnetParams{}); err != nil {
		t.Fatalf("SubnetBlock error: %v", err)
	}
	block2 := mustCreateBlock(t, s, BlockParams{CIDR: "20.0.0.0/29", NetworkID: "1"})
	block3 := mustCreateBlock(t, s, BlockParams{CIDR: "30.0.0.0/29", NetworkID: "1"})

	topLevel, err := s.NetworkedTopLevelBlocks(block3)
	if err != nil {
		t.Fatalf("NetworkedTopLevelBlocks error: %v", err)
	}
	gotIDs := map[string]bool{}
	for _, b := range topLevel {
		gotIDs[b.ID] = true
	}
	if len(topLevel) != 2 || !gotIDs[block1.ID] || !gotIDs[block2.ID] {
		t.Errorf("networked top level = %v; want block1, block2", gotIDs)
	}
}

func TestNetworkedTopLevelBlocksEmptyWithoutNetwork(t *testing.T) {
	s, _ := newTestService(t)
	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})
	mustCreateBlock(t, s, BlockParams{CIDR: "20.0.0.0/29"})

	topLevel, err := s.NetworkedTopLevelBlocks(block)
	if err != nil {
		t.Fatalf("NetworkedTopLevelBlocks error: %v", err)
	}
	if len(topLevel) != 0 {
		t.Errorf("got %d blocks; want 0", len(topLevel))
	}
}

func TestDeleteBlockCascades(t *testing.T) {
	s, _ := newTestService(t)
	block := mustCreateBlock(t, s, BlockParams{CIDR: "10.0.0.0/29"})
	subnet1, _ := s.SubnetBlock(block, "10.0.0.0/30", SubnetParams{})
	subnet11, _ := s.SubnetBlock(subnet1, "10.0.0.0/31", SubnetParams{})
	subnet2, _ := s.SubnetBlock(block, "10.0.0.4/30", SubnetParams{})
	ip1 := mustAllocate(t, s, subnet11, AllocateParams{})
	ip2 := mustAllocate(t, s, subnet2, AllocateParams{})

	if err := s.DeleteBlock(block.ID); err != nil {
		t.Fatalf("DeleteBlock error: %v", err)
	}

	for _, id := range []string{block.ID, subnet1.ID, subnet11.ID, subnet2.ID} {
		if _, err := s.FindBlock(id); err == nil {
			t.Errorf("block %s should be deleted", id)
		}
	}
	for _, id := range []string{ip1.ID, ip2.ID} {
		if _, err := s.FindAddress(id); err == nil {
			t.Errorf("address %s should be deleted", id)
		}
	}
}

func TestListBlocksPagination(t *testing.T) {
	s, _ := newTestService(t)
	mustCreateBlock(t, s, BlockParams{CIDR: "10.1.0.0/28"})
	mustCreateBlock(t, s, BlockParams{CIDR: "10.2.0.0/28"})
	mustCreateBlock(t, s, BlockParams{CIDR: "10.3.0.0/28"})
	mustCreateBlock(t, s, BlockParams{CIDR: "10.4.0.0/28"})

	all, err := s.ListBlocks("", 0, "")
	if err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d blocks; want 4", len(all))
	}

	page, err := s.ListBlocks("", 2, all[1].ID)
	if err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d blocks; want 2", len(page))
	}
	if page[0].ID != all[2].ID || page[1].ID != all[3].ID {
		t.Errorf("pagination returned wrong page: %v %v", page[0].ID, page[1].ID)
	}
}
