package ipam

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go_ipam/internal/ipmath"
	"go_ipam/internal/model"
)

// AddInsideLocals links inside-local addresses to a global address. Existing
// edges are left alone, so the call is idempotent.
func (s *Service) AddInsideLocals(globalIP *model.IpAddress, locals []*model.IpAddress) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, local := range locals {
			nat := model.IpNat{
				InsideGlobalAddressID: globalIP.ID,
				InsideLocalAddressID:  local.ID,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&nat).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddInsideGlobals links inside-global addresses to a local address.
func (s *Service) AddInsideGlobals(localIP *model.IpAddress, globals []*model.IpAddress) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, global := range globals {
			nat := model.IpNat{
				InsideGlobalAddressID: global.ID,
				InsideLocalAddressID:  localIP.ID,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&nat).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// InsideLocals returns the local addresses linked to a global address,
// ordered by id, paginated by limit and an exclusive marker id.
func (s *Service) InsideLocals(globalIP *model.IpAddress, limit int, marker string) ([]model.IpAddress, error) {
	return s.natOppositeSide(
		"ip_nats.inside_local_address_id", "ip_nats.inside_global_address_id",
		globalIP.ID, limit, marker)
}

// InsideGlobals returns the global addresses linked to a local address,
// ordered by id, paginated by limit and an exclusive marker id.
func (s *Service) InsideGlobals(localIP *model.IpAddress, limit int, marker string) ([]model.IpAddress, error) {
	return s.natOppositeSide(
		"ip_nats.inside_global_address_id", "ip_nats.inside_local_address_id",
		localIP.ID, limit, marker)
}

func (s *Service) natOppositeSide(joinColumn, whereColumn, id string, limit int, marker string) ([]model.IpAddress, error) {
	q := s.db.Model(&model.IpAddress{}).
		Joins("JOIN ip_nats ON "+joinColumn+" = ip_addresses.id").
		Where(whereColumn+" = ?", id).
		Order("ip_addresses.id")
	if marker != "" {
		q = q.Where("ip_addresses.id > ?", marker)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.IpAddress
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RemoveInsideLocals removes the local edges of a global address. An empty
// address removes them all; otherwise only edges to that address go.
func (s *Service) RemoveInsideLocals(globalIP *model.IpAddress, address string) error {
	return s.removeNatEdges("inside_global_address_id", globalIP.ID, "inside_local_address_id", address)
}

// RemoveInsideGlobals removes the global edges of a local address. An empty
// address removes them all; otherwise only edges to that address go.
func (s *Service) RemoveInsideGlobals(localIP *model.IpAddress, address string) error {
	return s.removeNatEdges("inside_local_address_id", localIP.ID, "inside_global_address_id", address)
}

func (s *Service) removeNatEdges(ownColumn, ownID, oppositeColumn, address string) error {
	q := s.db.Where(ownColumn+" = ?", ownID)
	if address != "" {
		expanded, err := ipmath.Expand(address)
		if err != nil {
			return err
		}
		q = q.Where(oppositeColumn+" IN (?)",
			s.db.Model(&model.IpAddress{}).Select("id").Where("address = ?", expanded))
	}
	return q.Delete(&model.IpNat{}).Error
}
