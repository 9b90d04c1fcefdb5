package ipam

import (
	"gorm.io/gorm"

	"go_ipam/internal/model"
)

// DeallocateIP soft-deletes an address: it stays in the table, excluded from
// reuse, until the garbage collector purges it after the retention window.
func (s *Service) DeallocateIP(ip *model.IpAddress) error {
	now := s.clock.Now()
	ip.MarkedForDeallocation = true
	ip.DeallocatedAt = &now
	return s.db.Model(&model.IpAddress{}).Where("id = ?", ip.ID).
		Updates(map[string]interface{}{
			"marked_for_deallocation": true,
			"deallocated_at":          now,
		}).Error
}

// RestoreIP cancels a pending deallocation. Only valid before the purge.
func (s *Service) RestoreIP(ip *model.IpAddress) error {
	ip.MarkedForDeallocation = false
	ip.DeallocatedAt = nil
	return s.db.Model(&model.IpAddress{}).Where("id = ?", ip.ID).
		Updates(map[string]interface{}{
			"marked_for_deallocation": false,
			"deallocated_at":          nil,
		}).Error
}

// PurgeDeallocatedIPs hard-deletes the block's addresses whose retention
// window has elapsed and clears the block's full flag if anything was purged.
func (s *Service) PurgeDeallocatedIPs(block *model.IpBlock) error {
	return s.purgeDeallocated(block.ID)
}

// PurgeAllDeallocatedIPs hard-deletes every expired deallocated address
// across all blocks.
func (s *Service) PurgeAllDeallocatedIPs() error {
	return s.purgeDeallocated("")
}

func (s *Service) purgeDeallocated(blockID string) error {
	cutoff := s.clock.Now().AddDate(0, 0, -s.opts.KeepDeallocatedIPsForDays)

	return s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("marked_for_deallocation = ? AND deallocated_at <= ?", true, cutoff)
		if blockID != "" {
			q = q.Where("ip_block_id = ?", blockID)
		}

		var expired []model.IpAddress
		if err := q.Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]string, 0, len(expired))
		blockIDs := map[string]bool{}
		for _, ip := range expired {
			ids = append(ids, ip.ID)
			blockIDs[ip.IPBlockID] = true
		}
		if err := tx.Where("id IN ?", ids).Delete(&model.IpAddress{}).Error; err != nil {
			return err
		}

		// A purge always clears the full flag; the next allocation attempt
		// re-evaluates fullness.
		blocks := make([]string, 0, len(blockIDs))
		for id := range blockIDs {
			blocks = append(blocks, id)
		}
		return tx.Model(&model.IpBlock{}).Where("id IN ?", blocks).
			Update("is_full", false).Error
	})
}
