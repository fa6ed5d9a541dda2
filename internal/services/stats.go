package services

import (
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/models"
	"gorm.io/gorm"
)

// bumpDailyStat increments today's download rollup for a project, creating
// the row on first download of the day.
func bumpDailyStat(tx *gorm.DB, projectID uint) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	res := tx.Model(&models.ProjectDailyStat{}).
		Where("project_id = ? AND date = ?", projectID, today).
		UpdateColumn("downloads", gorm.Expr("downloads + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return tx.Create(&models.ProjectDailyStat{
		ProjectID: projectID,
		Date:      today,
		Downloads: 1,
	}).Error
}
