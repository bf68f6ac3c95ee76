package services

import (
	"context"
	"errors"

	"research-verifier/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VerdictStore is the link-keyed cache of paper verdicts.
type VerdictStore interface {
	Lookup(ctx context.Context, link string) (*models.PaperVerdict, error)
	Upsert(ctx context.Context, v models.Verdict) error
}

// VerdictCache keeps one finished verdict per link in paper_verdicts.
// Links are matched byte for byte; no URL normalization happens.
type VerdictCache struct {
	DB *gorm.DB
}

func NewVerdictCache(db *gorm.DB) *VerdictCache {
	return &VerdictCache{DB: db}
}

// Lookup returns nil, nil on a miss. Empty links always miss.
func (c *VerdictCache) Lookup(ctx context.Context, link string) (*models.PaperVerdict, error) {
	if link == "" {
		return nil, nil
	}
	var row models.PaperVerdict
	err := c.DB.WithContext(ctx).Where("link = ?", link).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert stores v under its link, overwriting an existing row. Verdicts
// without a link are not cached.
func (c *VerdictCache) Upsert(ctx context.Context, v models.Verdict) error {
	if v.Link == "" {
		return nil
	}
	row := models.PaperVerdict{
		Link:               v.Link,
		Title:              v.Title,
		Authors:            v.ClaimedAuthors,
		Date:               v.ClaimedDate,
		VerificationResult: datatypes.NewJSONType(v.VerdictDetails),
	}
	return c.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "link"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "authors", "date", "verification_result", "updated_at"}),
	}).Create(&row).Error
}

// Count returns the number of cached verdicts.
func (c *VerdictCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.DB.WithContext(ctx).Model(&models.PaperVerdict{}).Count(&n).Error
	return n, err
}

// verdictFromCache rebuilds a verdict for paper position index from a
// cached row. The content fields come from the row, the summary from the
// current message.
func verdictFromCache(row *models.PaperVerdict, paper models.ClaimedPaper, index int) models.Verdict {
	return models.Verdict{
		PaperIndex:       index,
		Title:            row.Title,
		Link:             row.Link,
		ClaimedAuthors:   row.Authors,
		ClaimedDate:      row.Date,
		AssistantSummary: string(paper.Summary),
		VerdictDetails:   row.VerificationResult.Data(),
		Reused:           true,
	}
}
