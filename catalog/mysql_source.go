package catalog

import (
	"context"
	"fmt"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Compile-time check to ensure MySQLSource implements CatalogSource
var _ interfaces.CatalogSource = (*MySQLSource)(nil)

// drugRow maps the `drugs` table
type drugRow struct {
	DrugID           string   `gorm:"column:drug_id"`
	TradeName        string   `gorm:"column:trade_name"`
	ActiveIngredient string   `gorm:"column:active_ingredient"`
	TherapeuticGroup *string  `gorm:"column:therapeutic_group"`
	AvgPrice         *float64 `gorm:"column:avg_price"`
	Form             *string  `gorm:"column:form"`
}

func (drugRow) TableName() string {
	return "drugs"
}

func (r drugRow) toEntry() entities.CatalogEntry {
	return entities.CatalogEntry{
		ID:               r.DrugID,
		TradeName:        r.TradeName,
		ActiveIngredient: r.ActiveIngredient,
		TherapeuticGroup: deref(r.TherapeuticGroup),
		Form:             deref(r.Form),
		AvgPrice:         r.AvgPrice,
	}
}

// cosmeticRow maps the `cosmetics` table
type cosmeticRow struct {
	ID          int      `gorm:"column:id"`
	Name        string   `gorm:"column:name"`
	Brand       *string  `gorm:"column:brand"`
	Category    *string  `gorm:"column:category"`
	Price       *float64 `gorm:"column:price"`
	SkinType    *string  `gorm:"column:skin_type"`
	Description *string  `gorm:"column:description"`
}

func (cosmeticRow) TableName() string {
	return "cosmetics"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r cosmeticRow) toCosmetic() entities.Cosmetic {
	return entities.Cosmetic{
		ID:          r.ID,
		Name:        r.Name,
		Brand:       deref(r.Brand),
		Category:    deref(r.Category),
		Price:       r.Price,
		SkinType:    deref(r.SkinType),
		Description: deref(r.Description),
	}
}

// MySQLSource reads the catalog from the `drugs` table and cosmetics from
// the `cosmetics` table
type MySQLSource struct {
	db         *gorm.DB
	maxEntries int
}

// NewMySQLSource opens a gorm connection for the given DSN
func NewMySQLSource(dsn string, maxEntries int) (*MySQLSource, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	return &MySQLSource{db: db, maxEntries: maxEntries}, nil
}

// Name implements interfaces.CatalogSource
func (s *MySQLSource) Name() string {
	return "mysql"
}

// List implements interfaces.CatalogSource
func (s *MySQLSource) List(ctx context.Context) ([]entities.CatalogEntry, error) {
	var rows []drugRow

	query := s.db.WithContext(ctx).
		Where("trade_name <> '' AND active_ingredient <> ''").
		Order("drug_id ASC")
	if s.maxEntries > 0 {
		query = query.Limit(s.maxEntries)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query drugs: %w", err)
	}

	entries := make([]entities.CatalogEntry, len(rows))
	for i, r := range rows {
		entries[i] = r.toEntry()
	}
	return entries, nil
}

// ListCosmetics implements interfaces.CosmeticsSource
func (s *MySQLSource) ListCosmetics(ctx context.Context) ([]entities.Cosmetic, error) {
	var rows []cosmeticRow
	if err := s.db.WithContext(ctx).Where("name <> ''").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query cosmetics: %w", err)
	}

	items := make([]entities.Cosmetic, len(rows))
	for i, r := range rows {
		items[i] = r.toCosmetic()
	}
	return items, nil
}

// Close releases the underlying connection pool
func (s *MySQLSource) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
