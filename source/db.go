package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/to404hanga/online_judge_compiler/model"
	"gorm.io/gorm"
)

// Compiler is one row of the compiler table.
type Compiler struct {
	ID             uint64 `gorm:"primaryKey"`
	CompilerID     string `gorm:"column:compiler_id;size:128;uniqueIndex:idx_lang_compiler"`
	Lang           string `gorm:"size:64;uniqueIndex:idx_lang_compiler"`
	Name           string
	Exe            string
	Type           string `gorm:"size:64"`
	Remote         string
	Image          string
	Options        string
	DefaultFilters string // 逗号分隔
	Extension      string `gorm:"size:16"`
	Enabled        bool
	SortOrder      int
}

func (c Compiler) Config() model.CompilerConfig {
	var filters []string
	for _, f := range strings.Split(c.DefaultFilters, ",") {
		if f = strings.TrimSpace(f); f != "" {
			filters = append(filters, f)
		}
	}
	return model.CompilerConfig{
		ID:             c.CompilerID,
		Lang:           c.Lang,
		Name:           c.Name,
		Exe:            c.Exe,
		Type:           c.Type,
		Remote:         c.Remote,
		Image:          c.Image,
		Options:        c.Options,
		DefaultFilters: filters,
		Extension:      c.Extension,
	}
}

// DBSource reads enabled compilers from the compiler table.
type DBSource struct {
	db *gorm.DB
}

func NewDBSource(db *gorm.DB) *DBSource {
	return &DBSource{db: db}
}

func (s *DBSource) Load(ctx context.Context) ([]model.CompilerConfig, error) {
	var rows []Compiler
	err := s.db.WithContext(ctx).Model(&Compiler{}).
		Where("enabled = ?", true).
		Order("sort_order").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load compilers: %w", err)
	}
	cfgs := make([]model.CompilerConfig, 0, len(rows))
	for _, row := range rows {
		cfgs = append(cfgs, row.Config())
	}
	return cfgs, nil
}
