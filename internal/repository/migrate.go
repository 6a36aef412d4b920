package repository

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/user/tastekid/migrations"
)

// RunMigrations 应用内嵌的 goose 迁移
func RunMigrations(db *sql.DB) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("设置 goose 方言失败: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	return nil
}
