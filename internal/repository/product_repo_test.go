package repository

import (
	"context"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cj_dropship_v1_202608/internal/model"
)

func setupProductDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// :memory: 数据库是连接级的，连接池必须锁定单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&model.Product{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// 冲突目标是部分唯一索引，首次插入和冲突更新两条路径都得能走通
func TestUpsertByCJProductID_InsertThenUpdate(t *testing.T) {
	repo := NewProductRepository(setupProductDB(t))
	ctx := context.Background()

	first := &model.Product{
		CJProductID:       "P001",
		CJSku:             "CJSKU-001",
		Name:              "Wireless Earbuds",
		Status:            model.ProductStatusDraft,
		RemotePriceAmount: 1250,
		PriceAmount:       1250,
	}
	if err := repo.UpsertByCJProductID(ctx, first); err != nil {
		t.Fatalf("首次插入失败: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("插入后应回填主键")
	}

	second := &model.Product{
		CJProductID:       "P001",
		CJSku:             "CJSKU-001",
		Name:              "Wireless Earbuds Pro",
		Status:            model.ProductStatusDraft,
		RemotePriceAmount: 1300,
		PriceAmount:       1300,
	}
	if err := repo.UpsertByCJProductID(ctx, second); err != nil {
		t.Fatalf("冲突更新失败: %v", err)
	}

	var count int64
	repo.(*productRepository).db.Model(&model.Product{}).Count(&count)
	if count != 1 {
		t.Fatalf("同一个 pid 应只有一行，实际 %d 行", count)
	}
	saved, err := repo.GetByCJProductID(ctx, "P001")
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if saved.Name != "Wireless Earbuds Pro" || saved.RemotePriceAmount != 1300 {
		t.Errorf("冲突路径应更新字段: name=%s remote=%d", saved.Name, saved.RemotePriceAmount)
	}
}

func TestUpsertByCJProductID_Concurrent(t *testing.T) {
	repo := NewProductRepository(setupProductDB(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := &model.Product{
				CJProductID: "P002",
				Name:        "Phone Case",
				Status:      model.ProductStatusDraft,
			}
			if err := repo.UpsertByCJProductID(context.Background(), p); err != nil {
				t.Errorf("并发 upsert 失败: %v", err)
			}
		}()
	}
	wg.Wait()

	var count int64
	repo.(*productRepository).db.Model(&model.Product{}).Count(&count)
	if count != 1 {
		t.Fatalf("并发写同一个 pid 应只有一行，实际 %d 行", count)
	}
}
