package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/cache"
	"github.com/subhadeepds/microservices-project/internal/models"
)

// ProductStore is what the product handlers need from persistence.
type ProductStore interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, req models.ProductRequest) (*models.Product, error)
	Update(ctx context.Context, id int64, req models.ProductRequest) (*models.Product, error)
	AdjustStock(ctx context.Context, id int64, change int) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// CachedProductRepository is a read-through Redis cache in front of a
// ProductStore. Every write invalidates the touched keys.
type CachedProductRepository struct {
	repo  ProductStore
	cache *cache.RedisCache
	log   *zap.Logger
}

func NewCachedProductRepository(repo ProductStore, cache *cache.RedisCache, log *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

const allProductsKey = "products:all"

func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.cache.Get(ctx, allProductsKey, &products)
	if err == nil {
		r.log.Debug("📦 Cache HIT: all products")
		return products, nil
	}
	r.logMiss(err, allProductsKey)

	products, err = r.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, allProductsKey, products); err != nil {
		r.log.Warn("⚠️ Failed to cache products", zap.Error(err))
	}
	return products, nil
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	key := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, key, &product)
	if err == nil {
		r.log.Debug("📦 Cache HIT", zap.Int64("product_id", id))
		return &product, nil
	}
	r.logMiss(err, key)

	p, err := r.repo.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	if err := r.cache.Set(ctx, key, p); err != nil {
		r.log.Warn("⚠️ Failed to cache product", zap.Int64("product_id", id), zap.Error(err))
	}
	return p, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	product, err := r.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, product.ID)
	return product, nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id int64, req models.ProductRequest) (*models.Product, error) {
	product, err := r.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return product, nil
}

func (r *CachedProductRepository) AdjustStock(ctx context.Context, id int64, change int) (*models.Product, error) {
	product, err := r.repo.AdjustStock(ctx, id, change)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return product, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id int64) {
	if err := r.cache.Delete(ctx, productKey(id), allProductsKey); err != nil {
		r.log.Warn("⚠️ Failed to invalidate cache", zap.Int64("product_id", id), zap.Error(err))
		return
	}
	r.log.Debug("🗑️ Cache invalidated", zap.Int64("product_id", id))
}

func (r *CachedProductRepository) logMiss(err error, key string) {
	if !errors.Is(err, redis.Nil) {
		r.log.Warn("⚠️ Cache error", zap.String("key", key), zap.Error(err))
		return
	}
	r.log.Debug("💾 Cache MISS", zap.String("key", key))
}
