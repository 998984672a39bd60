package databases

// go generate: mockery --name ProductDatabase

import (
	"context"

	"github.com/linesmerrill/marketplace-api/models"
	"go.mongodb.org/mongo-driver/mongo"
)

const productName = "products"

// ProductDatabase contains the methods to use with the product database
type ProductDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Product, error)
	InsertOne(ctx context.Context, product models.Product) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error)
}

type productDatabase struct {
	db DatabaseHelper
}

// NewProductDatabase initializes a new instance of product database with the provided db connection
func NewProductDatabase(db DatabaseHelper) ProductDatabase {
	return &productDatabase{
		db: db,
	}
}

func (p *productDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Product, error) {
	product := &models.Product{}
	err := p.db.Collection(productName).FindOne(ctx, filter).Decode(&product)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (p *productDatabase) InsertOne(ctx context.Context, product models.Product) error {
	_, err := p.db.Collection(productName).InsertOne(ctx, product)
	return err
}

func (p *productDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (*mongo.UpdateResult, error) {
	return p.db.Collection(productName).UpdateOne(ctx, filter, update)
}
