package game

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The collection keeps the original singular name from the live database.
const monsterCollection = "monster"

// MongoMonsterRepo implements MonsterRepo on a MongoDB backend.
type MongoMonsterRepo struct {
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// NewMongoMonsterRepo ensures indexes and returns the repository.
func NewMongoMonsterRepo(db *mongo.Database) (*MongoMonsterRepo, error) {
	repo := &MongoMonsterRepo{
		collection: db.Collection(monsterCollection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoMonsterRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	idIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "monster_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("monsterid_unique"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, idIdx)
	return err
}

// GetByID implements MonsterRepo.
func (m *MongoMonsterRepo) GetByID(ctx context.Context, monsterID string) (*Monster, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var monster Monster
	err := m.collection.FindOne(ctx, bson.M{"monster_id": monsterID}).Decode(&monster)
	if err == mongo.ErrNoDocuments {
		return nil, ErrMonsterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &monster, nil
}

// Sample draws one document uniformly via the $sample aggregation stage.
func (m *MongoMonsterRepo) Sample(ctx context.Context) (*Monster, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	cursor, err := m.collection.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrCatalogEmpty
	}
	var monster Monster
	if err := cursor.Decode(&monster); err != nil {
		return nil, err
	}
	return &monster, nil
}

// Create inserts a new catalog entry.
func (m *MongoMonsterRepo) Create(ctx context.Context, monster *Monster) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.InsertOne(ctx, monster)
	if mongo.IsDuplicateKeyError(err) {
		return ErrMonsterExists
	}
	return err
}

// Update replaces name, attributes and location of an existing entry.
func (m *MongoMonsterRepo) Update(ctx context.Context, monster *Monster) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.UpdateOne(ctx,
		bson.M{"monster_id": monster.MonsterID},
		bson.M{"$set": bson.M{
			"name":       monster.Name,
			"attributes": monster.Attributes,
			"location":   monster.Location,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMonsterNotFound
	}
	return nil
}

// Delete removes a catalog entry.
func (m *MongoMonsterRepo) Delete(ctx context.Context, monsterID string) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"monster_id": monsterID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMonsterNotFound
	}
	return nil
}

// List returns the full catalog.
func (m *MongoMonsterRepo) List(ctx context.Context) ([]*Monster, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var monsters []*Monster
	for cursor.Next(ctx) {
		var monster Monster
		if err := cursor.Decode(&monster); err != nil {
			return nil, err
		}
		monsters = append(monsters, &monster)
	}
	return monsters, cursor.Err()
}
