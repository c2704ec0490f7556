package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const accountsCollection = "users"

// MongoAccountRepo implements AccountRepo on a MongoDB backend. The caller
// owns the client lifecycle; the repo only holds a collection handle.
type MongoAccountRepo struct {
	collection *mongo.Collection
	ctxTimeout time.Duration
}

// accountDoc is the stored document shape. Progression lives in a nested
// profile subdocument.
type accountDoc struct {
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Email        string    `bson:"email"`
	Role         string    `bson:"role"`
	RegisteredAt time.Time `bson:"registration_date"`
	Profile      struct {
		Level      int `bson:"level"`
		Experience int `bson:"experience"`
	} `bson:"profile"`
}

// NewMongoAccountRepo ensures indexes and returns the repository.
func NewMongoAccountRepo(db *mongo.Database) (*MongoAccountRepo, error) {
	repo := &MongoAccountRepo{
		collection: db.Collection(accountsCollection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoAccountRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	usernameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, usernameIdx)
	return err
}

// GetByUsername implements AccountRepo.
func (m *MongoAccountRepo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc accountDoc
	err := m.collection.FindOne(ctx, bson.M{"username": normalize(username)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return docToAccount(&doc), nil
}

// Create inserts a new account document.
func (m *MongoAccountRepo) Create(ctx context.Context, account *Account) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.InsertOne(ctx, bson.M{
		"username":          normalize(account.Username),
		"password_hash":     account.PasswordHash,
		"email":             account.Email,
		"role":              string(account.Role),
		"registration_date": account.RegisteredAt,
		"profile": bson.M{
			"level":      account.Level,
			"experience": account.Experience,
		},
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrUserExists
	}
	return err
}

// UpdateProgression applies the level/experience transition as a single
// conditional update. The filter carries the previous values so concurrent
// writers cannot silently overwrite each other.
func (m *MongoAccountRepo) UpdateProgression(ctx context.Context, username string, prevLevel, prevExp, newLevel, newExp int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.UpdateOne(ctx,
		bson.M{
			"username":           normalize(username),
			"profile.level":      prevLevel,
			"profile.experience": prevExp,
		},
		bson.M{"$set": bson.M{
			"profile.level":      newLevel,
			"profile.experience": newExp,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete removes the account document.
func (m *MongoAccountRepo) Delete(ctx context.Context, username string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.DeleteOne(ctx, bson.M{"username": normalize(username)})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// TopByProgression returns accounts ordered by level then experience, descending.
func (m *MongoAccountRepo) TopByProgression(ctx context.Context, limit int) ([]*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "profile.level", Value: -1}, {Key: "profile.experience", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []*Account
	for cursor.Next(ctx) {
		var doc accountDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		accounts = append(accounts, docToAccount(&doc))
	}
	return accounts, cursor.Err()
}

func docToAccount(doc *accountDoc) *Account {
	return &Account{
		Username:     doc.Username,
		PasswordHash: doc.PasswordHash,
		Email:        doc.Email,
		Role:         Role(doc.Role),
		Level:        doc.Profile.Level,
		Experience:   doc.Profile.Experience,
		RegisteredAt: doc.RegisteredAt,
	}
}

// Helper to normalise usernames.
func normalize(username string) string {
	return strings.ToLower(username)
}
