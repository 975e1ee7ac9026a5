package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/wuwenbin0122/lingolink/internal/models"
	"github.com/wuwenbin0122/lingolink/internal/utils"
)

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
	Users    *mongo.Collection
}

func NewMongo(ctx context.Context, cfg utils.MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo: uri is required")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutOrDefault(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Mongo{
		Client:   client,
		Database: db,
		Users:    db.Collection("users"),
	}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return m.Client.Disconnect(ctx)
}

// EnsureCollections creates the unique email index the user store relies on.
func (m *Mongo) EnsureCollections(ctx context.Context) error {
	if m == nil || m.Database == nil {
		return fmt.Errorf("mongo: database not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo: ensure user email index: %w", err)
	}

	return nil
}

type userDocument struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	FullName         string               `bson:"fullName"`
	Email            string               `bson:"email"`
	Password         string               `bson:"password"`
	Bio              string               `bson:"bio"`
	ProfilePicture   string               `bson:"profilePicture"`
	NativeLanguage   string               `bson:"nativeLanguage"`
	LearningLanguage string               `bson:"learningLanguage"`
	Location         string               `bson:"location"`
	IsOnboarded      bool                 `bson:"isOnboarded"`
	Friends          []primitive.ObjectID `bson:"friends"`
	CreatedAt        time.Time            `bson:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt"`
}

func (d userDocument) toModel() *models.User {
	friends := make([]string, 0, len(d.Friends))
	for _, id := range d.Friends {
		friends = append(friends, id.Hex())
	}

	return &models.User{
		ID:               d.ID.Hex(),
		FullName:         d.FullName,
		Email:            d.Email,
		PasswordHash:     d.Password,
		Bio:              d.Bio,
		ProfilePicture:   d.ProfilePicture,
		NativeLanguage:   d.NativeLanguage,
		LearningLanguage: d.LearningLanguage,
		Location:         d.Location,
		IsOnboarded:      d.IsOnboarded,
		Friends:          friends,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// MongoUsers stores users in a mongo collection with a unique email index.
type MongoUsers struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoUsers(coll *mongo.Collection) *MongoUsers {
	return &MongoUsers{coll: coll, now: utcNow}
}

func (s *MongoUsers) Create(ctx context.Context, user *models.User) error {
	now := s.now()
	doc := userDocument{
		ID:               primitive.NewObjectID(),
		FullName:         user.FullName,
		Email:            models.NormalizeEmail(user.Email),
		Password:         user.PasswordHash,
		Bio:              user.Bio,
		ProfilePicture:   user.ProfilePicture,
		NativeLanguage:   user.NativeLanguage,
		LearningLanguage: user.LearningLanguage,
		Location:         user.Location,
		IsOnboarded:      user.IsOnboarded,
		Friends:          []primitive.ObjectID{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo: insert user: %w", err)
	}

	*user = *doc.toModel()
	return nil
}

func (s *MongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (s *MongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUsers) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{
		"isOnboarded": true,
		"updatedAt":   s.now(),
	}
	for key, value := range update.Values() {
		set[key] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo: update user profile: %w", err)
	}

	return doc.toModel(), nil
}

func (s *MongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo: find user: %w", err)
	}
	return doc.toModel(), nil
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return 10 * time.Second
}

func utcNow() time.Time {
	// mongo stores milliseconds; truncating keeps returned and stored values equal.
	return time.Now().UTC().Truncate(time.Millisecond)
}
