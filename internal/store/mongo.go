package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is grounded on _examples/annel0-mmo-game's use of
// go.mongodb.org/mongo-driver against a matching set of collection names
// (users/ustats/logins/client_hashes/channels/logs/maps/ratings, per
// spec §6).
type MongoStore struct {
	db *mongo.Database
}

// Connect dials dsn and returns a MongoStore bound to database dbName.
func Connect(ctx context.Context, dsn, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &MongoStore{db: client.Database(dbName)}, nil
}

func (s *MongoStore) FindUserByName(ctx context.Context, safeName string) (UserRecord, bool, error) {
	var rec UserRecord
	err := s.db.Collection("users").FindOne(ctx, bson.M{"safe_name": safeName}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	return rec, true, nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id int32) (UserRecord, bool, error) {
	var rec UserRecord
	err := s.db.Collection("users").FindOne(ctx, bson.M{"id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	return rec, true, nil
}

func (s *MongoStore) InsertLogin(ctx context.Context, userID int32, ip string, ok bool) error {
	_, err := s.db.Collection("logins").InsertOne(ctx, bson.M{
		"user_id": userID,
		"ip":      ip,
		"ok":      ok,
		"at":      time.Now(),
	})
	return err
}

func (s *MongoStore) FindStats(ctx context.Context, userID int32, mode int32) (StatsRecord, error) {
	var rec StatsRecord
	err := s.db.Collection("ustats").FindOne(ctx, bson.M{"user_id": userID, "mode": mode}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return StatsRecord{UserID: userID, Mode: mode}, nil
	}
	return rec, err
}

func (s *MongoStore) SaveClientHashes(ctx context.Context, rec ClientHashesRecord) error {
	_, err := s.db.Collection("client_hashes").UpdateOne(ctx,
		bson.M{"user_id": rec.UserID},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) FindCollidingHashes(ctx context.Context, rec ClientHashesRecord) ([]int32, error) {
	filter := bson.M{
		"user_id": bson.M{"$ne": rec.UserID},
	}
	if rec.Wine {
		filter["uninstall_md5"] = rec.UninstallMD5
	} else {
		filter["adapters_md5"] = rec.AdaptersMD5
		filter["uninstall_md5"] = rec.UninstallMD5
		filter["disk_md5"] = rec.DiskMD5
	}
	cur, err := s.db.Collection("client_hashes").Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []int32
	for cur.Next(ctx) {
		var doc ClientHashesRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.UserID)
	}
	return ids, cur.Err()
}

func (s *MongoStore) SetPrivileges(ctx context.Context, userID int32, privileges uint32) error {
	_, err := s.db.Collection("users").UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"privileges": privileges}},
	)
	return err
}

func (s *MongoStore) SetSilence(ctx context.Context, userID int32, until time.Time) error {
	_, err := s.db.Collection("users").UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$set": bson.M{"silence_end": until}},
	)
	return err
}

func (s *MongoStore) FindRelationships(ctx context.Context, userID int32) (friends, blocked []int32, err error) {
	var doc struct {
		Friends []int32 `bson:"friends"`
		Blocked []int32 `bson:"blocked"`
	}
	err = s.db.Collection("users").FindOne(ctx, bson.M{"id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return doc.Friends, doc.Blocked, nil
}

func (s *MongoStore) AddFriend(ctx context.Context, userID, targetID int32) error {
	_, err := s.db.Collection("users").UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$push": bson.M{"friends": targetID}},
	)
	return err
}

func (s *MongoStore) RemoveFriend(ctx context.Context, userID, targetID int32) error {
	_, err := s.db.Collection("users").UpdateOne(ctx,
		bson.M{"id": userID},
		bson.M{"$pull": bson.M{"friends": targetID}},
	)
	return err
}

func (s *MongoStore) Log(ctx context.Context, component, message string) error {
	_, err := s.db.Collection("logs").InsertOne(ctx, bson.M{
		"component": component,
		"message":   message,
		"at":        time.Now(),
	})
	return err
}
