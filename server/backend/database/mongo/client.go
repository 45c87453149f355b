/*
 * Copyright 2026 The Quire Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mongo implements database interfaces using MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	gotime "time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/quire-team/quire/api/types"
	"github.com/quire-team/quire/server/backend/database"
	"github.com/quire-team/quire/server/logging"
)

// Client is a client that connects to Mongo DB and reads or saves Quire data.
type Client struct {
	config *Config
	client *mongo.Client

	docCache *lru.Cache[types.ID, *database.DocInfo]
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(conf.ConnectionURI).
		SetRegistry(NewRegistry())

	if conf.MonitoringEnabled {
		var threshold gotime.Duration
		if conf.MonitoringSlowQueryThreshold != "" {
			parsed, err := gotime.ParseDuration(conf.MonitoringSlowQueryThreshold)
			if err != nil {
				return nil, fmt.Errorf("parse slow query threshold: %w", err)
			}
			threshold = parsed
		}

		monitor := NewQueryMonitor(&MonitorConfig{
			Enabled:            conf.MonitoringEnabled,
			SlowQueryThreshold: threshold,
		})

		clientOptions.SetMonitor(monitor.CreateCommandMonitor())
	}

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.QuireDatabase)); err != nil {
		return nil, err
	}

	docCache, err := lru.New[types.ID, *database.DocInfo](100)
	if err != nil {
		return nil, fmt.Errorf("initialize docinfo cache: %w", err)
	}

	logging.DefaultLogger().Infof("MongoDB connected, URI: %s, DB: %s", conf.ConnectionURI, conf.QuireDatabase)

	return &Client{
		config:   conf,
		client:   client,
		docCache: docCache,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("close mongo client: %w", err)
	}

	c.docCache.Purge()

	return nil
}

// DropDatabase drops the database of this client. It is used by tests.
func (c *Client) DropDatabase(ctx context.Context) error {
	if err := c.client.Database(c.config.QuireDatabase).Drop(ctx); err != nil {
		return fmt.Errorf("drop database %s: %w", c.config.QuireDatabase, err)
	}
	c.docCache.Purge()
	return nil
}

// CreateDocInfo stores a new document.
func (c *Client) CreateDocInfo(
	ctx context.Context,
	info *database.DocInfo,
) (*database.DocInfo, error) {
	docInfo := info.DeepCopy()
	if docInfo.ID == "" {
		docInfo.ID = types.NewID()
	}

	now := gotime.Now()
	if docInfo.CreatedAt.IsZero() {
		docInfo.CreatedAt = now
	}
	docInfo.UpdatedAt = now

	if _, err := c.collection(ColDocuments).InsertOne(ctx, docInfo); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create document of %s: %w", docInfo.ID, database.ErrDocumentAlreadyExists)
		}
		return nil, fmt.Errorf("create document of %s: %w", docInfo.ID, err)
	}

	c.docCache.Add(docInfo.ID, docInfo.DeepCopy())
	return docInfo, nil
}

// FindDocInfoByID returns the document of the given ID.
func (c *Client) FindDocInfoByID(
	ctx context.Context,
	id types.ID,
) (*database.DocInfo, error) {
	if cached, ok := c.docCache.Get(id); ok {
		return cached.DeepCopy(), nil
	}

	result := c.collection(ColDocuments).FindOne(ctx, bson.M{"_id": id})
	if errors.Is(result.Err(), mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find document of %s: %w", id, database.ErrDocumentNotFound)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("find document of %s: %w", id, result.Err())
	}

	var info database.DocInfo
	if err := result.Decode(&info); err != nil {
		return nil, fmt.Errorf("decode document of %s: %w", id, err)
	}

	c.docCache.Add(id, info.DeepCopy())
	return &info, nil
}

// ListDocInfos returns every document ordered by creation.
func (c *Client) ListDocInfos(ctx context.Context) ([]*database.DocInfo, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := c.collection(ColDocuments).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var infos []*database.DocInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	return infos, nil
}

// UpdateDocInfo replaces the stored document with the given info.
func (c *Client) UpdateDocInfo(
	ctx context.Context,
	info *database.DocInfo,
) error {
	docInfo := info.DeepCopy()
	docInfo.UpdatedAt = gotime.Now()

	result, err := c.collection(ColDocuments).ReplaceOne(ctx, bson.M{"_id": info.ID}, docInfo)
	if err != nil {
		return fmt.Errorf("update document of %s: %w", info.ID, err)
	}
	if result.MatchedCount == 0 {
		c.docCache.Remove(info.ID)
		return fmt.Errorf("update document of %s: %w", info.ID, database.ErrDocumentNotFound)
	}

	info.UpdatedAt = docInfo.UpdatedAt
	c.docCache.Add(info.ID, docInfo)
	return nil
}

// RemoveDocInfo removes the document and all of its snapshots.
func (c *Client) RemoveDocInfo(
	ctx context.Context,
	id types.ID,
) error {
	c.docCache.Remove(id)

	result, err := c.collection(ColDocuments).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("remove document of %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("remove document of %s: %w", id, database.ErrDocumentNotFound)
	}

	if _, err := c.collection(ColSnapshots).DeleteMany(ctx, bson.M{"doc_id": id}); err != nil {
		return fmt.Errorf("remove snapshots of %s: %w", id, err)
	}

	return nil
}

// CreateSnapshotInfo stores a snapshot of a document's history.
func (c *Client) CreateSnapshotInfo(
	ctx context.Context,
	info *database.SnapshotInfo,
) error {
	snapshotInfo := info.DeepCopy()
	if snapshotInfo.CreatedAt.IsZero() {
		snapshotInfo.CreatedAt = gotime.Now()
	}

	if _, err := c.collection(ColSnapshots).InsertOne(ctx, snapshotInfo); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create snapshot of %s: %w", info.ID, database.ErrSnapshotAlreadyExists)
		}
		return fmt.Errorf("create snapshot of %s: %w", info.ID, err)
	}

	return nil
}

// FindSnapshotInfosByDocID returns the snapshots of the document ordered by
// sequence.
func (c *Client) FindSnapshotInfosByDocID(
	ctx context.Context,
	docID types.ID,
) ([]*database.SnapshotInfo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

	cursor, err := c.collection(ColSnapshots).Find(ctx, bson.M{"doc_id": docID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find snapshots of %s: %w", docID, err)
	}

	var infos []*database.SnapshotInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode snapshots of %s: %w", docID, err)
	}

	return infos, nil
}

// DeleteSnapshotInfos deletes the snapshots of the given IDs.
func (c *Client) DeleteSnapshotInfos(
	ctx context.Context,
	docID types.ID,
	ids []types.ID,
) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := c.collection(ColSnapshots).DeleteMany(ctx, bson.M{
		"doc_id": docID,
		"_id":    bson.M{"$in": ids},
	}); err != nil {
		return fmt.Errorf("delete snapshots of %s: %w", docID, err)
	}

	return nil
}

// StripSnapshotInfos drops the byte payloads of the given snapshots.
func (c *Client) StripSnapshotInfos(
	ctx context.Context,
	docID types.ID,
	ids []types.ID,
) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := c.collection(ColSnapshots).UpdateMany(ctx, bson.M{
		"doc_id": docID,
		"_id":    bson.M{"$in": ids},
	}, bson.M{
		"$set": bson.M{"stripped": true},
		"$unset": bson.M{
			"document_bytes": "",
			"base_bytes":     "",
		},
	}); err != nil {
		return fmt.Errorf("strip snapshots of %s: %w", docID, err)
	}

	return nil
}

func (c *Client) collection(
	name string,
	opts ...options.Lister[options.CollectionOptions],
) *mongo.Collection {
	return c.client.
		Database(c.config.QuireDatabase).
		Collection(name, opts...)
}
