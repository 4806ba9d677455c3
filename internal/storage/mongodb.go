package storage

import (
	"context"
	"time"

	"submission-processor/config"
	"submission-processor/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MongoDB struct {
	client      *mongo.Client
	submissions *mongo.Collection
	rules       *mongo.Collection
	webhooks    *mongo.Collection
	deliveries  *mongo.Collection
	stats       *mongo.Collection
	logger      *zap.Logger
}

func NewMongoDB(uri, database string, collections config.CollectionsConfig, logger *zap.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetSocketTimeout(30 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB",
		zap.String("database", database),
	)

	db := client.Database(database)
	m := &MongoDB{
		client:      client,
		submissions: db.Collection(collections.Submissions),
		rules:       db.Collection(collections.Rules),
		webhooks:    db.Collection(collections.Webhooks),
		deliveries:  db.Collection(collections.Deliveries),
		stats:       db.Collection(collections.Stats),
		logger:      logger,
	}

	if err := m.createIndexes(ctx); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *MongoDB) createIndexes(ctx context.Context) error {
	submissionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "website_id", Value: 1}}},
	}
	if _, err := m.submissions.Indexes().CreateMany(ctx, submissionIndexes); err != nil {
		return err
	}

	ruleIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "campaign_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "priority", Value: -1}}},
		{Keys: bson.D{{Key: "template_id", Value: 1}, {Key: "is_active", Value: 1}, {Key: "priority", Value: -1}}},
	}
	if _, err := m.rules.Indexes().CreateMany(ctx, ruleIndexes); err != nil {
		return err
	}

	deliveryIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "submission_id", Value: 1}}},
		{Keys: bson.D{{Key: "webhook_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "delivery_status", Value: 1}}},
	}
	if _, err := m.deliveries.Indexes().CreateMany(ctx, deliveryIndexes); err != nil {
		return err
	}

	statsIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "scope_type", Value: 1}, {Key: "scope_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := m.stats.Indexes().CreateMany(ctx, statsIndexes)
	return err
}

func (m *MongoDB) InsertSubmission(ctx context.Context, submission *models.FormSubmission) error {
	_, err := m.submissions.InsertOne(ctx, submission)
	if err != nil {
		m.logger.Error("Failed to insert submission",
			zap.Error(err),
			zap.String("submission_id", submission.ID),
			zap.String("campaign_id", submission.CampaignID))
		return err
	}
	return nil
}

// SetProcessedRules records which rules matched, in evaluation order.
func (m *MongoDB) SetProcessedRules(ctx context.Context, submissionID string, ruleIDs []string) error {
	update := bson.M{
		"$set": bson.M{
			"processed_rules": ruleIDs,
		},
	}
	_, err := m.submissions.UpdateOne(ctx, bson.M{"_id": submissionID}, update)
	return err
}

// GetActiveRules returns active rules for the campaign scope when campaignID
// is set, otherwise for the template scope, ordered by descending priority.
func (m *MongoDB) GetActiveRules(ctx context.Context, campaignID, templateID string) ([]models.SubmissionRule, error) {
	filter := bson.M{"is_active": true}
	switch {
	case campaignID != "":
		filter["campaign_id"] = campaignID
	case templateID != "":
		filter["template_id"] = templateID
	default:
		return nil, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: -1}})
	cursor, err := m.rules.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ruleSet []models.SubmissionRule
	if err = cursor.All(ctx, &ruleSet); err != nil {
		return nil, err
	}
	return ruleSet, nil
}

// GetWebhook returns (nil, nil) when no webhook has the given id.
func (m *MongoDB) GetWebhook(ctx context.Context, id string) (*models.Webhook, error) {
	var webhook models.Webhook
	err := m.webhooks.FindOne(ctx, bson.M{"_id": id}).Decode(&webhook)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

func (m *MongoDB) InsertDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	_, err := m.deliveries.InsertOne(ctx, delivery)
	if err != nil {
		m.logger.Error("Failed to insert delivery",
			zap.Error(err),
			zap.String("webhook_id", delivery.WebhookID),
			zap.String("submission_id", delivery.SubmissionID))
		return err
	}
	return nil
}

// MarkDeliveryResult resolves a pending delivery. responseStatus stays nil
// for transport errors that never produced an HTTP response.
func (m *MongoDB) MarkDeliveryResult(ctx context.Context, deliveryID string, status models.DeliveryStatus, responseStatus *int, responseBody string) error {
	set := bson.M{
		"delivery_status": status,
		"response_body":   responseBody,
		"attempts":        1,
		"delivered_at":    time.Now().UTC(),
	}
	if responseStatus != nil {
		set["response_status"] = *responseStatus
	}

	_, err := m.deliveries.UpdateOne(ctx, bson.M{"_id": deliveryID}, bson.M{"$set": set})
	return err
}

func (m *MongoDB) UpdateWebhookTestResult(ctx context.Context, webhookID string, status string, response string) error {
	update := bson.M{
		"$set": bson.M{
			"last_tested_at":     time.Now().UTC(),
			"last_test_status":   status,
			"last_test_response": response,
			"updated_at":         time.Now().UTC(),
		},
	}
	_, err := m.webhooks.UpdateOne(ctx, bson.M{"_id": webhookID}, update)
	return err
}

// IncrementScopeStats maintains the per-campaign/template rollup counters
// consumed by the reporting screens.
func (m *MongoDB) IncrementScopeStats(ctx context.Context, event models.SubmissionEvent) error {
	scopeType, scopeID := "none", ""
	switch {
	case event.CampaignID != "":
		scopeType, scopeID = "campaign", event.CampaignID
	case event.TemplateID != "":
		scopeType, scopeID = "template", event.TemplateID
	}

	filter := bson.M{"scope_type": scopeType, "scope_id": scopeID}
	update := bson.M{
		"$inc": bson.M{
			"submissions":   1,
			"matched_rules": event.MatchedRules,
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	_, err := m.stats.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
