package main

import (
	"context"
	"log"
	"os"
	"time"

	"submission-processor/config"
	"submission-processor/internal/models"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds a demo webhook and rule set for local testing:
//
//	go run ./scripts seed
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	campaignID := os.Getenv("SEED_CAMPAIGN_ID")
	if campaignID == "" {
		campaignID = "demo-campaign"
	}
	targetURL := os.Getenv("SEED_WEBHOOK_URL")
	if targetURL == "" {
		targetURL = "https://httpbin.org/post"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	now := time.Now().UTC()

	webhook := models.Webhook{
		ID:       primitive.NewObjectID().Hex(),
		URL:      targetURL,
		Method:   "POST",
		AuthType: models.AuthTypeNone,
		IsActive: true,
		Headers: map[string]string{
			"X-Source": "popup-builder-dev",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection(cfg.MongoDB.Collections.Webhooks).InsertOne(ctx, webhook); err != nil {
		log.Fatalf("Failed to insert webhook: %v", err)
	}
	log.Printf("Seeded webhook %s -> %s", webhook.ID, webhook.URL)

	rule := models.SubmissionRule{
		ID:         primitive.NewObjectID().Hex(),
		CampaignID: campaignID,
		Priority:   10,
		IsActive:   true,
		Conditions: models.RuleConditions{
			FieldConditions: map[string]models.FieldCondition{
				"email": {Operator: models.OperatorIsNotEmpty},
			},
		},
		Actions: models.RuleActions{
			Webhooks: []models.WebhookAction{
				{WebhookID: webhook.ID},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := db.Collection(cfg.MongoDB.Collections.Rules).InsertOne(ctx, rule); err != nil {
		log.Fatalf("Failed to insert rule: %v", err)
	}
	log.Printf("Seeded rule %s for campaign %s", rule.ID, campaignID)
}
