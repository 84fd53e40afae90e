package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
)

// Client wraps the Firestore connection shared by the document store.
type Client struct {
	raw       *firestore.Client
	projectID string
}

// New connects to Firestore. Without a credentials file the application
// default credentials are used.
func New(ctx context.Context, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errors.New("gcp project id is required")
	}

	opts := []option.ClientOption{}
	if creds := strings.TrimSpace(gcp.ApplicationCredentials); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	raw, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "project_id", projectID), "firestore client initialized")
	}
	return &Client{raw: raw, projectID: projectID}, nil
}

// Raw exposes the underlying SDK client.
func (c *Client) Raw() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.raw
}

// Close releases the client connection.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
