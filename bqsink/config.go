package bqsink

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	gojson "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"google.golang.org/api/option"
)

// AccessConfig holds what every sink of a project shares: where tables live
// and how to authenticate.
type AccessConfig struct {
	ProjectID string `toml:"project_id"`
	DatasetID string `toml:"dataset_id"`
	// TempBucketName and TempBucketRootPath locate staging files for batch
	// loads.
	TempBucketName     string `toml:"temp_bucket_name"`
	TempBucketRootPath string `toml:"temp_bucket_root_path"`
	// ServiceAccountCredentials is the parsed service-account key. When set,
	// its project_id takes precedence for the client.
	ServiceAccountCredentials map[string]any `toml:"service_account_credentials"`
	// CredentialsFile points at a service-account key file instead.
	CredentialsFile string `toml:"credentials_file"`
	// Location is where new datasets and tables are created.
	Location string `toml:"bq_location"`
}

// Replace returns a copy of c with every non-zero field of o applied.
func (c AccessConfig) Replace(o AccessConfig) AccessConfig {
	if o.ProjectID != "" {
		c.ProjectID = o.ProjectID
	}
	if o.DatasetID != "" {
		c.DatasetID = o.DatasetID
	}
	if o.TempBucketName != "" {
		c.TempBucketName = o.TempBucketName
	}
	if o.TempBucketRootPath != "" {
		c.TempBucketRootPath = o.TempBucketRootPath
	}
	if o.ServiceAccountCredentials != nil {
		c.ServiceAccountCredentials = o.ServiceAccountCredentials
	}
	if o.CredentialsFile != "" {
		c.CredentialsFile = o.CredentialsFile
	}
	if o.Location != "" {
		c.Location = o.Location
	}
	return c
}

// LoadAccessConfig reads a TOML access config.
func LoadAccessConfig(path string) (AccessConfig, error) {
	var c AccessConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("failed to read access config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("failed to parse access config %s: %w", path, err)
	}
	return c, nil
}

// ClientProject is the project the client bills to.
func (c AccessConfig) ClientProject() string {
	if p, ok := c.ServiceAccountCredentials["project_id"].(string); ok && p != "" {
		return p
	}
	return c.ProjectID
}

// ClientOptions returns the credential options implied by c. Without
// credentials the client falls back to application default credentials.
func (c AccessConfig) ClientOptions() ([]option.ClientOption, error) {
	switch {
	case c.ServiceAccountCredentials != nil:
		b, err := gojson.Marshal(c.ServiceAccountCredentials)
		if err != nil {
			return nil, fmt.Errorf("encode service account credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentialsJSON(b)}, nil
	case c.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(c.CredentialsFile)}, nil
	}
	return nil, nil
}

// NewClient creates a BigQuery client for c. Extra options are appended after
// the credential options.
func (c AccessConfig) NewClient(ctx context.Context, extra ...option.ClientOption) (*bigquery.Client, error) {
	if c.ClientProject() == "" {
		return nil, fmt.Errorf("bqsink: access config has no project")
	}
	opts, err := c.ClientOptions()
	if err != nil {
		return nil, err
	}
	client, err := bigquery.NewClient(ctx, c.ClientProject(), append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create bigquery client: %w", err)
	}
	if c.Location != "" {
		client.Location = c.Location
	}
	return client, nil
}

// tableProject is the project that owns tables and views.
func (c AccessConfig) tableProject() string {
	if c.ProjectID != "" {
		return c.ProjectID
	}
	return c.ClientProject()
}

// dataset picks the override when given.
func (c AccessConfig) dataset(override string) string {
	if override != "" {
		return override
	}
	return c.DatasetID
}
