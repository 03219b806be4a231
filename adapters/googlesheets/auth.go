package googlesheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// CredentialsEnv names the key file used when no path is given
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// ServiceAccountKey represents the structure of a service account JSON key file
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// NewWithJSONKeyFile creates a SheetsAppender from a service account key file.
// An empty path falls back to GOOGLE_APPLICATION_CREDENTIALS.
func NewWithJSONKeyFile(ctx context.Context, config Config, jsonPath string) (*SheetsAppender, error) {
	jsonData, err := readKeyFile(jsonPath)
	if err != nil {
		return nil, err
	}
	return NewWithJSONKeyData(ctx, config, jsonData)
}

// NewWithJSONKeyData creates a SheetsAppender from service account key JSON
func NewWithJSONKeyData(ctx context.Context, config Config, jsonData []byte) (*SheetsAppender, error) {
	creds, err := google.CredentialsFromJSON(ctx, jsonData, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return NewSheetsAppender(ctx, config, option.WithCredentials(creds))
}

// NewWithServiceAccountKey creates a SheetsAppender from an email and PEM private key
func NewWithServiceAccountKey(ctx context.Context, config Config, email string, privateKey string) (*SheetsAppender, error) {
	ts := jwtTokenSource(ctx, email, privateKey, []string{sheets.SpreadsheetsScope})
	return NewSheetsAppender(ctx, config, option.WithTokenSource(ts))
}

// NewWithDefaultCredentials creates a SheetsAppender using Application Default Credentials
// (the key file env var, gcloud credentials, then the GCE metadata server)
func NewWithDefaultCredentials(ctx context.Context, config Config) (*SheetsAppender, error) {
	ts, err := google.DefaultTokenSource(ctx, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get default token source: %w", err)
	}
	return NewSheetsAppender(ctx, config, option.WithTokenSource(ts))
}

// ParseServiceAccountJSON parses and checks a service account key
func ParseServiceAccountJSON(jsonData []byte) (*ServiceAccountKey, error) {
	var key ServiceAccountKey
	if err := json.Unmarshal(jsonData, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}

	if key.Type != "service_account" {
		return nil, fmt.Errorf("invalid key type: %s (expected: service_account)", key.Type)
	}
	if key.ClientEmail == "" || key.PrivateKey == "" {
		return nil, errors.New("missing required fields in service account key")
	}

	return &key, nil
}

// CreateTokenSource builds an oauth2.TokenSource from a key file path (string),
// key JSON ([]byte) or a parsed *ServiceAccountKey. Scopes default to Sheets.
func CreateTokenSource(ctx context.Context, credentials interface{}, scopes ...string) (oauth2.TokenSource, error) {
	if len(scopes) == 0 {
		scopes = []string{sheets.SpreadsheetsScope}
	}

	switch cred := credentials.(type) {
	case string:
		jsonData, err := readKeyFile(cred)
		if err != nil {
			return nil, err
		}
		return tokenSourceFromJSON(ctx, jsonData, scopes)
	case []byte:
		return tokenSourceFromJSON(ctx, cred, scopes)
	case *ServiceAccountKey:
		return jwtTokenSource(ctx, cred.ClientEmail, cred.PrivateKey, scopes), nil
	default:
		return nil, fmt.Errorf("unsupported credential type: %T", credentials)
	}
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		path = os.Getenv(CredentialsEnv)
		if path == "" {
			return nil, fmt.Errorf("no JSON key file path provided and %s not set", CredentialsEnv)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON key file: %w", err)
	}
	return data, nil
}

func tokenSourceFromJSON(ctx context.Context, jsonData []byte, scopes []string) (oauth2.TokenSource, error) {
	creds, err := google.CredentialsFromJSON(ctx, jsonData, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}

func jwtTokenSource(ctx context.Context, email, privateKey string, scopes []string) oauth2.TokenSource {
	config := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(privateKey),
		Scopes:     scopes,
		TokenURL:   google.JWTTokenURL,
	}
	return config.TokenSource(ctx)
}
