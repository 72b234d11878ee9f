package lcu

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrLockfileNotFound = errors.New("lockfile not found")
	ErrLeagueNotRunning = errors.New("league client is not running")
)

// DefaultTimeout bounds every request to the LCU API so a wedged client
// process fails the call instead of hanging the run.
const DefaultTimeout = 10 * time.Second

// Credentials holds the LCU connection details parsed from lockfile
type Credentials struct {
	ProcessName string
	PID         string
	Port        string
	Password    string
	Protocol    string
}

// Client represents a connection to the League Client
type Client struct {
	credentials *Credentials
	httpClient  *http.Client
	baseURL     string
	authHeader  string
}

// NewClient creates a new LCU client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, // LCU uses self-signed cert
				},
			},
			Timeout: DefaultTimeout,
		},
	}
}

// FindLockfile searches for the League Client lockfile
func FindLockfile() (string, error) {
	// Common League installation paths on Windows
	possiblePaths := []string{
		"C:/Riot Games/League of Legends/lockfile",
		"D:/Riot Games/League of Legends/lockfile",
		"C:/Program Files/Riot Games/League of Legends/lockfile",
		"C:/Program Files (x86)/Riot Games/League of Legends/lockfile",
	}

	for _, drive := range []string{"E:", "F:", "G:"} {
		possiblePaths = append(possiblePaths, filepath.Join(drive, "Riot Games/League of Legends/lockfile"))
	}

	if custom := os.Getenv("LCU_LOCKFILE"); custom != "" {
		possiblePaths = append([]string{custom}, possiblePaths...)
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrLockfileNotFound
}

// ParseLockfile reads and parses the lockfile content
func ParseLockfile(path string) (*Credentials, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	// Lockfile format: LeagueClient:pid:port:password:protocol
	parts := strings.Split(strings.TrimSpace(string(content)), ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid lockfile format: expected 5 parts, got %d", len(parts))
	}

	return &Credentials{
		ProcessName: parts[0],
		PID:         parts[1],
		Port:        parts[2],
		Password:    parts[3],
		Protocol:    parts[4],
	}, nil
}

// Connect establishes connection to the League Client
func (c *Client) Connect(ctx context.Context) error {
	lockfilePath, err := FindLockfile()
	if err != nil {
		return err
	}

	creds, err := ParseLockfile(lockfilePath)
	if err != nil {
		return err
	}

	c.credentials = creds
	c.baseURL = fmt.Sprintf("https://127.0.0.1:%s", creds.Port)
	c.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+creds.Password))

	if err := c.testConnection(ctx); err != nil {
		return fmt.Errorf("failed to connect to LCU: %w", err)
	}

	return nil
}

// ConnectTo points the client at an explicit base URL instead of discovering
// the lockfile. Used against a stand-in server in tests.
func (c *Client) ConnectTo(baseURL, password string) {
	c.credentials = &Credentials{Password: password}
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+password))
}

// testConnection verifies we can reach the LCU API
func (c *Client) testConnection(ctx context.Context) error {
	resp, err := c.Get(ctx, "/lol-summoner/v1/current-summoner")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// IsConnected checks if the client is still connected to LCU
// by making a health check request
func (c *Client) IsConnected(ctx context.Context) bool {
	if c.credentials == nil {
		return false
	}

	if err := c.testConnection(ctx); err != nil {
		c.credentials = nil
		return false
	}

	return true
}

// GetCredentials returns the current LCU credentials
func (c *Client) GetCredentials() *Credentials {
	return c.credentials
}

// Disconnect cleans up the client connection
func (c *Client) Disconnect() {
	c.credentials = nil
}

// Get performs a GET request to the LCU API
func (c *Client) Get(ctx context.Context, endpoint string) (*http.Response, error) {
	if c.credentials == nil {
		return nil, ErrLeagueNotRunning
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	return c.httpClient.Do(req)
}
