package ghost

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mealcart/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// PlanTag is attached to every post created for a meal plan.
const PlanTag = "meal-plan"

const tokenTTL = 5 * time.Minute

// Tag is a Ghost post tag, referenced by name.
type Tag struct {
	Name string `json:"name"`
}

// Post is the subset of a Ghost Admin API post that mealcart reads or writes.
type Post struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	HTML          string `json:"html,omitempty"`
	CustomExcerpt string `json:"custom_excerpt,omitempty"`
	Status        string `json:"status,omitempty"`
	Tags          []Tag  `json:"tags,omitempty"`
	URL           string `json:"url,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// PostsResponse is the envelope Ghost uses for post requests and responses.
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

type apiErrors struct {
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"errors"`
}

// Draft describes a post to create. Unpublished drafts stay in Ghost's
// editor until someone publishes them there.
type Draft struct {
	Title   string
	HTML    string
	Excerpt string
	Tags    []string
	Publish bool
}

// Client publishes posts through the Ghost Admin API.
type Client interface {
	CreatePost(ctx context.Context, draft Draft) (*Post, error)
}

type ghostClient struct {
	httpClient *http.Client
	baseURL    string
	adminKey   string
	now        func() time.Time
}

// NewClient returns a Client for cfg.GhostURL authenticated with
// cfg.GhostAdminKey ("id:hexsecret").
func NewClient(cfg *config.Config) Client {
	return &ghostClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.GhostURL, "/"),
		adminKey:   cfg.GhostAdminKey,
		now:        time.Now,
	}
}

func (c *ghostClient) CreatePost(ctx context.Context, draft Draft) (*Post, error) {
	token, err := c.adminToken()
	if err != nil {
		return nil, fmt.Errorf("failed to create admin token: %w", err)
	}

	post := Post{
		Title:         draft.Title,
		HTML:          draft.HTML,
		CustomExcerpt: draft.Excerpt,
		Status:        "draft",
	}
	if draft.Publish {
		post.Status = "published"
	}
	for _, name := range draft.Tags {
		post.Tags = append(post.Tags, Tag{Name: name})
	}

	body, err := json.Marshal(PostsResponse{Posts: []Post{post}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post: %w", err)
	}

	endpoint := c.baseURL + "/ghost/api/admin/posts/?source=html"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Ghost "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Version", "v5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out PostsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Posts) == 0 {
		return nil, errors.New("no post returned from api")
	}
	return &out.Posts[0], nil
}

// apiError prefers Ghost's structured error message and falls back to the
// raw body.
func apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed apiErrors
	if err := json.Unmarshal(raw, &parsed); err == nil && len(parsed.Errors) > 0 {
		return fmt.Errorf("admin api error: status %d: %s", resp.StatusCode, parsed.Errors[0].Message)
	}
	return fmt.Errorf("admin api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

// adminToken signs a short-lived HS256 token with the key's hex secret and
// its id as kid.
func (c *ghostClient) adminToken() (string, error) {
	id, secretHex, ok := strings.Cut(c.adminKey, ":")
	if !ok || id == "" || secretHex == "" {
		return "", errors.New("invalid admin key format: expected id:secret")
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		Audience:  jwt.ClaimStrings{"/admin/"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = id

	return token.SignedString(secret)
}
