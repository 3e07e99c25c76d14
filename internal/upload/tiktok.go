package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"clipforge/internal/config"
)

// TikTok Content Posting API endpoints. Posting requires a developer app
// approved for video.publish; unverified apps can only post to private
// accounts.
const (
	tiktokAuthURL  = "https://www.tiktok.com/v2/auth/authorize/"
	tiktokTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokInitURL  = "https://open.tiktokapis.com/v2/post/publish/video/init/"
)

// TikTokUploader publishes clips through the TikTok Content Posting API.
type TikTokUploader struct {
	logger zerolog.Logger
	cfg    config.TikTokConfig
	http   *http.Client
	token  tiktokToken
}

type tiktokToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	OpenID       string `json:"open_id"`
}

// NewTikTokUploader loads a cached token or walks the user through the
// authorization-code flow on a local callback server.
func NewTikTokUploader(ctx context.Context, logger zerolog.Logger, cfg config.TikTokConfig) (*TikTokUploader, error) {
	if cfg.ClientKey == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("tiktok credentials missing: set tiktok.client_key and tiktok.client_secret (developers.tiktok.com)")
	}

	u := &TikTokUploader{
		logger: logger.With().Str("component", "tiktok-upload").Logger(),
		cfg:    cfg,
		http:   http.DefaultClient,
	}

	if data, err := os.ReadFile(cfg.TokenFile); err == nil {
		if err := json.Unmarshal(data, &u.token); err == nil && u.token.AccessToken != "" {
			return u, nil
		}
	}

	if err := u.authorize(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

// authorize runs the code flow: print the consent URL, catch the redirect
// on the configured local callback, exchange the code, cache the token.
func (u *TikTokUploader) authorize(ctx context.Context) error {
	redirect, err := url.Parse(u.cfg.RedirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect_uri: %w", err)
	}

	// Bind before printing the consent URL: a busy port must fail fast, not
	// leave the flow waiting for a redirect that can never arrive.
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("start callback listener on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	authURL := tiktokAuthURL + "?" + url.Values{
		"client_key":    {u.cfg.ClientKey},
		"response_type": {"code"},
		"scope":         {"video.publish,user.info.basic"},
		"redirect_uri":  {u.cfg.RedirectURI},
	}.Encode()
	fmt.Printf("Open this URL in your browser to authorize TikTok:\n  %s\n", authURL)

	codeCh := make(chan string, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<h1>Authorization complete. You can close this tab.</h1>")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})}
	go server.Serve(listener)
	defer server.Close()

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return ctx.Err()
	}
	if code == "" {
		return fmt.Errorf("no authorization code received; check the app's redirect_uri matches %s", u.cfg.RedirectURI)
	}

	return u.exchangeCode(ctx, code)
}

// exchangeCode trades the authorization code for tokens. TikTok's token
// endpoint uses client_key instead of the standard client_id parameter, so
// the exchange is done by hand rather than through the oauth2 package.
func (u *TikTokUploader) exchangeCode(ctx context.Context, code string) error {
	form := url.Values{
		"client_key":    {u.cfg.ClientKey},
		"client_secret": {u.cfg.ClientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {u.cfg.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tiktokTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token exchange returned %s: %s", resp.Status, body)
	}
	if err := json.Unmarshal(body, &u.token); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if u.token.AccessToken == "" {
		return fmt.Errorf("token exchange returned no access token: %s", body)
	}

	data, err := json.MarshalIndent(u.token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(u.cfg.TokenFile, data, 0600)
}

// UploadClips posts a batch of clips. Returns the publish IDs of successful
// posts; failures are logged and skipped.
func (u *TikTokUploader) UploadClips(ctx context.Context, paths []string, nums []int) []string {
	var published []string
	for i, path := range paths {
		num := i + 1
		if i < len(nums) {
			num = nums[i]
		}
		title := FormatTitle(u.cfg.TitleTemplate, num, i+1, len(paths))

		u.logger.Info().Str("clip", filepath.Base(path)).Str("title", title).Msg("uploading to TikTok")

		id, err := u.uploadOne(ctx, path, title)
		if err != nil {
			u.logger.Error().Err(err).Str("clip", filepath.Base(path)).Msg("upload failed")
			continue
		}
		published = append(published, id)
		u.logger.Info().Str("publish_id", id).Msg("posted to TikTok")
	}
	return published
}

type tiktokInitResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// uploadOne runs the two-step FILE_UPLOAD publish: init to get an upload
// URL, then PUT the video bytes in one chunk.
func (u *TikTokUploader) uploadOne(ctx context.Context, path, title string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	size := fi.Size()

	initBody, err := json.Marshal(map[string]any{
		"post_info": map[string]any{
			"title":         truncate(title, 150),
			"privacy_level": u.cfg.Privacy,
		},
		"source_info": map[string]any{
			"source":            "FILE_UPLOAD",
			"video_size":        size,
			"chunk_size":        size,
			"total_chunk_count": 1,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tiktokInitURL, bytes.NewReader(initBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+u.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("publish init: %w", err)
	}
	defer resp.Body.Close()

	var initResp tiktokInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return "", fmt.Errorf("decode init response: %w", err)
	}
	if initResp.Data.PublishID == "" || initResp.Data.UploadURL == "" {
		return "", fmt.Errorf("publish init failed: %s (%s)", initResp.Error.Message, initResp.Error.Code)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, initResp.Data.UploadURL, file)
	if err != nil {
		return "", err
	}
	put.ContentLength = size
	put.Header.Set("Content-Type", "video/mp4")
	put.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	putResp, err := u.http.Do(put)
	if err != nil {
		return "", fmt.Errorf("video upload: %w", err)
	}
	defer putResp.Body.Close()
	if putResp.StatusCode >= 300 {
		body, _ := io.ReadAll(putResp.Body)
		return "", fmt.Errorf("video upload returned %s: %s", putResp.Status, body)
	}

	return initResp.Data.PublishID, nil
}
