package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"clipforge/internal/config"
)

const uploadMaxRetries = 5

// YouTubeUploader publishes clips as Shorts through the YouTube Data API.
// Vertical videos are auto-detected as Shorts server-side.
type YouTubeUploader struct {
	logger  zerolog.Logger
	cfg     config.YouTubeConfig
	service *youtube.Service
}

// NewYouTubeUploader authenticates with OAuth 2.0, reusing a cached token
// when one exists and running the installed-app browser flow otherwise.
func NewYouTubeUploader(ctx context.Context, logger zerolog.Logger, cfg config.YouTubeConfig) (*YouTubeUploader, error) {
	data, err := os.ReadFile(cfg.ClientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("missing %s: create an OAuth desktop client in the Google Cloud console and save its JSON there: %w",
			cfg.ClientSecretsFile, err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secrets: %w", err)
	}

	token, err := loadOrRequestToken(ctx, oauthCfg, cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}

	return &YouTubeUploader{
		logger:  logger.With().Str("component", "youtube-upload").Logger(),
		cfg:     cfg,
		service: service,
	}, nil
}

// loadOrRequestToken returns a cached token or runs the local-callback OAuth
// flow, persisting whatever it obtains.
func loadOrRequestToken(ctx context.Context, oauthCfg *oauth2.Config, tokenFile string) (*oauth2.Token, error) {
	if token := tokenFromFile(tokenFile); token != nil {
		return token, nil
	}

	token, err := tokenFromBrowser(ctx, oauthCfg)
	if err != nil {
		return nil, err
	}
	if err := saveToken(tokenFile, token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return token, nil
}

func tokenFromFile(path string) *oauth2.Token {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil
	}
	// An expired token with a refresh token is still usable; the token
	// source refreshes it transparently.
	if !token.Valid() && token.RefreshToken == "" {
		return nil
	}
	return &token
}

func saveToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// tokenFromBrowser runs the installed-app flow: a loopback listener catches
// the authorization code after the user approves in a browser.
func tokenFromBrowser(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}
	defer listener.Close()

	cfg := *oauthCfg
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr())

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

	url := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL in your browser to authorize:\n  %s\n", url)

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if code == "" {
		return nil, fmt.Errorf("no authorization code received")
	}

	return cfg.Exchange(ctx, code)
}

// UploadClips uploads a batch, numbering titles from the persistent clip
// counter. Returns the IDs of the videos that made it up; individual
// failures are logged and skipped.
func (u *YouTubeUploader) UploadClips(ctx context.Context, paths []string) []string {
	nums := clipNums(u.cfg.ClipCounterFile, u.cfg.ClipCounterStart, len(paths))

	var uploaded []string
	for i, path := range paths {
		title := FormatTitle(u.cfg.TitleTemplate, nums[i], i+1, len(paths))

		u.logger.Info().
			Str("clip", filepath.Base(path)).
			Str("title", title).
			Msg("uploading to YouTube")

		id, err := u.uploadOne(ctx, path, title)
		if err != nil {
			u.logger.Error().Err(err).Str("clip", filepath.Base(path)).Msg("upload failed")
			continue
		}

		uploaded = append(uploaded, id)
		if err := SaveClipNum(u.cfg.ClipCounterFile, nums[i]+1); err != nil {
			u.logger.Warn().Err(err).Msg("could not persist clip counter")
		}
		u.logger.Info().Str("url", "https://youtube.com/shorts/"+id).Msg("uploaded")
	}
	return uploaded
}

// uploadOne inserts a single video, retrying transient server errors with
// exponential backoff and jitter.
func (u *YouTubeUploader) uploadOne(ctx context.Context, path, title string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       truncate(title, 100),
			Description: truncate(u.cfg.Description, 5000),
			Tags:        u.cfg.Tags,
			CategoryId:  u.cfg.CategoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: u.cfg.Privacy},
	}

	call := u.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file, googleapi.ContentType("video/mp4")).
		Context(ctx)

	for attempt := 0; ; attempt++ {
		resp, err := call.Do()
		if err == nil {
			return resp.Id, nil
		}
		if !retryableUploadErr(err) || attempt >= uploadMaxRetries {
			return "", err
		}
		backoff := time.Duration(float64(time.Second) * (1 + rand.Float64()*float64(int(1)<<attempt)))
		u.logger.Warn().Err(err).Dur("backoff", backoff).Msg("transient upload error, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func retryableUploadErr(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
