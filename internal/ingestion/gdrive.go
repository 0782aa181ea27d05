package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveSource downloads indexable files from a Google Drive folder so the
// regular extraction pipeline can process them as local paths.
type DriveSource struct {
	config *oauth2.Config
}

func NewDriveSource(clientID, clientSecret, redirectURL string) *DriveSource {
	return &DriveSource{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{drive.DriveReadonlyScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL returns the consent page URL for the OAuth flow.
func (s *DriveSource) AuthURL() string {
	return s.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Exchange converts an authorization code into a token.
func (s *DriveSource) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.config.Exchange(ctx, code)
}

// Download fetches every supported file in folderID into destDir and returns
// the local paths. Cancellation stops before the next file is fetched.
func (s *DriveSource) Download(ctx context.Context, token *oauth2.Token, folderID, destDir string) ([]string, error) {
	client := s.config.Client(ctx, token)
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	list, err := svc.Files.List().Q(query).Fields("files(id, name, mimeType)").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing drive folder: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range list.Files {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		if !supportedName(f.Name) {
			continue
		}
		resp, err := svc.Files.Get(f.Id).Context(ctx).Download()
		if err != nil {
			return paths, fmt.Errorf("downloading %s: %w", f.Name, err)
		}
		dest := filepath.Join(destDir, f.Name)
		out, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return paths, err
		}
		_, err = io.Copy(out, resp.Body)
		resp.Body.Close()
		out.Close()
		if err != nil {
			return paths, fmt.Errorf("saving %s: %w", f.Name, err)
		}
		paths = append(paths, dest)
	}
	return paths, nil
}

func supportedName(name string) bool {
	ext := filepath.Ext(name)
	for _, a := range allowedExt {
		if ext == a {
			return true
		}
	}
	return false
}
