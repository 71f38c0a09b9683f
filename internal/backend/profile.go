package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Mavton23/rentix/internal/apiclient"
	"github.com/Mavton23/rentix/internal/domain"
)

// AvatarField is the multipart field name the upload endpoint expects.
const AvatarField = "avatar"

// ProfileAPI wraps the current user's profile endpoints.
type ProfileAPI struct {
	gw Gateway
}

// Update sends the changed profile fields and returns the stored user.
func (p *ProfileAPI) Update(ctx context.Context, patch domain.UserPatch) (domain.User, error) {
	var u domain.User
	if err := p.gw.DoJSON(ctx, http.MethodPatch, "/users/me", patch, &u); err != nil {
		return domain.User{}, fmt.Errorf("updating profile: %w", err)
	}
	return u, nil
}

// UploadAvatar posts the image as multipart/form-data and returns its public URL.
func (p *ProfileAPI) UploadAvatar(ctx context.Context, filename string, image io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(AvatarField, filename)
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("reading avatar: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := p.gw.DoJSON(ctx, http.MethodPost, "/users/avatar", &buf, &out,
		apiclient.WithContentType(w.FormDataContentType())); err != nil {
		return "", fmt.Errorf("uploading avatar: %w", err)
	}
	if out.URL == "" {
		return "", &domain.ServerError{StatusCode: http.StatusOK, Message: "avatar upload returned no url"}
	}
	return out.URL, nil
}
