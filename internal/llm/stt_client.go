package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"mockinterview-backend/internal/model"
)

// maxMediaBytes bounds how much of a recording is forwarded for transcription.
const maxMediaBytes = 64 << 20

// STTClient transcribes recorded answers through a speech-to-text HTTP
// service that accepts a multipart "file" field and answers {"text": "..."}.
type STTClient struct {
	sttURL string
	client *http.Client
}

func NewSTTClient(sttURL string) *STTClient {
	return &STTClient{
		sttURL: sttURL,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Transcribe downloads the media at mediaURL and posts it to the STT service.
func (s *STTClient) Transcribe(ctx context.Context, mediaURL string, mediaType model.ResponseType) (string, error) {
	if !mediaType.IsMedia() {
		return "", fmt.Errorf("cannot transcribe response type %q", mediaType)
	}
	if s.sttURL == "" {
		return "", fmt.Errorf("speech-to-text URL is not configured")
	}

	media, err := s.fetch(ctx, mediaURL)
	if err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", mediaFilename(mediaURL, mediaType))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(media); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sttURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("STT service returned status: %s", resp.Status)
	}

	var result map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return strings.TrimSpace(result["text"]), nil
}

func (s *STTClient) fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media %s: status %s", mediaURL, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
}

func mediaFilename(mediaURL string, mediaType model.ResponseType) string {
	if u, err := url.Parse(mediaURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	if mediaType == model.ResponseVideo {
		return "response.webm"
	}
	return "response.wav"
}
