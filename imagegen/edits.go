// edits.go implements the multi-reference edit call against the images
// edits endpoint.
//
// The request is built as multipart/form-data directly over net/http:
// every reference file is attached as an image[] part, which the go-openai
// edit request (single file) cannot express.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// editResponse mirrors the images API response shape.
type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Edit creates an image from the prompt guided by the reference image
// files. All supplied files are attached to the single call.
func (p *OpenAIProvider) Edit(ctx context.Context, prompt string, imagePaths []string) (*ImageResult, error) {
	if prompt == "" {
		return nil, fmt.Errorf("imagegen: prompt cannot be empty")
	}
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("imagegen: edit call requires at least one reference image")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"model":   p.model,
		"prompt":  prompt,
		"n":       "1",
		"size":    p.size,
		"quality": p.quality,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("imagegen: failed to write form field %s: %w", name, err)
		}
	}

	for _, path := range imagePaths {
		if err := attachImageFile(writer, path); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("imagegen: failed to finalize multipart body: %w", err)
	}

	url := strings.TrimSuffix(p.baseURL, "/") + "/images/edits"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to create edit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagegen: edit request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to read edit response: %w", err)
	}

	var parsed editResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("imagegen: failed to parse edit response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("imagegen: edit call failed (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("imagegen: edit call failed with status %d", resp.StatusCode)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("imagegen: no image data in edit response")
	}

	result := &ImageResult{
		B64JSON: parsed.Data[0].B64JSON,
		URL:     parsed.Data[0].URL,
	}
	if result.B64JSON == "" && result.URL == "" {
		return nil, fmt.Errorf("imagegen: edit response contained neither payload nor URL")
	}
	return result, nil
}

// attachImageFile adds one reference file as an image[] part.
func attachImageFile(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("imagegen: failed to open reference file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("image[]", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("imagegen: failed to create image form part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("imagegen: failed to copy reference file: %w", err)
	}
	return nil
}
