/*
Copyright 2025 The Tokenmint authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package externalaccount

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// maxSubjectTokenSize limits how much credential source content is read.
const maxSubjectTokenSize = 1 << 20

// retrieveSubjectToken obtains the external subject token from the
// configured credential source. Retrieval failures are fatal to the
// refresh attempt, they are never classified as grant rejections.
func (c *Credential) retrieveSubjectToken(ctx context.Context, client *http.Client) (string, error) {
	src := c.conf.CredentialSource

	var content []byte
	var err error
	switch {
	case src.File != "":
		content, err = os.ReadFile(src.File)
		if err != nil {
			return "", fmt.Errorf("failed to read credential source file: %w", err)
		}
	case src.URL != "":
		content, err = fetchSubjectToken(ctx, client, src.URL, src.Headers)
		if err != nil {
			return "", err
		}
	}

	return parseSubjectToken(content, src.Format)
}

func fetchSubjectToken(ctx context.Context, client *http.Client, url string,
	headers map[string]string) ([]byte, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential source request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach credential source url: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSubjectTokenSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read credential source response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential source url returned status %d", resp.StatusCode)
	}
	return body, nil
}

func parseSubjectToken(content []byte, format Format) (string, error) {
	switch format.Type {
	case "", "text":
		return strings.TrimSpace(string(content)), nil
	case "json":
		var doc map[string]any
		if err := json.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("failed to parse credential source content as JSON: %w", err)
		}
		token, ok := doc[format.SubjectTokenFieldName].(string)
		if !ok || token == "" {
			return "", fmt.Errorf("field '%s' is missing from the credential source content",
				format.SubjectTokenFieldName)
		}
		return token, nil
	}
	// Unknown formats are rejected at construction.
	return "", fmt.Errorf("invalid credential source format '%s'", format.Type)
}
