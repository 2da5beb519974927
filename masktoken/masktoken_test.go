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

package masktoken

import (
	"errors"
	"strings"
	"testing"
)

func Test_MaskTokenFromString(t *testing.T) {
	tests := []struct {
		name           string
		token          string
		expectErr      bool
		originalErrStr string
		expectedErrStr string
	}{
		{
			name:           "no token",
			token:          "8h0387hdyehbwwa45",
			originalErrStr: "cannot post to the token endpoint",
			expectedErrStr: "cannot post to the token endpoint",
		},
		{
			name:           "empty token",
			token:          "",
			originalErrStr: "cannot post to the token endpoint",
			expectedErrStr: "cannot post to the token endpoint",
		},
		{
			name:           "exact token",
			token:          "8h0387hdyehbwwa45",
			originalErrStr: "exchange rejected for subject token 8h0387hdyehbwwa45",
			expectedErrStr: "exchange rejected for subject token *****",
		},
		{
			name:           "non-exact token",
			token:          "8h0387hdyehbwwa45",
			originalErrStr: `exchange rejected for subject token 8h0387hdyehbwwa45\\n`,
			expectedErrStr: `exchange rejected for subject token *****\\n`,
		},
		{
			name:           "extra text in front of token",
			token:          "8h0387hdyehbwwa45",
			originalErrStr: `exchange rejected for subject token metoo8h0387hdyehbwwa45\\n`,
			expectedErrStr: `exchange rejected for subject token metoo*****\\n`,
		},
		{
			name:           "multibyte token",
			token:          "8h0387hdyehbwwa45踙",
			originalErrStr: `exchange rejected for subject token metoo8h0387hdyehbwwa45踙\\n`,
			expectedErrStr: `exchange rejected for subject token metoo*****\\n`,
		},
		{
			name:           "return error on invalid UTF-8 string",
			token:          "\x18\xd0\xfa\xab\xb2\x93\xbb;\xc0l\xf4\xdc",
			originalErrStr: `exchange rejected for subject token \x18\xd0\xfa\xab\xb2\x93\xbb;\xc0l\xf4\xdc\\n`,
			expectedErrStr: ``,
			expectErr:      true,
		},
		{
			name:           "unescaped token",
			token:          "8h0387hdyehbwwa45\\",
			originalErrStr: `exchange rejected for subject token metoo8h0387hdyehbwwa45\\\n`,
			expectedErrStr: `exchange rejected for subject token metoo*****n`,
		},
	}

	for _, tt := range tests {
		returnedStr, err := MaskTokenFromString(tt.originalErrStr, tt.token)
		if tt.expectErr && err == nil {
			t.Fatalf("expected error for token: %s", tt.token)
		}

		if !tt.expectErr && err != nil {
			t.Fatalf("returned unexpected error: %s", err)
		}

		if !strings.Contains(returnedStr, tt.expectedErrStr) {
			t.Errorf("expected returned string '%s' to contain '%s'",
				returnedStr, tt.expectedErrStr)
		}
	}
}

func Test_MaskTokenFromError(t *testing.T) {
	err := errors.New("request failed: Bearer sekret-value rejected")
	masked := MaskTokenFromError(err, "sekret-value")
	if masked == nil {
		t.Fatal("expected a non-nil error")
	}
	if strings.Contains(masked.Error(), "sekret-value") {
		t.Errorf("token leaked through masked error: %s", masked.Error())
	}
	if !strings.Contains(masked.Error(), "*****") {
		t.Errorf("expected redaction marker in: %s", masked.Error())
	}

	if MaskTokenFromError(nil, "sekret-value") != nil {
		t.Error("expected nil for nil input error")
	}
}
