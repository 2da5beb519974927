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

package transport

import (
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

// retryLogger is a wrapper around logr.Logger that implements the
// retryablehttp.LeveledLogger interface. Errors and warnings surface at the
// default level, the chatty per-request lines at debug verbosity.
type retryLogger struct {
	logger logr.Logger
}

var _ retryablehttp.LeveledLogger = &retryLogger{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.V(1).Info(msg, keysAndValues...)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.V(2).Info(msg, keysAndValues...)
}
