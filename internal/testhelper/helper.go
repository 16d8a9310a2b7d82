// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package testhelper

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/wneessen/shopkeep/internal/logger"
)

// PerformIntegrationTests skips the calling test unless PERFORM_INTEGRATION_TEST
// is set to true.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv("PERFORM_INTEGRATION_TEST"); !strings.EqualFold(val, "true") {
		t.Skip("skipping integration test")
	}
}

// Logger returns a text logger writing to output, or discarding all output if
// output is nil.
func Logger(t *testing.T, level slog.Level, output io.Writer) *logger.Logger {
	t.Helper()
	if output == nil {
		output = io.Discard
	}
	return logger.NewLogger(level, output, logger.Opts{Format: "text"})
}
