package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestCatalogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelDebug})

	t.Run("Should add correlation id from context", func(t *testing.T) {
		buf.Reset()
		ctx := correlationid.NewContext(context.Background(), "corr-42")

		logger.With(slog.String("service", "http")).InfoContext(ctx, "hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "corr-42", record["correlation_id"])
		assert.Equal(t, "http", record["service"])
		assert.NotContains(t, record, "trace_id")
	})

	t.Run("Should add product id and app name", func(t *testing.T) {
		var out bytes.Buffer
		named := log.New(&out, config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo, App: "product-catalog"})
		ctx := log.WithProductID(context.Background(), 3_000_000_000)

		named.WarnContext(ctx, "error evicting cached product")

		var record map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &record))
		assert.Equal(t, "product-catalog", record["app"])
		assert.InDelta(t, 3_000_000_000, record["id_product"], 0)
		assert.NotContains(t, record, "correlation_id")
	})

	t.Run("Should omit app when unset", func(t *testing.T) {
		buf.Reset()

		logger.InfoContext(context.Background(), "hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.NotContains(t, record, "app")
		assert.NotContains(t, record, "id_product")
	})

	t.Run("Should respect level", func(t *testing.T) {
		buf.Reset()
		quiet := log.New(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelWarn})

		quiet.InfoContext(context.Background(), "dropped")
		assert.Zero(t, buf.Len())
	})
}
