package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/waterme/internal/datum"
	apperrors "github.com/manav03panchal/waterme/internal/errors"
	"github.com/manav03panchal/waterme/internal/output"
)

var testNow = time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dir := t.TempDir()
	ctx, err := New(Options{
		ConfigPath: filepath.Join(dir, "absent.yaml"),
		Root:       filepath.Join(dir, "data"),
		Format:     output.FormatJSON,
		ColorMode:  output.ColorNever,
		Output:     &bytes.Buffer{},
		LogOutput:  &bytes.Buffer{},
		Now:        func() time.Time { return testNow },
	})
	require.NoError(t, err)
	t.Cleanup(func() { ctx.Close() })
	return ctx
}

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotEmpty(t, opts.ConfigPath)
	assert.Empty(t, opts.Root)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNew(t *testing.T) {
	ctx := newTestContext(t)

	assert.NotNil(t, ctx.Config)
	assert.NotNil(t, ctx.Logger)
	assert.NotNil(t, ctx.Container)
	assert.True(t, ctx.IsJSON())
	assert.False(t, ctx.IsCLI())
	assert.Equal(t, testNow, ctx.Now())
	assert.Equal(t, time.Sunday, ctx.Calendar.FirstWeekday)
}

func TestNewRootOverride(t *testing.T) {
	ctx := newTestContext(t)
	assert.Equal(t, ctx.Config.Storage.Root, ctx.Container.Root())
}

func TestNewRejectsBadLogLevel(t *testing.T) {
	t.Setenv("WATERME_LOG_LEVEL", "chatty")
	_, err := New(Options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.ErrorContains(t, err, "log.level")
}

func TestControllerIsCached(t *testing.T) {
	ctx := newTestContext(t)
	first, err := ctx.Controller(context.Background())
	require.NoError(t, err)
	second, err := ctx.Controller(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, datum.EngineDocument, first.Engine())

	require.NoError(t, ctx.CloseStore())
	require.NoError(t, ctx.CloseStore())
}

func TestSetNow(t *testing.T) {
	ctx := newTestContext(t)
	pinned := testNow.Add(-48 * time.Hour)

	require.NoError(t, ctx.SetNow(pinned))
	assert.Equal(t, pinned, ctx.Now())

	_, err := ctx.Controller(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, ctx.SetNow(testNow), ErrStoreOpen)
}

// =============================================================================
// Resolution Tests
// =============================================================================

func TestResolveVessel(t *testing.T) {
	ctx := newTestContext(t)
	bg := context.Background()

	byName, err := ctx.ResolveVessel(bg, "boston fern")
	require.NoError(t, err)
	assert.Equal(t, "Boston Fern", byName.DisplayName())

	byID, err := ctx.ResolveVessel(bg, byName.ID().String())
	require.NoError(t, err)
	assert.Equal(t, byName.ID(), byID.ID())

	_, err = ctx.ResolveVessel(bg, "Orchid")
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)

	_, err = ctx.ResolveVessel(bg, "Nonexistent plant")
	assert.Error(t, err)
}

func TestResolveVesselAmbiguousName(t *testing.T) {
	ctx := newTestContext(t)
	bg := context.Background()
	ctrl, err := ctx.Controller(bg)
	require.NoError(t, err)
	_, err = ctrl.NewReminderVessel("Monstera", nil)
	require.NoError(t, err)

	_, err = ctx.ResolveVessel(bg, "monstera")
	assert.ErrorIs(t, err, datum.ErrAmbiguousIdentifier)
}

func TestResolveReminder(t *testing.T) {
	ctx := newTestContext(t)
	bg := context.Background()

	r, err := ctx.ResolveReminder(bg, "Boston Fern:mist")
	require.NoError(t, err)
	assert.Equal(t, datum.Mist(), r.Kind())
	assert.Equal(t, "Keep the leaves humid", r.Note())

	byID, err := ctx.ResolveReminder(bg, r.ID().String())
	require.NoError(t, err)
	assert.Equal(t, r.ID(), byID.ID())

	_, err = ctx.ResolveReminder(bg, "Desk Cactus:mist")
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)

	_, err = ctx.ResolveReminder(bg, "Desk Cactus:prune")
	assert.ErrorIs(t, err, apperrors.ErrInvalidKind)

	_, err = ctx.ResolveReminder(bg, "missing")
	assert.ErrorIs(t, err, datum.ErrObjectDeleted)
}

func TestVesselNames(t *testing.T) {
	ctx := newTestContext(t)
	names, err := ctx.VesselNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 3)
	assert.Contains(t, mapValues(names), "🌵 Desk Cactus")
}

func mapValues(m map[datum.Identifier]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// =============================================================================
// Disk Full Tests
// =============================================================================

func TestIsDiskFullError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"enospc", fmt.Errorf("write: %w", syscall.ENOSPC), true},
		{"sentinel", apperrors.ErrDiskFull, true},
		{"message", errors.New("No space left on device"), true},
		{"other", errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDiskFullError(tt.err))
		})
	}
}

func TestWrapDiskFullError(t *testing.T) {
	assert.Nil(t, WrapDiskFullError(nil, "export", ""))

	plain := errors.New("permission denied")
	assert.Same(t, plain, WrapDiskFullError(plain, "export", "/tmp/x"))

	wrapped := WrapDiskFullError(syscall.ENOSPC, "export", "/tmp/x")
	var dfe *DiskFullError
	require.ErrorAs(t, wrapped, &dfe)
	assert.Equal(t, "export", dfe.Op)
	assert.ErrorIs(t, wrapped, apperrors.ErrDiskFull)
	assert.ErrorIs(t, wrapped, syscall.ENOSPC)
	assert.Contains(t, wrapped.Error(), "on /tmp/x")

	assert.Same(t, wrapped, WrapDiskFullError(wrapped, "again", ""))
}
