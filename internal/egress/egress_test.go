package egress

import (
	"context"
	"errors"
	"strings"
	"testing"

	bberrors "github.com/harunnryd/bookbot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAdapter struct {
	name string
	sent []string
	to   []string
	err  error
}

func (r *recordingAdapter) Name() string { return r.name }

func (r *recordingAdapter) Send(ctx context.Context, channelID, content string) error {
	if r.err != nil {
		return r.err
	}
	r.to = append(r.to, channelID)
	r.sent = append(r.sent, content)
	return nil
}

func (r *recordingAdapter) Health(ctx context.Context) error { return r.err }

func TestSplit_ShortContentUnchanged(t *testing.T) {
	assert.Equal(t, []string{"Available slots:"}, Split("Available slots:", 1500))
}

func TestSplit_OnLineBoundaries(t *testing.T) {
	content := "Free slots on Wednesday (04.03):\n- 09:00\n- 09:30\n- 10:00"
	parts := Split(content, 40)

	require.Len(t, parts, 2)
	assert.Equal(t, "Free slots on Wednesday (04.03):\n- 09:00", parts[0])
	assert.Equal(t, "- 09:30\n- 10:00", parts[1])
	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 40)
	}
}

func TestSplit_LongLineIsCut(t *testing.T) {
	parts := Split(strings.Repeat("ż", 25), 10)
	require.Len(t, parts, 3)
	assert.Equal(t, strings.Repeat("ż", 10), parts[0])
	assert.Equal(t, strings.Repeat("ż", 5), parts[2])
}

func TestEgress_RoutesBySource(t *testing.T) {
	tg := &recordingAdapter{name: "telegram"}
	sl := &recordingAdapter{name: "slack"}

	e := NewEgress(20)
	require.NoError(t, e.Register(tg))
	require.NoError(t, e.Register(sl))

	require.NoError(t, e.Send(context.Background(), "telegram", "456", "line one\nline two\nline three"))

	assert.Equal(t, []string{"line one\nline two", "line three"}, tg.sent)
	assert.Equal(t, []string{"456", "456"}, tg.to)
	assert.Empty(t, sl.sent)
}

func TestEgress_UnknownSource(t *testing.T) {
	e := NewEgress(0)
	err := e.Send(context.Background(), "whatsapp", "1", "hi")
	assert.ErrorIs(t, err, bberrors.ErrNotFound)
}

func TestEgress_RegisterDuplicate(t *testing.T) {
	e := NewEgress(0)
	require.NoError(t, e.Register(&recordingAdapter{name: "cli"}))
	assert.ErrorIs(t, e.Register(&recordingAdapter{name: "cli"}), bberrors.ErrConflict)
	require.NoError(t, e.Unregister("cli"))
	assert.Empty(t, e.ListAdapters())
}

func TestEgress_Health(t *testing.T) {
	e := NewEgress(0)
	assert.Error(t, e.Health(context.Background()))

	require.NoError(t, e.Register(&recordingAdapter{name: "slack", err: errors.New("down")}))
	assert.ErrorIs(t, e.Health(context.Background()), bberrors.ErrTransient)
}
