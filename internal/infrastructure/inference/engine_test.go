package inference

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropscan/internal/domain/entity"
)

type fakeModel struct {
	out        []float32
	outputSize int
	version    string
	err        error

	active     atomic.Int32
	overlapped atomic.Bool
	calls      atomic.Int32
	closed     atomic.Bool
}

func (m *fakeModel) Run(input []float32) ([]float32, error) {
	m.calls.Add(1)
	if m.active.Add(1) > 1 {
		m.overlapped.Store(true)
	}
	defer m.active.Add(-1)
	time.Sleep(time.Millisecond)

	if m.err != nil {
		return nil, m.err
	}
	out := make([]float32, len(m.out))
	copy(out, m.out)
	return out, nil
}

func (m *fakeModel) OutputSize() int { return m.outputSize }
func (m *fakeModel) Version() string { return m.version }
func (m *fakeModel) Close() error    { m.closed.Store(true); return nil }

func TestEngine_Classify(t *testing.T) {
	model := &fakeModel{out: []float32{0.91, 0.05, 0.04}, outputSize: 3, version: "v1"}
	engine, err := NewEngine(model, 3)
	require.NoError(t, err)

	probs, err := engine.Classify(entity.NewInputTensor())
	require.NoError(t, err)
	require.Equal(t, entity.ProbabilityVector{0.91, 0.05, 0.04}, probs)
	require.Equal(t, 0, probs.ArgMax())
}

func TestEngine_ContractCheckedAtConstruction(t *testing.T) {
	_, err := NewEngine(&fakeModel{outputSize: 5, version: "v5"}, 3)
	require.ErrorIs(t, err, entity.ErrModelContract)

	_, err = NewEngine(nil, 3)
	require.Error(t, err)
}

func TestEngine_ContractCheckedPerCall(t *testing.T) {
	// Размер выхода неизвестен заранее: ошибка появляется при первом вызове
	model := &fakeModel{out: []float32{0.2, 0.2, 0.2, 0.2, 0.2}, version: "v5"}
	engine, err := NewEngine(model, 3)
	require.NoError(t, err)

	_, err = engine.Classify(entity.NewInputTensor())
	require.ErrorIs(t, err, entity.ErrModelContract)
}

func TestEngine_ShapeError(t *testing.T) {
	model := &fakeModel{out: []float32{1, 0, 0}, outputSize: 3}
	engine, err := NewEngine(model, 3)
	require.NoError(t, err)

	_, err = engine.Classify(&entity.InputTensor{Shape: [4]int{1, 224, 224, 3}, Data: make([]float32, 224*224*3)})
	require.ErrorIs(t, err, entity.ErrShape)
	require.Zero(t, model.calls.Load())
}

func TestEngine_RunError(t *testing.T) {
	boom := errors.New("boom")
	engine, err := NewEngine(&fakeModel{err: boom}, 3)
	require.NoError(t, err)

	_, err = engine.Classify(entity.NewInputTensor())
	require.ErrorIs(t, err, boom)
}

func TestEngine_ConcurrentCallsAreSerialized(t *testing.T) {
	model := &fakeModel{out: []float32{0.1, 0.8, 0.1}, outputSize: 3}
	engine, err := NewEngine(model, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probs, err := engine.Classify(entity.NewInputTensor())
			assert.NoError(t, err)
			assert.Equal(t, 1, probs.ArgMax())
		}()
	}
	wg.Wait()

	require.False(t, model.overlapped.Load())
	require.Equal(t, int32(16), model.calls.Load())
}

func TestEngine_Reload(t *testing.T) {
	v1 := &fakeModel{out: []float32{1, 0, 0}, outputSize: 3, version: "v1"}
	engine, err := NewEngine(v1, 3)
	require.NoError(t, err)

	require.ErrorIs(t, engine.Reload(&fakeModel{outputSize: 5}), entity.ErrModelContract)
	require.Equal(t, "v1", engine.Version())
	require.False(t, v1.closed.Load())

	v2 := &fakeModel{out: []float32{0, 0, 1}, outputSize: 3, version: "v2"}
	require.NoError(t, engine.Reload(v2))
	require.Equal(t, "v2", engine.Version())
	require.True(t, v1.closed.Load())

	probs, err := engine.Classify(entity.NewInputTensor())
	require.NoError(t, err)
	require.Equal(t, 2, probs.ArgMax())

	require.NoError(t, engine.Close())
	require.True(t, v2.closed.Load())
}
