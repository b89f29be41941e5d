package signal_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lemirq/qhacks-sub000/clock"
	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/entity/signal"
	"github.com/Lemirq/qhacks-sub000/utils/config"
)

var origin = orb.Point{-79.92, 43.26}

type testContext struct {
	clk *clock.Clock
	cfg *config.RuntimeConfig
}

func (c *testContext) Clock() *clock.Clock                        { return c.clk }
func (c *testContext) RoadNetManager() entity.IRoadNetManager     { return nil }
func (c *testContext) Router() entity.IRouter                     { return nil }
func (c *testContext) CollisionManager() entity.ICollisionManager { return nil }
func (c *testContext) SignalManager() entity.ISignalManager       { return nil }
func (c *testContext) VehicleManager() entity.IVehicleManager     { return nil }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig       { return c.cfg }

func newTestContext() *testContext {
	c := config.Config{}
	c.Control.Step = config.ControlStep{Start: 0, Total: 1000, Interval: 1}
	// 默认相位时长：绿20秒、黄3秒、红17秒
	return &testContext{
		clk: clock.New(c.Control.Step),
		cfg: config.NewRuntimeConfig(c),
	}
}

func advance(m *signal.Manager, seconds float64) {
	for i := 0.0; i < seconds; i++ {
		m.Update(1)
	}
	m.Prepare()
}

func TestSignalPhaseCycle(t *testing.T) {
	m := signal.NewManager(newTestContext())
	m.Init([]entity.SignalState{{ID: 0, Position: origin}}, nil)
	m.Prepare()

	phase, ok := m.PhaseAt(0)
	require.True(t, ok)
	assert.Equal(t, entity.LightStateGreen, phase)

	advance(m, 20)
	phase, _ = m.PhaseAt(0)
	assert.Equal(t, entity.LightStateYellow, phase)

	advance(m, 3)
	phase, _ = m.PhaseAt(0)
	assert.Equal(t, entity.LightStateRed, phase)

	advance(m, 17)
	phase, _ = m.PhaseAt(0)
	assert.Equal(t, entity.LightStateGreen, phase)
}

func TestSignalPhaseOffsets(t *testing.T) {
	// 初始相位按ID错开，相邻路口不同步变灯
	m := signal.NewManager(newTestContext())
	m.Init([]entity.SignalState{
		{ID: 0, Position: origin},
		{ID: 1, Position: origin},
		{ID: 2, Position: origin},
	}, nil)
	m.Prepare()

	want := []entity.LightState{
		entity.LightStateGreen,
		entity.LightStateYellow,
		entity.LightStateRed,
	}
	for id, phase := range want {
		got, ok := m.PhaseAt(int64(id))
		require.True(t, ok)
		assert.Equal(t, phase, got, "signal %d", id)
	}
}

func TestSignalLongStepCarriesOver(t *testing.T) {
	// 一次跨越多个相位的推进也能落在正确相位上
	m := signal.NewManager(newTestContext())
	m.Init([]entity.SignalState{{ID: 0, Position: origin}}, nil)
	m.Update(21) // 绿20秒耗尽后黄灯已走1秒
	m.Prepare()

	phase, _ := m.PhaseAt(0)
	assert.Equal(t, entity.LightStateYellow, phase)
}

func TestPhaseAtUnknownSignal(t *testing.T) {
	m := signal.NewManager(newTestContext())
	m.Init(nil, nil)
	_, ok := m.PhaseAt(42)
	assert.False(t, ok)
}

func TestQueriesByRadius(t *testing.T) {
	m := signal.NewManager(newTestContext())
	far := orb.Point{origin.Lon(), origin.Lat() + 0.01} // 约1100米外
	m.Init(
		[]entity.SignalState{{ID: 0, Position: origin}, {ID: 1, Position: far}},
		[]entity.StopSign{{ID: 10, Position: origin}, {ID: 11, Position: far}},
	)
	m.Prepare()

	sigs := m.SignalsNear(origin, 100)
	require.Equal(t, 1, len(sigs))
	assert.Equal(t, int64(0), sigs[0].ID)
	assert.Equal(t, entity.LightStateGreen, sigs[0].Phase)

	signs := m.StopSignsNear(origin, 100)
	require.Equal(t, 1, len(signs))
	assert.Equal(t, int64(10), signs[0].ID)

	assert.Empty(t, m.SignalsNear(orb.Point{0, 0}, 100))
}
